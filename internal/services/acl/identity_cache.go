package acl

import (
	"context"
	"fmt"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/pkg/cache"
	"github.com/rs/zerolog"
)

// IdentityCacheTTL is how long a resolved level is reused. Role binding
// changes may take this long to become effective.
const IdentityCacheTTL = 120 * time.Second

// cachedLevel is stored in the cache backend. Expiry is decided at lookup time
// from insertedAt, independent of the backend's own eviction.
type cachedLevel struct {
	level      entities.Level
	insertedAt time.Time
}

// IdentityCacheConfig configures an IdentityCache
type IdentityCacheConfig struct {
	// BotID scopes keys so several bots can share one backend
	BotID string
	// TTL defaults to IdentityCacheTTL
	TTL time.Duration
	// Now defaults to time.Now
	Now      func() time.Time
	Recorder Recorder
}

// IdentityCache memoizes a LevelResolver per (bot, guild, actor).
// Entries are never invalidated early; a concurrent miss recomputes and the
// last write wins.
type IdentityCache struct {
	resolver LevelResolver
	cache    cache.Cache
	botID    string
	ttl      time.Duration
	now      func() time.Time
	recorder Recorder
	log      zerolog.Logger
}

var _ LevelResolver = (*IdentityCache)(nil)

// NewIdentityCache creates a caching LevelResolver in front of resolver
func NewIdentityCache(resolver LevelResolver, c cache.Cache, config IdentityCacheConfig, logger zerolog.Logger) *IdentityCache {
	ic := &IdentityCache{
		resolver: resolver,
		cache:    c,
		botID:    config.BotID,
		ttl:      config.TTL,
		now:      config.Now,
		recorder: config.Recorder,
		log:      logger,
	}
	if ic.ttl <= 0 {
		ic.ttl = IdentityCacheTTL
	}
	if ic.now == nil {
		ic.now = time.Now
	}
	if ic.recorder == nil {
		ic.recorder = nopRecorder{}
	}
	return ic
}

// TTL returns the configured time-to-live
func (c *IdentityCache) TTL() time.Duration {
	return c.ttl
}

func (c *IdentityCache) key(actor entities.Actor, guild *entities.Guild) string {
	guildID := ""
	if guild != nil {
		guildID = guild.ID
	}
	return fmt.Sprintf("identity:%s:%s:%s", c.botID, guildID, actor.ID)
}

// ResolveLevel implements LevelResolver. Errors are returned as-is and never cached.
func (c *IdentityCache) ResolveLevel(ctx context.Context, actor entities.Actor, guild *entities.Guild) (entities.Level, error) {
	key := c.key(actor, guild)

	if v, ok := c.cache.Get(ctx, key); ok {
		if entry, ok := v.(cachedLevel); ok && c.now().Sub(entry.insertedAt) < c.ttl {
			c.recorder.RecordCacheHit()
			return entry.level, nil
		}
	}
	c.recorder.RecordCacheMiss()

	level, err := c.resolver.ResolveLevel(ctx, actor, guild)
	if err != nil {
		return level, err
	}

	entry := cachedLevel{level: level, insertedAt: c.now()}
	if err := c.cache.Set(ctx, key, entry, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Identity cache set failed")
	}

	return level, nil
}
