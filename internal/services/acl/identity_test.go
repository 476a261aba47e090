package acl

import (
	"context"
	"errors"
	"testing"

	"github.com/asakaida/monban/internal/entities"
)

func TestResolveLevel(t *testing.T) {
	owners := entities.NewBotOwners("900", "901", "902")
	guild := &entities.Guild{ID: "1", OwnerID: "100"}
	bindings := map[string]entities.Level{
		"10": entities.LevelMod,
		"20": entities.LevelSubmod,
		"30": entities.LevelMember,
	}

	tests := []struct {
		name  string
		actor entities.Actor
		guild *entities.Guild
		want  entities.Level
	}{
		{
			name:  "highest bound role wins",
			actor: entities.NewMember("42", "5", "10"),
			guild: guild,
			want:  entities.LevelMod,
		},
		{
			name:  "lower bound roles are not consulted",
			actor: entities.NewMember("42", "10", "20"),
			guild: guild,
			want:  entities.LevelSubmod,
		},
		{
			name:  "unbound roles are skipped",
			actor: entities.NewMember("42", "30", "5", "6"),
			guild: guild,
			want:  entities.LevelMember,
		},
		{
			name:  "no roles",
			actor: entities.NewMember("42"),
			guild: guild,
			want:  entities.LevelEveryone,
		},
		{
			name:  "non-member",
			actor: entities.NewNonMember("42"),
			guild: guild,
			want:  entities.LevelEveryone,
		},
		{
			name:  "guild owner beats role bindings",
			actor: entities.NewMember("100", "10"),
			guild: guild,
			want:  entities.LevelGuildOwner,
		},
		{
			name:  "bot owner from the legacy single id",
			actor: entities.NewMember("900"),
			guild: guild,
			want:  entities.LevelBotOwner,
		},
		{
			name:  "bot owner from the id set beats guild owner",
			actor: entities.NewMember("902"),
			guild: &entities.Guild{ID: "1", OwnerID: "902"},
			want:  entities.LevelBotOwner,
		},
		{
			name:  "no guild",
			actor: entities.NewMember("42", "10"),
			guild: nil,
			want:  entities.LevelEveryone,
		},
		{
			name:  "guild without known owner",
			actor: entities.NewMember("", "10"),
			guild: &entities.Guild{ID: "1"},
			want:  entities.LevelMod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveLevel(tt.actor, owners, tt.guild, bindings)
			if got != tt.want {
				t.Errorf("ResolveLevel() = %s, want %s", got, tt.want)
			}
			// deterministic
			if again := ResolveLevel(tt.actor, owners, tt.guild, bindings); again != got {
				t.Errorf("ResolveLevel() not deterministic: %s then %s", got, again)
			}
		})
	}
}

func TestResolveLevel_NoOwners(t *testing.T) {
	var owners entities.BotOwners
	got := ResolveLevel(entities.NewMember(""), owners, &entities.Guild{ID: "1"}, nil)
	if got != entities.LevelEveryone {
		t.Errorf("ResolveLevel() = %s, want EVERYONE", got)
	}
}

func TestIdentityResolver_ResolveLevel(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRoleLevelRepository()
	_ = repo.Set(ctx, &entities.RoleLevelBinding{GuildID: "1", RoleID: "10", Level: entities.LevelMod})
	_ = repo.Set(ctx, &entities.RoleLevelBinding{GuildID: "2", RoleID: "5", Level: entities.LevelOwner})

	resolver := NewIdentityResolver(repo, entities.NewBotOwners("900"))
	guild := &entities.Guild{ID: "1", OwnerID: "100"}

	t.Run("scenario: unbound role below a MOD role", func(t *testing.T) {
		level, err := resolver.ResolveLevel(ctx, entities.NewMember("42", "5", "10"), guild)
		if err != nil {
			t.Fatalf("ResolveLevel() error = %v", err)
		}
		if level != entities.LevelMod {
			t.Errorf("ResolveLevel() = %s, want MOD", level)
		}
	})

	t.Run("bindings of other guilds are ignored", func(t *testing.T) {
		level, err := resolver.ResolveLevel(ctx, entities.NewMember("42", "5"), guild)
		if err != nil {
			t.Fatalf("ResolveLevel() error = %v", err)
		}
		if level != entities.LevelEveryone {
			t.Errorf("ResolveLevel() = %s, want EVERYONE", level)
		}
	})

	t.Run("shortcuts skip storage", func(t *testing.T) {
		before := repo.listCalls
		for _, actor := range []entities.Actor{
			entities.NewMember("900", "10"),
			entities.NewMember("100", "10"),
			entities.NewNonMember("42"),
			entities.NewMember("42"),
		} {
			if _, err := resolver.ResolveLevel(ctx, actor, guild); err != nil {
				t.Fatalf("ResolveLevel() error = %v", err)
			}
		}
		if repo.listCalls != before {
			t.Errorf("expected no storage reads, got %d", repo.listCalls-before)
		}
	})

	t.Run("storage error", func(t *testing.T) {
		repo.err = errStorage
		defer func() { repo.err = nil }()

		_, err := resolver.ResolveLevel(ctx, entities.NewMember("42", "10"), guild)
		if !errors.Is(err, errStorage) {
			t.Errorf("ResolveLevel() error = %v, want wrapped storage error", err)
		}
	})
}
