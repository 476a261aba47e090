package handlers

import (
	"testing"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/infrastructure/database"
	"github.com/asakaida/monban/internal/repositories/sqlite"
	"github.com/asakaida/monban/internal/services/acl"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// newTestHandler wires a handler over a fresh in-memory database.
// Bot owner is "900".
func newTestHandler(t *testing.T, model string, directory GuildDirectory) *ACLHandler {
	t.Helper()

	db, err := database.NewSQLite(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.AutoMigrate(db.DB); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	stores := sqlite.NewStores(db.DB)
	owners := entities.NewBotOwners("900")
	identity := acl.NewIdentityResolver(stores.RoleLevels, owners)

	permissionModel, err := acl.NewModel(model, stores, identity, owners, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	engine := acl.NewEngine(permissionModel, nil, zerolog.Nop())
	manager := acl.NewManager(stores, identity, 0, zerolog.Nop())

	return NewACLHandler(engine, manager, directory, zerolog.Nop())
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("structpb.NewStruct() error = %v", err)
	}
	return s
}

func assertCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if got := status.Code(err); got != want {
		t.Errorf("status code = %v, want %v (err: %v)", got, want, err)
	}
}

// fakeDirectory serves a fixed actor for every lookup
type fakeDirectory struct {
	actor entities.Actor
	guild *entities.Guild
	err   error
	calls int
}

func (d *fakeDirectory) Context(guildID, userID string) (entities.Actor, *entities.Guild, error) {
	d.calls++
	if d.err != nil {
		return entities.Actor{}, nil, d.err
	}
	actor := d.actor
	actor.ID = userID
	return actor, d.guild, nil
}

func (d *fakeDirectory) DenialMessage(guildID string, decision entities.Decision) string {
	return "denied: " + decision.Outcome.String()
}
