package e2e

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/handlers"
	"github.com/asakaida/monban/internal/infrastructure/database"
	"github.com/asakaida/monban/internal/infrastructure/metrics"
	"github.com/asakaida/monban/internal/repositories/sqlite"
	"github.com/asakaida/monban/internal/services/acl"
	"github.com/asakaida/monban/pkg/cache/memorycache"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

const bufSize = 1024 * 1024

// BotOwnerID is the bot owner every E2E server is configured with
const BotOwnerID = "900"

// Clock is a manually advanced time source shared by the identity cache
// and its backend
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// E2ETestServer represents an E2E test server
type E2ETestServer struct {
	Server    *grpc.Server
	Client    *handlers.ACLServiceClient
	Conn      *grpc.ClientConn
	DB        *database.SQLite
	Listener  *bufconn.Listener
	Collector *metrics.Collector
	Clock     *Clock
}

// SetupE2ETest starts the full ACL service for model over an in-memory
// database and connects a client to it
func SetupE2ETest(t *testing.T, model string) *E2ETestServer {
	t.Helper()

	db, err := database.NewSQLite(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := sqlite.AutoMigrate(db.DB); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	stores := sqlite.NewStores(db.DB)

	clock := &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	backend, err := memorycache.New(&memorycache.Config{
		MaxSizeBytes:  1 << 20,
		DefaultTTL:    acl.IdentityCacheTTL,
		EnableMetrics: true,
		Now:           clock.Now,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	collector := metrics.NewCollector()
	collector.SetCache(backend)
	recorder := metrics.NewRecorder(collector, nil)

	owners := entities.NewBotOwners(BotOwnerID)
	identity := acl.NewIdentityCache(
		acl.NewIdentityResolver(stores.RoleLevels, owners),
		backend,
		acl.IdentityCacheConfig{BotID: "e2e", Now: clock.Now, Recorder: recorder},
		zerolog.Nop(),
	)

	permissionModel, err := acl.NewModel(model, stores, identity, owners, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create model: %v", err)
	}
	engine := acl.NewEngine(permissionModel, recorder, zerolog.Nop())
	manager := acl.NewManager(stores, identity, identity.TTL(), zerolog.Nop())
	handler := handlers.NewACLHandler(engine, manager, nil, zerolog.Nop())

	// Create in-memory gRPC server with bufconn
	listener := bufconn.Listen(bufSize)
	server := grpc.NewServer(grpc.UnaryInterceptor(metrics.UnaryServerInterceptor(collector, nil)))
	handlers.RegisterACLServiceServer(server, handler)

	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	bufDialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}
	conn, err := grpc.NewClient(
		"passthrough://bufconn",
		grpc.WithContextDialer(bufDialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		server.Stop()
		t.Fatalf("failed to create client connection: %v", err)
	}

	e := &E2ETestServer{
		Server:    server,
		Client:    handlers.NewACLServiceClient(conn),
		Conn:      conn,
		DB:        db,
		Listener:  listener,
		Collector: collector,
		Clock:     clock,
	}
	t.Cleanup(func() { e.Teardown(t) })
	return e
}

// Teardown cleans up the E2E test environment
func (e *E2ETestServer) Teardown(t *testing.T) {
	t.Helper()

	if e.Conn != nil {
		e.Conn.Close()
	}
	if e.Server != nil {
		e.Server.Stop()
	}
	if e.Listener != nil {
		e.Listener.Close()
	}
	if e.DB != nil {
		if err := e.DB.Close(); err != nil {
			t.Logf("warning: failed to close database: %v", err)
		}
	}
}

// Call invokes method and fails the test on error
func (e *E2ETestServer) Call(t *testing.T, method string, req map[string]any) map[string]*structpb.Value {
	t.Helper()

	resp, err := e.TryCall(t, method, req)
	if err != nil {
		t.Fatalf("%s failed: %v", method, err)
	}
	return resp
}

// TryCall invokes method and returns the response fields and error
func (e *E2ETestServer) TryCall(t *testing.T, method string, req map[string]any) (map[string]*structpb.Value, error) {
	t.Helper()

	s, err := structpb.NewStruct(req)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := e.Client.Call(ctx, method, s)
	if err != nil {
		return nil, err
	}
	return resp.GetFields(), nil
}

// Resolve runs a Resolve call and returns its outcome string
func (e *E2ETestServer) Resolve(t *testing.T, req map[string]any) string {
	t.Helper()
	return e.Call(t, handlers.MethodResolve, req)["outcome"].GetStringValue()
}
