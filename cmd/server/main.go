package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asakaida/monban/internal/discord"
	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/handlers"
	"github.com/asakaida/monban/internal/infrastructure/config"
	"github.com/asakaida/monban/internal/infrastructure/logging"
	"github.com/asakaida/monban/internal/infrastructure/metrics"
	"github.com/asakaida/monban/internal/services/acl"
	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	defaultEnv          = "dev"
	metricsUpdatePeriod = 10 * time.Second
	shutdownTimeout     = 30 * time.Second
)

func main() {
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := config.InitConfig(env); err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to initialize config")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}

	log, err := logging.New(cfg.Log, nil)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to create logger")
	}
	log.Info().Str("env", env).Str("model", cfg.ACL.Model).Msg("Starting monban")

	st, err := openStore(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	identityCache, err := newCache(&cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create identity cache")
	}
	defer identityCache.Close()

	// Metrics
	collector := metrics.NewCollector()
	collector.SetCache(identityCache)
	exporter := metrics.NewPrometheusExporter(collector, prometheus.DefaultRegisterer)
	recorder := metrics.NewRecorder(collector, exporter)

	// Optional gateway session for actor context and denial rendering
	var (
		session   *discordgo.Session
		directory handlers.GuildDirectory
	)
	if cfg.Discord.Enabled() {
		session, err = openDiscord(cfg.Discord.Token)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open discord session")
		}
		defer session.Close()

		if cfg.ACL.BotID == "" && session.State != nil && session.State.User != nil {
			cfg.ACL.BotID = session.State.User.ID
		}
		directory = discord.NewAdapter(discord.NewSessionDirectory(session), log)
		log.Info().Str("bot", cfg.ACL.BotID).Msg("Discord session opened")
	}

	// ACL services
	owners := entities.NewBotOwners(cfg.ACL.BotOwnerID, cfg.ACL.BotOwnerIDs...)
	identity := acl.NewIdentityCache(
		acl.NewIdentityResolver(st.stores.RoleLevels, owners),
		identityCache,
		acl.IdentityCacheConfig{
			BotID:    cfg.ACL.BotID,
			TTL:      cfg.Cache.TTL(),
			Recorder: recorder,
		},
		log,
	)

	model, err := acl.NewModel(cfg.ACL.Model, st.stores, identity, owners, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create permission model")
	}
	engine := acl.NewEngine(model, recorder, log)
	manager := acl.NewManager(st.stores, identity, cfg.Cache.TTL(), log)

	handler := handlers.NewACLHandler(engine, manager, directory, log)

	// gRPC server
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(metrics.UnaryServerInterceptor(collector, exporter)),
	)
	handlers.RegisterACLServiceServer(grpcServer, handler)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(handlers.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Register reflection service (for grpcurl, etc.)
	reflection.Register(grpcServer)

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen")
	}

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 2)
	go func() {
		log.Info().Str("addr", listener.Addr().String()).Msg("gRPC server listening")
		if err := grpcServer.Serve(listener); err != nil {
			serverErrors <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", metricsServer.Addr).Msg("Metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go watch(ctx, st, exporter, healthServer, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error().Err(err).Msg("Server error")
	case sig := <-sigChan:
		log.Info().Stringer("signal", sig).Msg("Initiating graceful shutdown")
	}

	stop()
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		log.Info().Msg("gRPC server stopped gracefully")
	case <-shutdownCtx.Done():
		log.Warn().Msg("Shutdown timeout exceeded, forcing stop")
		grpcServer.Stop()
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping metrics server")
	}

	log.Info().Msg("Shutdown complete")
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// watch refreshes gauges and reports store health until ctx is done
func watch(ctx context.Context, st *store, exporter *metrics.PrometheusExporter, healthServer *health.Server, log zerolog.Logger) {
	ticker := time.NewTicker(metricsUpdatePeriod)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exporter.Update()

			err := st.health.HealthCheck()
			switch {
			case err != nil && serving:
				log.Error().Err(err).Msg("Store unhealthy")
				healthServer.SetServingStatus(handlers.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
				serving = false
			case err == nil && !serving:
				log.Info().Msg("Store healthy again")
				healthServer.SetServingStatus(handlers.ServiceName, healthpb.HealthCheckResponse_SERVING)
				serving = true
			}
		}
	}
}

func openDiscord(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	session.StateEnabled = true

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return session, nil
}
