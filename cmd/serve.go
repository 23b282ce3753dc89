package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/latsic/idbridge/internal/api"
	"github.com/latsic/idbridge/internal/audit"
	"github.com/latsic/idbridge/internal/claims"
	"github.com/latsic/idbridge/internal/config"
	"github.com/latsic/idbridge/internal/core"
	"github.com/latsic/idbridge/internal/federation"
	"github.com/latsic/idbridge/internal/interaction"
	"github.com/latsic/idbridge/internal/logging"
	"github.com/latsic/idbridge/internal/session"
	"github.com/latsic/idbridge/internal/state"
	"github.com/latsic/idbridge/internal/store"
	"github.com/latsic/idbridge/internal/store/postgres"
	"github.com/latsic/idbridge/internal/tasks"
	"github.com/latsic/idbridge/internal/upstream"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the idbridge server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		addr := cfg.Server.Addr
		if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
			addr = flagAddr
		}

		log.Info().Msg("Initializing providers...")
		providers, err := upstream.BuildRegistry(ctx, cfg.Providers, cfg.Server.BaseURL+api.CallbackRoute)
		if err != nil {
			return fmt.Errorf("building provider registry: %w", err)
		}

		users, closeUsers, err := buildUserStore(ctx, cfg.Store)
		if err != nil {
			return fmt.Errorf("building user store: %w", err)
		}
		defer closeUsers()

		taskManager := tasks.NewManager()
		challenges, err := buildStateStore(ctx, cfg.State, taskManager)
		if err != nil {
			return fmt.Errorf("building state store: %w", err)
		}

		auditor, auditReader, err := buildAuditor(cfg.Audit)
		if err != nil {
			return fmt.Errorf("building auditor: %w", err)
		}
		defer func() {
			_ = auditor.Close()
		}()

		registry := interaction.NewClientRegistry(cfg.Clients)
		svc := federation.NewService(
			users,
			claims.NewNormalizer(claims.NewDefaultTranslator()),
			registry,
			auditor,
		)
		sessions := session.NewJWTIssuer([]byte(cfg.Session.SigningKey), cfg.Session.TTL)

		taskCtx, stopTasks := context.WithCancel(context.Background())
		defer stopTasks()
		taskManager.Start(taskCtx)

		srv := api.NewServer(
			svc,
			sessions,
			providers,
			challenges,
			registry,
			taskManager,
			auditor,
			auditReader,
			cfg.Session,
		)

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Routes([]byte(cfg.Session.SigningKey)),
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on (overrides config)")
}

func buildUserStore(ctx context.Context, cfg config.StoreConfig) (core.UserRepository, func(), error) {
	switch cfg.Type {
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	default:
		return store.NewInMemoryUserStore(), func() {}, nil
	}
}

// buildStateStore wires the challenge store. The in-memory store needs the
// periodic sweep task; Redis expires challenges by TTL on its own.
func buildStateStore(ctx context.Context, cfg config.StateConfig, manager *tasks.Manager) (state.Store, error) {
	switch cfg.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("pinging redis: %w", err)
		}
		return state.NewRedisStore(client, cfg.TTL), nil
	default:
		mem := state.NewInMemoryStore(cfg.TTL)
		manager.Register("challenge-sweep", cfg.TTL, func(ctx context.Context, logger logging.InternalLogger) error {
			deleted, err := mem.DeleteExpired(ctx)
			if err != nil {
				return err
			}
			logger.Info("swept %d expired challenges", deleted)
			return nil
		})
		return mem, nil
	}
}

func buildAuditor(cfg config.AuditConfig) (core.Auditor, audit.Reader, error) {
	if !cfg.Enabled {
		return audit.NewNoopAuditor(), nil, nil
	}

	// the in-memory window always backs the admin audit API
	recent := audit.NewInMemoryAuditor()
	if cfg.Type == "file" {
		file, err := audit.NewFileAuditor(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return audit.NewMultiAuditor(file, recent), recent, nil
	}
	return recent, recent, nil
}
