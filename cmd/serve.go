package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xiaot623/companion/internal/adapter/llm"
	"github.com/xiaot623/companion/internal/feed"
	"github.com/xiaot623/companion/internal/logging"
	store "github.com/xiaot623/companion/internal/repository"
	"github.com/xiaot623/companion/internal/service"
	transport "github.com/xiaot623/companion/internal/transport/http"
	"github.com/xiaot623/companion/policy"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		logger.Info("starting companion",
			zap.String("addr", cfg.Addr()),
			zap.String("environment", cfg.Environment),
			zap.String("database", cfg.DatabasePath),
			zap.String("ai_provider", cfg.AIProvider),
		)

		// Initialize store
		db, err := store.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			logger.Error("failed to initialize store", zap.Error(err))
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Initialize policy engine
		policyEngine, err := policy.Load(ctx, cfg.FailurePolicyFile)
		if err != nil {
			logger.Error("failed to initialize failure policy", zap.Error(err))
			return err
		}

		provider := llm.NewProvider(cfg.ProviderOptions(), logger)
		logger.Info("provider selected", zap.String("provider", provider.Name()))

		hub := feed.NewHub(logger)
		go hub.Run(ctx)

		svc := service.New(db, provider, policyEngine, hub, cfg, logger)
		e := transport.NewServer(svc, feed.NewServer(hub, cfg.CORSOrigins, logger), cfg, logger)

		errCh := make(chan error, 1)
		go func() {
			if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
		logger.Info("API started", zap.Int("port", cfg.Port))

		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("server failed", zap.Error(err))
				return err
			}
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shutdown server gracefully", zap.Error(err))
		}
		logger.Info("companion stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
