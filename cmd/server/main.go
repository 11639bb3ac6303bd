package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/newsletter/internal/api"
	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/mailer"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/pkg/metrics"
	"github.com/ignite/newsletter/internal/repository/postgres"
	"github.com/ignite/newsletter/internal/service/subscription"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "error", err.Error())
		_ = logger.Default().Sync()
		os.Exit(1)
	}
}

func run() error {
	configDir := flag.String("config", "config", "directory holding base.yaml and profile files")
	profiles := flag.String("profiles", "", "comma-separated configuration profiles, applied in order (default $APP_PROFILE or local)")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configDir, config.ParseProfiles(*profiles))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
		RedactPII:   !cfg.Log.DisableRedaction,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Application.Addr()
	if err := checkPortAvailable(addr); err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.Database.DSN(), postgres.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: 5 * time.Minute,
		ConnectTimeout:  cfg.Database.Timeout(),
	})
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.Name)

	m := metrics.New(prometheus.DefaultRegisterer)

	sender, err := newEmailSender(ctx, cfg.EmailClient)
	if err != nil {
		return err
	}
	sender = subscription.ObserveSends(sender, m.ObserveConfirmationEmail)

	svc := subscription.NewService(postgres.NewSubscriptionRepo(db), sender, cfg.Application.PublicBaseURL())

	server := api.NewServer(api.Dependencies{
		Subscriptions:  svc,
		DB:             db,
		Logger:         log,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
		AllowedOrigins: cfg.Application.AllowedOrigins,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", addr, "base_url", cfg.Application.PublicBaseURL())
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// newEmailSender builds the configured delivery backend.
func newEmailSender(ctx context.Context, cfg config.EmailClientConfig) (subscription.EmailSender, error) {
	from, err := domain.ParseEmailAddress(cfg.SenderEmail)
	if err != nil {
		return nil, fmt.Errorf("email_client.sender_email: %w", err)
	}
	renderer, err := mailer.NewRenderer()
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "", "http":
		if cfg.BaseURL == "" {
			return nil, errors.New("email_client.base_url is required for the http provider")
		}
		return mailer.NewClient(mailer.ClientConfig{
			BaseURL:   cfg.BaseURL,
			Sender:    from,
			AuthToken: cfg.AuthorizationToken,
			Timeout:   cfg.Timeout(),
		}, renderer, nil), nil
	case "ses":
		sesCfg := mailer.SESConfig{
			Region:    cfg.SES.Region,
			AccessKey: cfg.SES.AccessKey,
			SecretKey: cfg.SES.SecretKey,
			Sender:    from,
			Timeout:   cfg.Timeout(),
		}
		client, err := mailer.NewSESClient(ctx, sesCfg)
		if err != nil {
			return nil, err
		}
		return mailer.NewSESSender(client, sesCfg, renderer), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// checkPortAvailable fails fast when something already listens on addr.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w\n"+
			"  Hint: run 'lsof -i' to find the blocking process", addr, err)
	}
	return ln.Close()
}
