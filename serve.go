package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blogem/diesel-log/authenticator"
	"github.com/blogem/diesel-log/config"
	"github.com/blogem/diesel-log/controllers"
	"github.com/blogem/diesel-log/database"
	"github.com/blogem/diesel-log/logging"
	"github.com/blogem/diesel-log/metrics"
	"github.com/blogem/diesel-log/realtime"
	"github.com/blogem/diesel-log/repositories"
	"github.com/blogem/diesel-log/services"
)

// application owns every resource that lives as long as the server
type application struct {
	cfg    *config.Config
	logger *logrus.Logger

	db       *database.DB
	changes  *realtime.Broker
	listener *realtime.PostgresListener
	relay    *realtime.RedisRelay
	repos    *repositories.Repositories
	services *services.Services
	metrics  *metrics.Metrics
	server   *http.Server
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &application{cfg: cfg, logger: logging.GetLogger()}
	defer app.close()

	if err := app.initialize(ctx); err != nil {
		return err
	}
	return app.run(ctx)
}

// initialize builds the components leaves first
func (app *application) initialize(ctx context.Context) error {
	loc, err := app.cfg.Location()
	if err != nil {
		return err
	}

	app.db, err = openDatabase(app.cfg)
	if err != nil {
		return err
	}

	// Store change notifications
	app.changes = realtime.NewBroker(app.cfg.Realtime.SubscriberBuffer)
	var publisher realtime.Publisher = app.changes

	if app.cfg.Realtime.RedisURL != "" {
		app.relay, err = realtime.NewRedisRelayFromURL(app.cfg.Realtime.RedisURL, app.changes, logging.Component("relay"))
		if err != nil {
			return err
		}
		if err := app.relay.Start(ctx); err != nil {
			return fmt.Errorf("failed to start redis relay: %w", err)
		}
		publisher = app.relay
		app.logger.Info("Sharing change notifications through Redis")
	}

	if app.db.Driver == database.DriverPostgres {
		app.listener, err = realtime.NewPostgresListener(app.cfg.Storage.DSN, app.changes, logging.Component("pg-listener"))
		if err != nil {
			return err
		}
		app.listener.Start(ctx)
	}

	app.metrics = metrics.New(prometheus.DefaultRegisterer)
	app.repos = repositories.NewRepositories(app.db, publisher)
	app.services = services.NewServices(app.repos, app.changes, services.Options{
		Location:   loc,
		FeedLimit:  app.cfg.Feed.Limit,
		FilePrefix: app.cfg.Export.FilePrefix,
		Metrics:    app.metrics,
		Logger:     app.logger,
	})
	if err := app.services.Feed.Start(ctx); err != nil {
		return fmt.Errorf("failed to start feed: %w", err)
	}

	var provider authenticator.Provider
	if app.cfg.Auth.Enabled {
		provider, err = authenticator.NewOpenIDProvider(ctx, authenticator.Config{
			IssuerURL:    app.cfg.Auth.IssuerURL,
			ClientID:     app.cfg.Auth.ClientID,
			ClientSecret: app.cfg.Auth.ClientSecret,
			RedirectURL:  app.cfg.Auth.RedirectURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize OpenID provider: %w", err)
		}
	}

	ctrl := controllers.NewControllers(app.services, provider, controllers.Options{
		Title:             app.cfg.App.Title,
		Subtitle:          app.cfg.App.Subtitle,
		AuthEnabled:       app.cfg.Auth.Enabled,
		HeartbeatInterval: app.cfg.Realtime.HeartbeatInterval,
		RetryMillis:       app.cfg.Realtime.RetryMillis,
		Metrics:           app.metrics,
		Logger:            app.logger,
	})

	router, err := setupRouter(ctrl, app.repos.Audit, app.db, app.metrics, app.cfg, app.logger)
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:         app.cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
	}
	// Open event streams end when the feed closes, letting Shutdown finish
	app.server.RegisterOnShutdown(app.services.Feed.Close)

	return nil
}

// run serves until ctx is cancelled, then shuts down gracefully
func (app *application) run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		app.logger.WithFields(logrus.Fields{
			"addr":    app.server.Addr,
			"storage": app.db.Driver,
		}).Info("Diesel log starting")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// close releases resources in reverse order of construction
func (app *application) close() {
	if app.services != nil {
		app.services.Feed.Close()
	}
	if app.listener != nil {
		if err := app.listener.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close postgres listener")
		}
	}
	if app.relay != nil {
		if err := app.relay.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close redis relay")
		}
	}
	if app.changes != nil {
		app.changes.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close database")
		}
	}
}
