package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-credentials"
	"github.com/goliatone/go-credentials/config"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/bun"
)

type App struct {
	config   *config.Config
	db       *bun.DB
	repo     auth.RepositoryManager
	workflow *auth.Workflow
	registry *prometheus.Registry
	srv      router.Server[*fiber.App]
	logger   *auth.GlogLogger
}

func main() {
	configPath := flag.String("config", os.Getenv("AUTH_CONFIG_FILE"), "path to a json or yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail("load config", err)
	}

	if err := cfg.Validate(); err != nil {
		fail("invalid config", err)
	}

	app := &App{
		config: cfg,
		logger: auth.NewGlogLogger(newLogger(cfg.Log).GetLogger("auth")),
	}

	if cfg.Server.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(redacted(*cfg)))
		fmt.Println("============")
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		fail("persistence", err)
	}
	defer app.db.Close()

	if err := WithWorkflow(app); err != nil {
		fail("workflow", err)
	}

	WithHTTPServer(app)

	go func() {
		app.logger.Info("listening on %s", cfg.Server.Addr)
		if err := app.srv.Serve(cfg.Server.Addr); err != nil {
			app.logger.Error("server stopped: %v", err)
		}
	}()

	sig := WaitExitSignal()
	app.logger.Info("received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := app.srv.Shutdown(ctx); err != nil {
		app.logger.Error("shutdown: %v", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := auth.OpenDB(app.config.Database.Driver, app.config.Database.DSN)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if app.config.Database.Migrate {
		if err := auth.Migrate(ctx, db, app.logger); err != nil {
			return err
		}
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	app.db = db
	app.repo = repo
	return nil
}

func WithWorkflow(app *App) error {
	cfg := app.config

	issuer, err := auth.NewTokenIssuer(cfg.TokenConfig(), auth.WithTokenLogger(app.logger))
	if err != nil {
		return err
	}

	store := auth.NewBunCredentialStore(app.repo).
		WithPasswordPolicy(cfg.Password).
		WithSignInOptions(cfg.SignIn).
		WithHasher(auth.BcryptHasher{Cost: cfg.HashCost}).
		WithHashidIDs(cfg.Database.UseHashid).
		WithLogger(app.logger)

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.workflow = auth.NewWorkflow(store, issuer).
		WithLogger(app.logger).
		WithActivitySink(auth.NewMetricsSink(app.registry))

	return nil
}

func WithHTTPServer(app *App) {
	app.srv = auth.NewHTTPServer(app.workflow, auth.HTTPOptions{
		Debug:     app.config.Server.Debug,
		AccessLog: app.config.Server.AccessLog,
		Logger:    app.logger,
		Gatherer:  app.registry,
	})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}

func newLogger(cfg config.Log) *glog.BaseLogger {
	opts := []glog.Option{
		glog.WithLevel(cfg.Level),
		glog.WithName("credentials"),
		glog.WithAddSource(false),
	}

	switch cfg.Format {
	case "text":
		opts = append(opts, glog.WithLoggerTypeConsole())
	case "pretty":
		opts = append(opts, glog.WithLoggerTypePretty())
	default:
		opts = append(opts, glog.WithLoggerTypeJSON())
	}

	return glog.NewLogger(opts...)
}

func redacted(cfg config.Config) config.Config {
	if cfg.JWT.SigningKey != "" {
		cfg.JWT.SigningKey = "********"
	}
	return cfg
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "credentials: %s: %v\n", step, err)
	os.Exit(1)
}
