// cmd/server/main.go
// This is the entry point for the Gym API server.
// The "serve" action (the default) connects to the database, optionally applies
// migrations, and exposes every stored procedure over HTTP. The "hash-password"
// command prints a bcrypt hash, which is handy when seeding or rotating credential rows.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/trentd187/gym-api/internal/auth"
	"github.com/trentd187/gym-api/internal/config"
	"github.com/trentd187/gym-api/internal/database"
	"github.com/trentd187/gym-api/internal/handlers"
	"github.com/trentd187/gym-api/internal/logging"
	"github.com/trentd187/gym-api/internal/metrics"
	"github.com/trentd187/gym-api/internal/server"
)

func main() {
	app := &cli.App{
		Name:            "gym-api",
		Usage:           "REST gateway over the gym database's stored procedures",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "TCP port to listen on (overrides PORT)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn, error (overrides LOG_LEVEL)",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:      "hash-password",
				Usage:     "print the bcrypt hash of a password (argument, or first line of stdin)",
				ArgsUsage: "[password]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "cost",
						Usage:   "bcrypt work factor",
						Value:   bcrypt.DefaultCost,
						EnvVars: []string{"BCRYPT_COST"},
					},
				},
				Action: hashPassword,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// serve loads configuration, wires the pool, gateway and HTTP server, and blocks
// until the listener fails or SIGINT/SIGTERM arrives.
func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Port = c.String("port")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	// --- Database ---
	db, err := database.Connect(database.Options{
		Driver:          cfg.DatabaseDriver,
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}()

	if cfg.MigrationsURL != "" {
		logger.Info("running migrations", zap.String("source", cfg.MigrationsURL))
		if err := database.RunMigrations(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.MigrationsURL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	dialect, err := database.DialectFor(cfg.DatabaseDriver)
	if err != nil {
		return err
	}
	caller := database.NewCaller(db, dialect, database.CallerOptions{
		Timeout:     cfg.CallTimeout,
		UnsetAsNull: cfg.UnsetFilter == config.UnsetFilterNull,
	})

	// --- Gateway ---
	m := metrics.New()
	gateway := handlers.NewGateway(handlers.Options{
		Caller:         m.Instrument(caller),
		Hasher:         auth.NewHasher(cfg.BcryptCost),
		Issuer:         auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		PasswordColumn: cfg.PasswordColumn,
		Logger:         logger.Named("gateway"),
	})

	app := server.New(server.Options{
		Gateway:          gateway,
		Logger:           logger.Named("http"),
		Pinger:           caller,
		Metrics:          m.Handler(),
		CORSOrigins:      cfg.CORSOrigins,
		BodyLimit:        cfg.BodyLimit,
		ReadinessTimeout: cfg.ReadinessTimeout,
		Production:       cfg.IsProduction(),
		AccessLog:        true,
	})

	// --- Listen until signalled ---
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Port),
			zap.String("driver", cfg.DatabaseDriver),
			zap.String("env", cfg.Env),
		)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		return app.ShutdownWithTimeout(cfg.ShutdownTimeout)
	}
}

// hashPassword prints the bcrypt hash of its argument or of the first stdin line.
func hashPassword(c *cli.Context) error {
	password := c.Args().First()
	if password == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no password given")
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.NewHasher(c.Int("cost")).Hash(password)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, hash)
	return nil
}
