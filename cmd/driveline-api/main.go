package main

import (
	"context"
	"os"

	"github.com/aferraz/driveline/pkg/cmd"
	"github.com/aferraz/driveline/pkg/config"
	"github.com/aferraz/driveline/pkg/log"
	"github.com/aferraz/driveline/pkg/otelhelper"
	"github.com/aferraz/driveline/pkg/scheduler"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9090

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "driveline-api",
		Usage:                 "Run automations on storage-provider change events",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (postgres:// or a file-storage root)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the resume run guard (in-process guard when empty)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "cron-api-url",
				Usage:   "Base URL of the external cron scheduling service",
				Sources: cli.EnvVars("CRON_API_URL"),
			},
			&cli.StringFlag{
				Name:    "cron-api-key",
				Usage:   "API key for the external cron scheduling service",
				Sources: cli.EnvVars("CRON_JOB_KEY"),
			},
			&cli.StringFlag{
				Name:    "public-url",
				Usage:   "Externally reachable base URL for resume callbacks",
				Sources: cli.EnvVars("PUBLIC_URL"),
			},
			&cli.StringFlag{
				Name:    "seed-file",
				Usage:   "YAML file provisioning accounts at startup",
				Sources: cli.EnvVars("SEED_FILE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Driveline API")

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			if seedPath := command.String("seed-file"); seedPath != "" {
				seed, err := config.LoadSeed(seedPath)
				if err != nil {
					return err
				}

				if err := seed.Apply(ctx, persistence); err != nil {
					return err
				}

				logger.InfoContext(ctx, "Applied seed file", "path", seedPath, "accounts", len(seed.Accounts))
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger)
			runGuard := cmd.NewRunGuard(command.String("redis-url"))

			var sched scheduler.Scheduler
			if cronURL := command.String("cron-api-url"); cronURL != "" {
				sched = scheduler.NewClient(cronURL, command.String("cron-api-key"), command.String("public-url"))
			}

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
				runGuard,
				sched,
			)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "driveline-api")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracer", "error", err)
				} else {
					api.tracer = tracer
				}
			}

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
