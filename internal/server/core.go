package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jjudge-oj/workbench/config"
	"github.com/jjudge-oj/workbench/internal/contest"
	"github.com/jjudge-oj/workbench/internal/events"
	"github.com/jjudge-oj/workbench/internal/execution"
	"github.com/jjudge-oj/workbench/internal/mq"
	"github.com/jjudge-oj/workbench/internal/orchestrator"
	"github.com/jjudge-oj/workbench/internal/platform"
	"github.com/jjudge-oj/workbench/internal/problems"
	"github.com/jjudge-oj/workbench/internal/solutions"
	"github.com/jjudge-oj/workbench/internal/storage"
)

// Core is the set of collaborators shared by the HTTP server and the CLI.
type Core struct {
	Platform     *platform.Client
	Executor     *execution.Client
	Solutions    *solutions.Synchronizer
	Problems     *problems.Client
	Directory    *contest.Directory
	Orchestrator *orchestrator.Orchestrator
	Registry     *orchestrator.Registry
	Bus          *events.Bus
	Archive      *storage.Archive

	// Broker and Relay are nil when no message broker is configured.
	Broker *mq.MQ
	Relay  *events.Relay

	Logger *slog.Logger
}

// NewCore connects every collaborator described by cfg. Clients use the
// configured platform token; callers with their own credential rebind them
// with WithToken.
func NewCore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Core, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := orchestrator.ParsePolicy(cfg.Workbench.SolvePolicy)
	if err != nil {
		return nil, err
	}

	api, err := platform.New(cfg.Platform.BaseURL,
		platform.WithTimeout(cfg.Platform.Timeout),
		platform.WithBearerToken(cfg.Platform.Token),
		platform.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(logger)
	synchronizer, err := solutions.New(solutions.NewHTTPTransport(api), bus, solutions.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	registry, err := orchestrator.NewRegistry(cfg.Workbench.SessionCacheSize)
	if err != nil {
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	archive, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		if broker != nil {
			_ = broker.Close()
		}
		return nil, err
	}

	executor := execution.NewClient(api, logger)
	directory := contest.NewDirectory(api, cfg.Workbench.ContestLocation)
	core := &Core{
		Platform:  api,
		Executor:  executor,
		Solutions: synchronizer,
		Problems:  problems.NewClient(api),
		Directory: directory,
		Orchestrator: orchestrator.New(executor, synchronizer,
			orchestrator.WithGate(contest.NewGate(directory)),
			orchestrator.WithArchive(archive),
			orchestrator.WithPolicy(policy),
			orchestrator.WithSaveNotice(cfg.Workbench.SaveNotice),
			orchestrator.WithLogger(logger),
		),
		Registry: registry,
		Bus:      bus,
		Archive:  archive,
		Broker:   broker,
		Logger:   logger,
	}
	if broker != nil {
		core.Relay = events.NewRelay(bus, broker, cfg.Workbench.SolvedChannel, logger)
	}

	logger.Debug("workbench core ready",
		"platform", cfg.Platform.BaseURL,
		"mq_backend", cfg.MQBackend,
		"storage_backend", cfg.StorageBackend,
		"solve_policy", string(policy),
	)
	return core, nil
}

// Announce forwards a solved event raised in this process to other
// processes. It is a no-op without a broker.
func (c *Core) Announce(ctx context.Context, ev events.SolvedEvent) error {
	if c.Relay == nil {
		return nil
	}
	if err := c.Relay.Forward(ctx, ev); err != nil {
		return fmt.Errorf("announce solved %s: %w", ev.Identity, err)
	}
	return nil
}

// Close releases the broker and the archive.
func (c *Core) Close() error {
	var errs []error
	if c.Broker != nil {
		errs = append(errs, c.Broker.Close())
	}
	errs = append(errs, c.Archive.Close())
	c.Registry.Purge()
	return errors.Join(errs...)
}
