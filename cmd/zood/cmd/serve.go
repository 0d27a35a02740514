package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kungfuzoo/zoo/internal/api"
	"github.com/kungfuzoo/zoo/internal/audit"
	"github.com/kungfuzoo/zoo/internal/config"
	"github.com/kungfuzoo/zoo/internal/events"
	"github.com/kungfuzoo/zoo/internal/metrics"
	"github.com/kungfuzoo/zoo/internal/observability"
	"github.com/kungfuzoo/zoo/internal/seed"
	"github.com/kungfuzoo/zoo/internal/store"
	"github.com/kungfuzoo/zoo/pkg/zoo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server (default command)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(cfg, logger)
	if err != nil {
		logger.Error("Failed to start", zap.Error(err))
		return err
	}

	return d.run(ctx)
}

// daemon owns every long-lived component of zood.
type daemon struct {
	cfg       *config.Config
	logger    *zap.Logger
	animals   store.Store[zoo.Animal]
	employees store.Store[zoo.Employee]
	obs       *observability.Observability
	bus       *events.Bus
	relay     *events.Relay
	stopRelay context.CancelFunc
	server    *api.Server
}

// newDaemon builds the stores, the optional tracing and event relay, and the
// API server. Nothing listens until run is called.
func newDaemon(cfg *config.Config, logger *zap.Logger) (*daemon, error) {
	d := &daemon{cfg: cfg, logger: logger}
	ready := false
	defer func() {
		if !ready {
			d.close(context.Background())
		}
	}()

	data, err := loadSeed(cfg.Seed)
	if err != nil {
		return nil, err
	}

	d.animals, err = store.New(cfg.Store.Backend, zoo.AnimalKind, data.Animals)
	if err != nil {
		return nil, fmt.Errorf("failed to create animal store: %w", err)
	}
	d.employees, err = store.New(cfg.Store.Backend, zoo.EmployeeKind, data.Employees)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee store: %w", err)
	}
	logger.Info("Stores ready",
		zap.String("backend", cfg.Store.Backend),
		zap.Int("animals", len(data.Animals)),
		zap.Int("employees", len(data.Employees)),
	)

	if cfg.Tracing.Enabled {
		d.obs, err = observability.NewObservability(observability.Config{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version,
			Writer:         os.Stdout,
			Logger:         logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.Events.Enabled {
		if err := d.startRelay(); err != nil {
			return nil, err
		}
	}

	d.server, err = api.NewServer(api.Config{
		Animals:       d.animals,
		Employees:     d.employees,
		Metrics:       metrics.NewCollector(logger),
		Audit:         audit.NewLogger(logger),
		Logger:        logger,
		Observability: d.obs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API server: %w", err)
	}

	ready = true
	return d, nil
}

func loadSeed(cfg config.SeedConfig) (*seed.Data, error) {
	switch {
	case cfg.Empty:
		return seed.Empty(), nil
	case cfg.File != "":
		return seed.Load(cfg.File)
	default:
		return seed.Default()
	}
}

func (d *daemon) startRelay() error {
	bus, err := events.NewBus(events.Config{
		Logger: d.logger,
		Port:   d.cfg.Events.Port,
		URL:    d.cfg.Events.NATSURL,
	})
	if err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	d.bus = bus

	ctx, cancel := context.WithCancel(context.Background())
	d.stopRelay = cancel
	d.relay = events.NewRelay(bus, d.logger)

	if err := events.Attach(ctx, d.relay, zoo.AnimalKind, d.animals); err != nil {
		return err
	}
	if err := events.Attach(ctx, d.relay, zoo.EmployeeKind, d.employees); err != nil {
		return err
	}

	d.logger.Info("Publishing record changes", zap.String("nats", bus.ClientURL()))
	return nil
}

// run serves until ctx is done, then shuts down within the configured timeout.
func (d *daemon) run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", d.cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("Starting API server", zap.String("addr", addr))
		if err := d.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		d.logger.Info("Shutting down...")
	case runErr = <-errCh:
		d.logger.Error("API server failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.Server.ShutdownTimeout)
	defer cancel()

	return errors.Join(runErr, d.close(shutdownCtx))
}

// close releases components in reverse order of construction.
func (d *daemon) close(ctx context.Context) error {
	var errs []error

	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("API server: %w", err))
		}
	}
	if d.stopRelay != nil {
		d.stopRelay()
		d.relay.Wait()
	}
	if d.bus != nil {
		errs = append(errs, d.bus.Close())
	}
	if d.animals != nil {
		errs = append(errs, d.animals.Close())
	}
	if d.employees != nil {
		errs = append(errs, d.employees.Close())
	}
	if d.obs != nil {
		errs = append(errs, d.obs.Shutdown(ctx))
	}

	return errors.Join(errs...)
}
