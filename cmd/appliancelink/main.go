// ApplianceLink - Cloud Appliance Bridge
//
// This is the main entry point for the ApplianceLink service. ApplianceLink
// binds cloud-connected home appliances (ovens, dishwashers, washers and
// friends) to a smart-home host over MQTT:
//   - Push events and polling reconciled into one state mirror per appliance
//   - Retained channel values published for late-joining hosts
//   - Host commands translated into cloud API calls
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homefleet/appliancelink/internal/appliance"
	"github.com/homefleet/appliancelink/internal/bridge"
	"github.com/homefleet/appliancelink/internal/cloudapi"
	"github.com/homefleet/appliancelink/internal/history"
	"github.com/homefleet/appliancelink/internal/infrastructure/config"
	"github.com/homefleet/appliancelink/internal/infrastructure/database"
	"github.com/homefleet/appliancelink/internal/infrastructure/influxdb"
	"github.com/homefleet/appliancelink/internal/infrastructure/logging"
	"github.com/homefleet/appliancelink/internal/infrastructure/mqtt"
	"github.com/homefleet/appliancelink/internal/registry"
	"github.com/homefleet/appliancelink/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// historyRetention is how long channel history rows are kept; pruning runs
// periodically in the background.
const (
	historyRetention     = 30 * 24 * time.Hour
	historyPruneInterval = 12 * time.Hour
)

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ApplianceLink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx, migrations.Files); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	historyRepo := history.NewSQLiteRepository(db.DB)
	registryRepo := registry.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Cloud API client
	cloudClient := cloudapi.New(cfg.Cloud)
	cloudClient.SetLogger(log)

	// Channel value sink: MQTT + history, plus telemetry when enabled
	qos := byte(cfg.MQTT.QoS) // #nosec G115 -- validated to 0..2 by config
	sinkOpts := bridge.SinkOptions{
		Publisher: mqttClient,
		Recorder:  historyRepo,
		Logger:    log,
		QoS:       qos,
	}
	if influxClient != nil {
		sinkOpts.Telemetry = influxClient
	}
	sink := bridge.NewSink(sinkOpts)

	// Session manager and MQTT command bridge
	manager := appliance.NewManager(cloudClient, sink, log)
	bridgeOpts := bridge.Options{
		Subscriber: mqttClient,
		Publisher:  mqttClient,
		Router:     manager,
		Store:      registryRepo,
		Logger:     log,
		QoS:        qos,
	}
	if influxClient != nil {
		bridgeOpts.Telemetry = influxClient
	}
	br := bridge.New(bridgeOpts)
	if err := br.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("command bridge started")

	// Discover and register appliances
	if err := discoverAppliances(ctx, cloudClient, manager, br, registryRepo, log); err != nil {
		return fmt.Errorf("discovering appliances: %w", err)
	}

	// Background polling reconciles drift the event stream missed
	go manager.Poll(ctx, cfg.GetPollInterval())
	log.Info("polling started", "interval", cfg.GetPollInterval())

	// Background history pruning
	go pruneHistory(ctx, historyRepo, log)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. MQTT
	// 3. Database

	log.Info("ApplianceLink stopped")
	return nil
}

// discoverAppliances lists the cloud account's appliances, registers a
// session per supported kind and starts its event stream. Unsupported
// appliance types are skipped with a log line.
func discoverAppliances(
	ctx context.Context,
	cloudClient *cloudapi.Client,
	manager *appliance.Manager,
	br *bridge.Bridge,
	registryRepo *registry.SQLiteRepository,
	log *logging.Logger,
) error {
	appliances, err := cloudClient.ListAppliances(ctx)
	if err != nil {
		return fmt.Errorf("listing appliances: %w", err)
	}
	log.Info("appliance listing fetched", "count", len(appliances))

	for _, meta := range appliances {
		session, err := manager.Register(meta)
		if err != nil {
			if errors.Is(err, appliance.ErrUnsupportedKind) {
				log.Info("skipping unsupported appliance",
					"ha_id", meta.HaID,
					"type", meta.Type,
				)
				continue
			}
			return fmt.Errorf("registering %s: %w", meta.HaID, err)
		}

		if err := registryRepo.Upsert(ctx, meta); err != nil {
			log.Error("persisting appliance metadata", "ha_id", meta.HaID, "error", err)
		}
		if err := br.PublishDiscovery(meta, session.Channels()); err != nil {
			log.Error("publishing discovery", "ha_id", meta.HaID, "error", err)
		}
		if err := br.PublishAvailability(meta.HaID, meta.Connected); err != nil {
			log.Error("publishing availability", "ha_id", meta.HaID, "error", err)
		}

		if meta.Connected {
			session.RefreshAll(ctx)
		}

		go streamEvents(ctx, cloudClient, manager, br, meta.HaID, log)

		log.Info("appliance registered",
			"ha_id", meta.HaID,
			"type", meta.Type,
			"connected", meta.Connected,
		)
	}

	return nil
}

// streamEvents runs one appliance's push event loop until shutdown,
// reconnecting after the configured delay when the stream drops.
func streamEvents(
	ctx context.Context,
	cloudClient *cloudapi.Client,
	manager *appliance.Manager,
	br *bridge.Bridge,
	haID string,
	log *logging.Logger,
) {
	for {
		err := cloudClient.StreamEvents(ctx, haID, func(ev appliance.Event) {
			manager.HandleEvent(ctx, haID, ev)

			// Mirror connectivity transitions onto the availability topic,
			// the telemetry store, and the stored metadata.
			switch ev.Key {
			case appliance.KeyConnected, appliance.KeyDisconnected:
				online := ev.Key == appliance.KeyConnected
				if connErr := br.HandleConnectivity(ctx, haID, online); connErr != nil {
					log.Error("publishing availability", "ha_id", haID, "error", connErr)
				}
			}
		})
		if ctx.Err() != nil {
			return
		}

		log.Warn("event stream interrupted, reconnecting",
			"ha_id", haID,
			"retry_delay", cloudClient.RetryDelay(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(cloudClient.RetryDelay()):
		}
	}
}

// pruneHistory periodically deletes channel history older than the
// retention window.
func pruneHistory(ctx context.Context, repo *history.SQLiteRepository, log *logging.Logger) {
	ticker := time.NewTicker(historyPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.Prune(ctx, historyRetention)
			if err != nil {
				log.Error("pruning channel history", "error", err)
				continue
			}
			if deleted > 0 {
				log.Info("channel history pruned", "rows", deleted)
			}
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses APPLIANCELINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("APPLIANCELINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
