package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stobo-app/pilot/internal/config"
	"github.com/stobo-app/pilot/internal/logger"
	"github.com/stobo-app/pilot/internal/metrics"
	"github.com/stobo-app/pilot/internal/session"
	"github.com/stobo-app/pilot/internal/store"
	"github.com/stobo-app/pilot/internal/transport"
)

// runtime is everything a command needs to drive a session.
type runtime struct {
	cfg config.Config
	log *logrus.Logger
	db  *gorm.DB

	deviceID string
	manager  *session.Manager
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return config.Config{}, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.deviceID != "" {
		cfg.DeviceID = flags.deviceID
	}
	if flags.dataPath != "" {
		cfg.DataPath = flags.dataPath
	}
	if flags.metricsAddr != "" {
		cfg.MetricsAddr = flags.metricsAddr
	}
	return cfg, cfg.Validate()
}

func openDevices(cfg config.Config) (*gorm.DB, *store.DeviceStore, error) {
	db, err := store.Open(cfg.DataPath)
	if err != nil {
		return nil, nil, err
	}
	return db, store.NewDeviceStore(db), nil
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, devices, err := openDevices(cfg)
	if err != nil {
		return nil, err
	}

	deviceID := cfg.DeviceID
	if deviceID == "" {
		deviceID, err = devices.GetOrCreateDeviceID(ctx)
		if err != nil {
			_ = store.Close(db)
			return nil, err
		}
	}

	network := transport.NewLAN(cfg.Transport(), log)
	mgr, err := session.New(cfg.Session(network, deviceID, log))
	if err != nil {
		_ = store.Close(db)
		return nil, fmt.Errorf("creating session: %w", err)
	}

	log.Debugf("Device ID: %s", deviceID)
	return &runtime{cfg: cfg, log: log, db: db, deviceID: deviceID, manager: mgr}, nil
}

// start runs the manager, and the metrics endpoint when configured, until
// ctx is done. The returned channel closes once the manager has stopped.
func (r *runtime) start(ctx context.Context) <-chan struct{} {
	if r.cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, r.cfg.MetricsAddr, r.log); err != nil {
				r.log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.manager.Run(ctx)
	}()
	return done
}

func (r *runtime) close() {
	if err := store.Close(r.db); err != nil {
		r.log.WithError(err).Warn("Failed to close database")
	}
}
