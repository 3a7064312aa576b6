package cmd

import (
	"fmt"

	"orgunit-sync/core/config"
	"orgunit-sync/core/database"
	"orgunit-sync/core/logger"
	"orgunit-sync/core/storage"
	"orgunit-sync/feature/orgunit/models"
	"orgunit-sync/feature/orgunit/snapshot"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime bundles what every command needs.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	resolver snapshot.Resolver
	// httpResolver serves API callers; file references stay inside Snapshot.Dir.
	httpResolver snapshot.Resolver
}

// bootstrap loads configuration, builds the logger and the snapshot resolver,
// and connects to the database. A failed connection is fatal only when requireDB is set.
func bootstrap(requireDB bool) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Minio connects lazily, so a client is cheap to build even when unused.
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		logg.Warn("Object storage unavailable, s3:// snapshots disabled", zap.Error(err))
	}

	rt := &runtime{
		cfg:    cfg,
		logger: logg,
		resolver: snapshot.Resolver{
			FS:     afero.NewOsFs(),
			Client: client,
			Bucket: cfg.Storage.Bucket,
		},
		httpResolver: snapshot.Resolver{
			FS:       afero.NewBasePathFs(afero.NewOsFs(), cfg.Snapshot.Dir),
			Client:   client,
			Bucket:   cfg.Storage.Bucket,
			Confined: true,
		},
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		if requireDB {
			return nil, &models.ConnectivityError{Err: err}
		}
		logg.Warn("Optional database connection failed", zap.Error(err))
		return rt, nil
	}

	rt.db = db
	rt.logger = logg.With(zap.String("driver", cfg.Database.Driver))
	rt.logger.Info("Connected to database", zap.String("name", cfg.Database.Name))
	return rt, nil
}

// close releases the database connection and flushes the logger.
func (rt *runtime) close() {
	if rt.db != nil {
		if err := database.Close(rt.db); err != nil {
			rt.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
	_ = rt.logger.Sync()
}
