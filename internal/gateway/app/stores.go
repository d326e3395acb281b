package app

import (
	"fmt"

	"contractcreator/internal/gateway/config"
	"contractcreator/internal/gateway/repository/snapshot"
	"contractcreator/internal/logging"
)

// initSnapshotStore picks the backend named in cfg. Remote backends get a
// read-through cache in front.
func initSnapshotStore(cfg config.SnapshotConfig, logger logging.Logger) (snapshot.Store, func() error, error) {
	switch cfg.Backend {
	case "file":
		logger.Infof("snapshot store: file %s", cfg.Path)
		return snapshot.NewFileStore(cfg.Path), nil, nil
	case "postgres", "sqlite":
		store, err := snapshot.OpenSQL(snapshot.Dialect(cfg.Backend), cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize snapshot %s store: %w", cfg.Backend, err)
		}
		logger.Infof("snapshot store: %s", cfg.Backend)
		return snapshot.NewCachedStore(store, snapshot.DefaultCacheConfig()), store.Close, nil
	case "s3":
		store, err := snapshot.NewS3Store(snapshot.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize snapshot s3 store: %w", err)
		}
		logger.Infof("snapshot store: s3 bucket=%s endpoint=%s", cfg.S3.Bucket, cfg.S3.Endpoint)
		return snapshot.NewCachedStore(store, snapshot.DefaultCacheConfig()), nil, nil
	default:
		logger.Infof("snapshot store: in-memory")
		return snapshot.NewMemoryStore(), nil, nil
	}
}
