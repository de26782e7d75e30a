// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/assessor/internal/app/store/sheetkeys"
	"github.com/dalemusser/assessor/internal/app/system/auditlog"
	"github.com/dalemusser/assessor/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// needsMongo reports whether cfg uses MongoDB for keys or audit events.
func needsMongo(cfg AppConfig) bool {
	return cfg.StorageType == sheetkeys.BackendMongo ||
		cfg.AuditLog == auditlog.SettingAll ||
		cfg.AuditLog == auditlog.SettingDB
}

// ConnectDB connects to MongoDB when the configuration needs it.
func ConnectDB(ctx context.Context, cfg AppConfig, logger *zap.Logger) (Deps, error) {
	deps := Deps{Timeouts: cfg.Timeouts()}
	if !needsMongo(cfg) {
		return deps, nil
	}

	cctx, cancel := deps.Timeouts.StoreCtx(ctx)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return deps, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return deps, fmt.Errorf("ping MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	deps.MongoClient = client
	deps.MongoDatabase = client.Database(cfg.MongoDatabase)
	return deps, nil
}

// EnsureSchema creates the indexes used by the Mongo-backed stores.
func EnsureSchema(ctx context.Context, cfg AppConfig, deps Deps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	sctx, cancel := deps.Timeouts.StoreCtx(ctx)
	defer cancel()

	set := indexes.Set{
		SheetKeys: cfg.StorageType == sheetkeys.BackendMongo,
		Audit:     cfg.AuditLog == auditlog.SettingAll || cfg.AuditLog == auditlog.SettingDB,
	}
	if err := indexes.EnsureAll(sctx, deps.MongoDatabase, set, logger); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Debug("indexes ensured")
	return nil
}
