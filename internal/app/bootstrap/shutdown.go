// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Shutdown closes the key store and the MongoDB client.
func Shutdown(ctx context.Context, deps Deps, logger *zap.Logger) error {
	var errs []error
	if deps.Keys != nil {
		if err := deps.Keys.Close(ctx); err != nil {
			logger.Error("closing key store failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if deps.MongoClient != nil {
		logger.Debug("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
