// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/assessor/internal/app/store/sheetkeys"
	"github.com/dalemusser/assessor/internal/app/system/auditlog"
	"github.com/dalemusser/assessor/internal/app/system/gsheets"
	"github.com/dalemusser/assessor/internal/app/system/roster"
	"github.com/dalemusser/assessor/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// Deps holds the backends built from an AppConfig.
type Deps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Keys     sheetkeys.KeyStore
	Audit    *auditlog.Logger
	Google   *gsheets.Client // nil unless requested
	Timeouts timeouts.Timeouts

	// Tables reads a remote roster. Defaults to Google when unset.
	Tables roster.TableReader
}
