// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/assessor/internal/app/store/audit"
	"github.com/dalemusser/assessor/internal/app/store/sheetkeys"
	"github.com/dalemusser/assessor/internal/app/system/auditlog"
	"github.com/dalemusser/assessor/internal/app/system/distributor"
	"github.com/dalemusser/assessor/internal/app/system/googleauth"
	"github.com/dalemusser/assessor/internal/app/system/gsheets"
	"github.com/dalemusser/assessor/internal/app/system/roster"
	"go.uber.org/zap"
)

// BuildOptions selects the optional backends BuildDeps creates.
type BuildOptions struct {
	// Google authenticates and builds the spreadsheet client.
	Google bool
}

// BuildDeps connects the configured backends. On error everything already
// opened is closed again.
func BuildDeps(ctx context.Context, cfg AppConfig, opts BuildOptions, logger *zap.Logger) (Deps, error) {
	deps, err := ConnectDB(ctx, cfg, logger)
	if err != nil {
		return Deps{}, err
	}
	fail := func(err error) (Deps, error) {
		_ = Shutdown(context.Background(), deps, logger)
		return Deps{}, err
	}

	if err := EnsureSchema(ctx, cfg, deps, logger); err != nil {
		return fail(err)
	}

	switch cfg.StorageType {
	case sheetkeys.BackendMongo:
		deps.Keys = sheetkeys.NewMongoStore(deps.MongoDatabase, cfg.KeysPath())
	case sheetkeys.BackendSQLite:
		s, err := sheetkeys.OpenSQLite(cfg.SQLiteFile(), cfg.KeysPath())
		if err != nil {
			return fail(err)
		}
		deps.Keys = s
	default:
		s, err := sheetkeys.NewFileStore(cfg.KeysPath())
		if err != nil {
			return fail(err)
		}
		deps.Keys = s
	}

	auditCfg := auditlog.Config{Setting: cfg.AuditLog}
	if deps.MongoDatabase != nil {
		deps.Audit = auditlog.New(audit.New(deps.MongoDatabase), logger, auditCfg)
	} else {
		deps.Audit = auditlog.New(nil, logger, auditCfg)
	}

	if opts.Google {
		ts, err := googleauth.TokenSource(ctx, googleauth.Config{
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			CredentialsFile:    cfg.GoogleCredentialsFile,
			TokenFile:          cfg.TokenPath(),
			CallbackPort:       cfg.OAuthCallbackPort,
		}, logger)
		if err != nil {
			return fail(fmt.Errorf("google credentials: %w", err))
		}
		deps.Google = gsheets.New(ts, gsheets.Options{
			Header:              cfg.HeaderRows,
			AddMissingWorksheet: cfg.AddMissingWorksheet,
		}, logger)
	}

	logger.Debug("dependencies ready",
		zap.String("storage_type", cfg.StorageType),
		zap.Bool("google", deps.Google != nil))
	return deps, nil
}

// LoadRoster reads the configured roster. A remote roster needs deps.Tables
// or the Google client.
func LoadRoster(ctx context.Context, cfg AppConfig, deps Deps) (*roster.Roster, error) {
	src := cfg.RosterSource()
	tr := deps.Tables
	if tr == nil && deps.Google != nil {
		tr = deps.Google
	}
	if src.Remote() && tr == nil {
		return nil, fmt.Errorf("%w: a spreadsheet roster needs google credentials", roster.ErrBadSource)
	}
	rctx, cancel := deps.Timeouts.MediumCtx(ctx)
	defer cancel()
	return roster.Load(rctx, src, tr)
}

// NewDistributor builds the distributor for cfg over r. client is usually
// deps.Google; commands that never touch a spreadsheet may pass any
// DocumentClient.
func NewDistributor(ctx context.Context, cfg AppConfig, deps Deps, r *roster.Roster, client distributor.DocumentClient, logger *zap.Logger) (*distributor.Distributor, error) {
	return distributor.New(ctx, distributor.Config{
		Roster:    r,
		Store:     deps.Keys,
		Client:    client,
		Title:     cfg.SpreadsheetTitle,
		Worksheet: cfg.WorksheetName,
		Suffix:    cfg.Suffix,
		Audit:     deps.Audit,
		Timeouts:  deps.Timeouts,
		Logger:    logger,
	})
}
