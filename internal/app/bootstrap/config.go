// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/assessor/internal/app/store/sheetkeys"
	"github.com/dalemusser/assessor/internal/app/system/auditlog"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes environment variable overrides (ASSESSOR_CLASS_INFO_DIR).
const EnvPrefix = "ASSESSOR"

// ErrNoConfig is returned when none of the configuration files exists.
var ErrNoConfig = errors.New("no configuration file found")

// configKey describes one configuration key and its default.
type configKey struct {
	Name    string
	Default any
	Desc    string
}

var appConfigKeys = []configKey{
	{Name: "class_info_dir", Default: "", Desc: "Directory holding the roster and spreadsheet keys"},
	{Name: "roster", Default: "class_list.csv", Desc: "Roster file name"},
	{Name: "roster_sep", Default: ",", Desc: "Roster field delimiter"},
	{Name: "roster_sheet_key", Default: "", Desc: "Spreadsheet holding the roster (instead of a file)"},
	{Name: "roster_worksheet", Default: "", Desc: "Worksheet holding the roster"},

	{Name: "keys_file", Default: "spreadsheet_keys.yml", Desc: "Participant to spreadsheet mapping file"},
	{Name: "spreadsheet_title", Default: "Google Spreadsheet", Desc: "Base title for created spreadsheets"},
	{Name: "worksheet_name", Default: "Sheet1", Desc: "Worksheet used in every participant spreadsheet"},
	{Name: "header_rows", Default: 2, Desc: "Header rows above the body"},
	{Name: "add_missing_worksheet", Default: false, Desc: "Add the worksheet to spreadsheets that lack it"},
	{Name: "suffix", Default: "1", Desc: "Suffix for duplicate display names when reading"},

	{Name: "storage_type", Default: sheetkeys.BackendFile, Desc: "Key mapping storage: 'file', 'mongo' or 'sqlite'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "assessor", Desc: "MongoDB database name"},
	{Name: "sqlite_path", Default: "", Desc: "SQLite database for the sqlite backend"},

	{Name: "google_credentials_file", Default: "", Desc: "OAuth client JSON for the installed-app flow"},
	{Name: "google_service_account_file", Default: "", Desc: "Service account key JSON"},
	{Name: "google_token_file", Default: "", Desc: "Cached OAuth token"},
	{Name: "oauth_callback_port", Default: 0, Desc: "Loopback port for the OAuth redirect (0 picks one)"},

	{Name: "remote_timeout", Default: "0s", Desc: "Base timeout for remote calls (0 keeps the defaults)"},

	{Name: "audit_log", Default: auditlog.SettingLog, Desc: "Distribution events: 'all', 'db', 'log' or 'off'"},
	{Name: "log_level", Default: "info", Desc: "Log level"},
	{Name: "log_format", Default: "console", Desc: "Log format: 'json' or 'console'"},

	{Name: "course", Default: "", Desc: "Course short name for notebook downloads"},
	{Name: "notebook_repo", Default: "", Desc: "GitHub path notebooks are downloaded from"},
}

// Layers lists the configuration files in increasing precedence and the
// optional .env file loaded before them.
type Layers struct {
	Defaults string
	Machine  string
	User     string
	DotEnv   string
}

// DefaultLayers returns defaults.yml next to the executable, the per-machine
// file under the user config directory, and ./_assessor.yml.
func DefaultLayers() Layers {
	var l Layers
	if exe, err := os.Executable(); err == nil {
		l.Defaults = filepath.Join(filepath.Dir(exe), "defaults.yml")
	}
	if dir, err := os.UserConfigDir(); err == nil {
		l.Machine = filepath.Join(dir, "assessor", "machine.yml")
	}
	l.User = "_assessor.yml"
	l.DotEnv = ".env"
	return l
}

// Files returns the configured layer files in load order.
func (l Layers) Files() []string {
	var out []string
	for _, f := range []string{l.Defaults, l.Machine, l.User} {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// BindFlags registers a flag for every configuration key on fs.
func BindFlags(fs *pflag.FlagSet) {
	for _, k := range appConfigKeys {
		if fs.Lookup(k.Name) != nil {
			continue
		}
		switch d := k.Default.(type) {
		case int:
			fs.Int(k.Name, d, k.Desc)
		case bool:
			fs.Bool(k.Name, d, k.Desc)
		default:
			fs.String(k.Name, fmt.Sprint(d), k.Desc)
		}
	}
}

// LoadConfig merges the configuration layers, ASSESSOR_* environment
// variables and any flags on fs that were set explicitly, in that order of
// increasing precedence. It fails with ErrNoConfig when no layer file
// exists.
func LoadConfig(logger *zap.Logger, layers Layers, fs *pflag.FlagSet) (AppConfig, error) {
	if layers.DotEnv != "" {
		if err := godotenv.Load(layers.DotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("load %s: %w", layers.DotEnv, err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for _, k := range appConfigKeys {
		v.SetDefault(k.Name, k.Default)
	}

	found := 0
	for _, path := range layers.Files() {
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return AppConfig{}, fmt.Errorf("open %s: %w", path, err)
		}
		err = v.MergeConfig(f)
		f.Close()
		if err != nil {
			return AppConfig{}, fmt.Errorf("parse %s: %w", path, err)
		}
		logger.Debug("loaded config layer", zap.String("path", path))
		found++
	}
	if found == 0 {
		return AppConfig{}, fmt.Errorf("%w: looked for %s", ErrNoConfig, strings.Join(layers.Files(), ", "))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if fs != nil {
		for _, k := range appConfigKeys {
			if f := fs.Lookup(k.Name); f != nil && f.Changed {
				if err := v.BindPFlag(k.Name, f); err != nil {
					return AppConfig{}, err
				}
			}
		}
	}

	cfg := AppConfig{
		ClassInfoDir:    expandPath(v.GetString("class_info_dir")),
		Roster:          v.GetString("roster"),
		RosterSep:       v.GetString("roster_sep"),
		RosterSheetKey:  v.GetString("roster_sheet_key"),
		RosterWorksheet: v.GetString("roster_worksheet"),

		KeysFile:            v.GetString("keys_file"),
		SpreadsheetTitle:    v.GetString("spreadsheet_title"),
		WorksheetName:       v.GetString("worksheet_name"),
		HeaderRows:          v.GetInt("header_rows"),
		AddMissingWorksheet: v.GetBool("add_missing_worksheet"),
		Suffix:              v.GetString("suffix"),

		StorageType:   strings.ToLower(strings.TrimSpace(v.GetString("storage_type"))),
		MongoURI:      v.GetString("mongo_uri"),
		MongoDatabase: v.GetString("mongo_database"),
		SQLitePath:    v.GetString("sqlite_path"),

		GoogleCredentialsFile:    expandPath(v.GetString("google_credentials_file")),
		GoogleServiceAccountFile: expandPath(v.GetString("google_service_account_file")),
		GoogleTokenFile:          v.GetString("google_token_file"),
		OAuthCallbackPort:        v.GetInt("oauth_callback_port"),

		RemoteTimeout: v.GetDuration("remote_timeout"),

		AuditLog:  strings.ToLower(v.GetString("audit_log")),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),

		Course:       v.GetString("course"),
		NotebookRepo: v.GetString("notebook_repo"),
	}
	return cfg, nil
}

// ValidateConfig rejects configurations that cannot work before anything
// touches the network or the key store.
func ValidateConfig(cfg AppConfig, logger *zap.Logger) error {
	if strings.TrimSpace(cfg.ClassInfoDir) == "" {
		return errors.New("class_info_dir is required")
	}
	if !sheetkeys.ValidBackend(cfg.StorageType) {
		return fmt.Errorf("storage_type must be one of %v, got %q", sheetkeys.Backends, cfg.StorageType)
	}
	if cfg.StorageType == sheetkeys.BackendMongo || cfg.AuditLog == auditlog.SettingDB || cfg.AuditLog == auditlog.SettingAll {
		if err := wafflemongo.ValidateURI(cfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	}
	switch cfg.AuditLog {
	case auditlog.SettingAll, auditlog.SettingDB, auditlog.SettingLog, auditlog.SettingOff:
	default:
		return fmt.Errorf("audit_log must be 'all', 'db', 'log' or 'off', got %q", cfg.AuditLog)
	}
	if utf8.RuneCountInString(cfg.RosterSep) > 1 {
		return fmt.Errorf("roster_sep must be a single character, got %q", cfg.RosterSep)
	}
	if cfg.HeaderRows < 1 {
		return fmt.Errorf("header_rows must be at least 1, got %d", cfg.HeaderRows)
	}
	if err := cfg.RosterSource().Validate(); err != nil {
		return err
	}
	return nil
}
