// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/assessor/internal/app/system/roster"
	"github.com/dalemusser/assessor/internal/app/system/timeouts"
)

// AppConfig holds the resolved configuration for one assessor run.
//
// Values come from the layered YAML files, ASSESSOR_* environment variables
// and command-line flags (see LoadConfig). The value is passed explicitly to
// every component that needs it; nothing reads configuration globally.
type AppConfig struct {
	// Class information
	ClassInfoDir    string // directory holding the roster and key file (~ and $VARS expanded)
	Roster          string // roster file name, relative to ClassInfoDir unless absolute
	RosterSep       string // roster field delimiter (single character)
	RosterSheetKey  string // spreadsheet holding the roster, instead of a file
	RosterWorksheet string // worksheet in RosterSheetKey

	// Participant spreadsheets
	KeysFile            string // key mapping file name, relative to ClassInfoDir unless absolute
	SpreadsheetTitle    string // base title for created spreadsheets
	WorksheetName       string // worksheet created in and read from every spreadsheet
	HeaderRows          int    // header rows above the body
	AddMissingWorksheet bool   // add WorksheetName to spreadsheets that lack it
	Suffix              string // appended to duplicate display names in read results

	// Key mapping storage
	StorageType   string // file | mongo | sqlite
	MongoURI      string
	MongoDatabase string
	SQLitePath    string // defaults to <ClassInfoDir>/spreadsheet_keys.db

	// Google credentials
	GoogleCredentialsFile    string // OAuth client JSON (installed app)
	GoogleServiceAccountFile string // service account key JSON
	GoogleTokenFile          string // cached user token, defaults to <ClassInfoDir>/.google_token.json
	OAuthCallbackPort        int

	// Remote call behaviour
	RemoteTimeout time.Duration // base timeout for remote calls; zero keeps the defaults

	// Logging
	AuditLog  string // all | db | log | off
	LogLevel  string
	LogFormat string // json | console

	// Notebook downloads
	Course       string
	NotebookRepo string
}

// expandPath expands a leading ~ and environment variables.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// inClassDir resolves name against ClassInfoDir unless it is absolute.
func (c AppConfig) inClassDir(name string) string {
	name = expandPath(name)
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ClassInfoDir, name)
}

// KeysPath is the location of the key mapping file. It also names the
// mapping in the database backends.
func (c AppConfig) KeysPath() string { return c.inClassDir(c.KeysFile) }

// RosterPath is the location of the roster file.
func (c AppConfig) RosterPath() string { return c.inClassDir(c.Roster) }

// SQLiteFile is the SQLite database used by the sqlite backend.
func (c AppConfig) SQLiteFile() string {
	if c.SQLitePath != "" {
		return c.inClassDir(c.SQLitePath)
	}
	return filepath.Join(c.ClassInfoDir, "spreadsheet_keys.db")
}

// TokenPath is the OAuth token cache.
func (c AppConfig) TokenPath() string {
	if c.GoogleTokenFile != "" {
		return c.inClassDir(c.GoogleTokenFile)
	}
	return filepath.Join(c.ClassInfoDir, ".google_token.json")
}

// RosterSource describes where the roster is read from. A configured
// spreadsheet takes precedence over the roster file.
func (c AppConfig) RosterSource() roster.Source {
	if c.RosterSheetKey != "" || c.RosterWorksheet != "" {
		return roster.Source{SpreadsheetKey: c.RosterSheetKey, WorksheetName: c.RosterWorksheet}
	}
	sep := roster.DefaultSeparator
	if r := []rune(c.RosterSep); len(r) > 0 {
		sep = r[0]
	}
	return roster.Source{Path: c.RosterPath(), Separator: sep}
}

// Timeouts returns the remote call timeouts.
func (c AppConfig) Timeouts() timeouts.Timeouts {
	return timeouts.Defaults().Scaled(c.RemoteTimeout)
}
