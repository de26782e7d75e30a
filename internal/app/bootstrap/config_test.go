package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dalemusser/assessor/internal/app/store/sheetkeys"
	"github.com/dalemusser/assessor/internal/app/system/roster"
	"github.com/dalemusser/assessor/internal/testutil"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestLoadConfig_NoFiles(t *testing.T) {
	dir := t.TempDir()
	layers := Layers{
		Defaults: filepath.Join(dir, "defaults.yml"),
		User:     filepath.Join(dir, "_assessor.yml"),
	}
	_, err := LoadConfig(testLogger(), layers, nil)
	if !errors.Is(err, ErrNoConfig) {
		t.Errorf("LoadConfig error = %v, want ErrNoConfig", err)
	}
}

func TestLoadConfig_LayerPrecedence(t *testing.T) {
	dir := t.TempDir()
	layers := Layers{
		Defaults: testutil.WriteFile(t, dir, "defaults.yml", "class_info_dir: /srv/class\nspreadsheet_title: Default Title\nsuffix: x\n"),
		Machine:  testutil.WriteFile(t, dir, "machine.yml", "spreadsheet_title: Machine Title\nstorage_type: SQLite\n"),
		User:     testutil.WriteFile(t, dir, "_assessor.yml", "spreadsheet_title: Lab 3\nremote_timeout: 45s\n"),
	}

	cfg, err := LoadConfig(testLogger(), layers, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SpreadsheetTitle != "Lab 3" {
		t.Errorf("SpreadsheetTitle = %q, want user layer to win", cfg.SpreadsheetTitle)
	}
	if cfg.ClassInfoDir != "/srv/class" || cfg.Suffix != "x" {
		t.Errorf("defaults layer lost: dir=%q suffix=%q", cfg.ClassInfoDir, cfg.Suffix)
	}
	if cfg.StorageType != sheetkeys.BackendSQLite {
		t.Errorf("StorageType = %q", cfg.StorageType)
	}
	if cfg.RemoteTimeout != 45*time.Second {
		t.Errorf("RemoteTimeout = %v", cfg.RemoteTimeout)
	}
	if cfg.WorksheetName != "Sheet1" || cfg.KeysFile != "spreadsheet_keys.yml" || cfg.HeaderRows != 2 {
		t.Errorf("built-in defaults missing: %+v", cfg)
	}
}

func TestLoadConfig_MissingLayersAreSkipped(t *testing.T) {
	dir := t.TempDir()
	layers := Layers{
		Defaults: filepath.Join(dir, "nope.yml"),
		User:     testutil.WriteFile(t, dir, "_assessor.yml", "class_info_dir: /tmp/c\n"),
	}
	cfg, err := LoadConfig(testLogger(), layers, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ClassInfoDir != "/tmp/c" {
		t.Errorf("ClassInfoDir = %q", cfg.ClassInfoDir)
	}
}

func TestLoadConfig_EnvAndFlagsOverride(t *testing.T) {
	dir := t.TempDir()
	layers := Layers{User: testutil.WriteFile(t, dir, "_assessor.yml", "class_info_dir: /a\nworksheet_name: FromFile\nsuffix: f\n")}
	t.Setenv("ASSESSOR_WORKSHEET_NAME", "FromEnv")
	t.Setenv("ASSESSOR_SUFFIX", "e")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	if err := fs.Parse([]string{"--suffix", "z"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadConfig(testLogger(), layers, fs)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.WorksheetName != "FromEnv" {
		t.Errorf("WorksheetName = %q, want env override", cfg.WorksheetName)
	}
	if cfg.Suffix != "z" {
		t.Errorf("Suffix = %q, want flag override", cfg.Suffix)
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	layers := Layers{
		User:   testutil.WriteFile(t, dir, "_assessor.yml", "class_info_dir: /a\n"),
		DotEnv: testutil.WriteFile(t, dir, ".env", "ASSESSOR_COURSE=mlai\n"),
	}
	t.Cleanup(func() { os.Unsetenv("ASSESSOR_COURSE") })

	cfg, err := LoadConfig(testLogger(), layers, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Course != "mlai" {
		t.Errorf("Course = %q, want value from .env", cfg.Course)
	}
}

func validConfig() AppConfig {
	return AppConfig{
		ClassInfoDir: "/srv/class",
		Roster:       "class_list.csv",
		RosterSep:    ",",
		KeysFile:     "spreadsheet_keys.yml",
		StorageType:  sheetkeys.BackendFile,
		MongoURI:     "mongodb://localhost:27017",
		AuditLog:     "log",
		HeaderRows:   2,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(*AppConfig) {}, false},
		{"missing class dir", func(c *AppConfig) { c.ClassInfoDir = "" }, true},
		{"unknown storage", func(c *AppConfig) { c.StorageType = "s3" }, true},
		{"bad mongo uri", func(c *AppConfig) { c.StorageType = sheetkeys.BackendMongo; c.MongoURI = "http://nope" }, true},
		{"bad mongo uri unused", func(c *AppConfig) { c.MongoURI = "http://nope" }, false},
		{"bad audit setting", func(c *AppConfig) { c.AuditLog = "sometimes" }, true},
		{"long separator", func(c *AppConfig) { c.RosterSep = ";;" }, true},
		{"zero header rows", func(c *AppConfig) { c.HeaderRows = 0 }, true},
		{"half remote roster", func(c *AppConfig) { c.RosterSheetKey = "abc" }, true},
		{"remote roster", func(c *AppConfig) { c.RosterSheetKey = "abc"; c.RosterWorksheet = "Class" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHalfRemoteRosterIsBadSource(t *testing.T) {
	cfg := validConfig()
	cfg.RosterWorksheet = "Class"
	if err := ValidateConfig(cfg, testLogger()); !errors.Is(err, roster.ErrBadSource) {
		t.Errorf("error = %v, want ErrBadSource", err)
	}
}

func TestAppConfigPaths(t *testing.T) {
	cfg := validConfig()
	if got := cfg.KeysPath(); got != filepath.Join("/srv/class", "spreadsheet_keys.yml") {
		t.Errorf("KeysPath = %q", got)
	}
	cfg.KeysFile = "/abs/keys.yml"
	if got := cfg.KeysPath(); got != "/abs/keys.yml" {
		t.Errorf("absolute KeysPath = %q", got)
	}
	if got := cfg.SQLiteFile(); got != filepath.Join("/srv/class", "spreadsheet_keys.db") {
		t.Errorf("SQLiteFile = %q", got)
	}
	if got := cfg.TokenPath(); got != filepath.Join("/srv/class", ".google_token.json") {
		t.Errorf("TokenPath = %q", got)
	}

	cfg.RosterSep = ";"
	src := cfg.RosterSource()
	if src.Remote() || src.Separator != ';' || src.Path != filepath.Join("/srv/class", "class_list.csv") {
		t.Errorf("RosterSource = %+v", src)
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("CLASS_ROOT", "/data")
	if got := expandPath("$CLASS_ROOT/mlai"); got != "/data/mlai" {
		t.Errorf("expandPath = %q", got)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/class"); got != filepath.Join(home, "class") {
		t.Errorf("expandPath(~) = %q", got)
	}
}

func TestAppConfigTimeouts(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Timeouts().Medium; got != 30*time.Second {
		t.Errorf("default Medium = %v", got)
	}
	cfg.RemoteTimeout = 90 * time.Second
	to := cfg.Timeouts()
	if to.Medium != 90*time.Second || to.Short != 30*time.Second || to.Long != 180*time.Second {
		t.Errorf("scaled timeouts = %+v", to)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("debug", "json"); err != nil {
		t.Errorf("NewLogger(json) failed: %v", err)
	}
	if _, err := NewLogger("", "console"); err != nil {
		t.Errorf("NewLogger(console) failed: %v", err)
	}
	if _, err := NewLogger("loud", "console"); err == nil {
		t.Error("expected error for an unknown level")
	}
}
