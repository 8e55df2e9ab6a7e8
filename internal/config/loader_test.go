package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/openregistry/registry-go/internal/store/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8888" {
		t.Errorf("listen_addr = %s", cfg.ListenAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %s", cfg.LogLevel)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("driver = %s", cfg.Store.Driver)
	}
	if cfg.Index.TimeoutMS != 10000 || cfg.Index.TripThreshold != 5 {
		t.Errorf("index defaults = %+v", cfg.Index)
	}
	if cfg.Index.BaseURL != "" {
		t.Errorf("index base_url = %q, want empty", cfg.Index.BaseURL)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerWindow != 300 || cfg.RateLimit.WindowMS != 60000 {
		t.Errorf("ratelimit defaults = %+v", cfg.RateLimit)
	}
}

func TestLoad_RateLimitSection(t *testing.T) {
	path := writeConfig(t, `
[ratelimit]
enabled = false
requests_per_window = 10
`)

	cfg, err := Load(LoaderOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RateLimit.Enabled {
		t.Error("enabled = true, want section value false")
	}
	if cfg.RateLimit.RequestsPerWindow != 10 {
		t.Errorf("requests_per_window = %d", cfg.RateLimit.RequestsPerWindow)
	}
	if cfg.RateLimit.WindowMS != 60000 {
		t.Errorf("window_ms = %d, want default", cfg.RateLimit.WindowMS)
	}
}

func TestLoad_StoreSection(t *testing.T) {
	path := writeConfig(t, `
[store]
data_dir = "/srv/registry-data"
`)

	cfg, err := Load(LoaderOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.DataDir != "/srv/registry-data" {
		t.Errorf("data_dir = %q, want section value", cfg.Store.DataDir)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("driver = %s, want default", cfg.Store.Driver)
	}
}

func TestLoad_FileOverlay(t *testing.T) {
	path := writeConfig(t, `
listen_addr = ":9000"
log_level = "debug"

[store]
driver = "sqlite"
data_dir = "/var/lib/registry"

[index]
base_url = "http://index.internal:8080"
timeout_ms = 2500

[teams.static]
"github:org:maintainers" = ["alice", "bob"]
`)

	cfg, err := Load(LoaderOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9000" || cfg.LogLevel != "debug" {
		t.Errorf("top level = %s / %s", cfg.ListenAddr, cfg.LogLevel)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DataDir != "/var/lib/registry" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Index.BaseURL != "http://index.internal:8080" {
		t.Errorf("index base_url = %s", cfg.Index.BaseURL)
	}
	if cfg.Index.TimeoutMS != 2500 {
		t.Errorf("timeout_ms = %d", cfg.Index.TimeoutMS)
	}
	// Unset index keys still get their defaults.
	if cfg.Index.TripThreshold != 5 {
		t.Errorf("trip_threshold = %d, want default 5", cfg.Index.TripThreshold)
	}

	members := cfg.Teams.Static["github:org:maintainers"]
	if len(members) != 2 || members[0] != "alice" || members[1] != "bob" {
		t.Errorf("teams = %v", cfg.Teams.Static)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `log_level = "warn"`)

	cfg, err := Load(LoaderOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %s", cfg.LogLevel)
	}
	if cfg.ListenAddr != ":8888" || cfg.Store.Driver != "memory" {
		t.Errorf("defaults clobbered: %+v", cfg)
	}
}

func TestLoad_FlagOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
listen_addr = ":9000"
log_level = "debug"
`)

	listen := ":7777"
	level := "error"
	driver := "sqlite"
	dataDir := t.TempDir()
	indexURL := "http://flags.example"

	cfg, err := Load(LoaderOptions{
		ConfigPath: path,
		FlagOverrides: FlagOverrides{
			ListenAddr:  &listen,
			LogLevel:    &level,
			StoreDriver: &driver,
			DataDir:     &dataDir,
			IndexURL:    &indexURL,
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7777" || cfg.LogLevel != "error" {
		t.Errorf("flags lost: %s / %s", cfg.ListenAddr, cfg.LogLevel)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DataDir != dataDir {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Index.BaseURL != "http://flags.example" {
		t.Errorf("index base_url = %s", cfg.Index.BaseURL)
	}
}

func TestLoad_EmptyFlagDoesNotOverride(t *testing.T) {
	empty := ""
	cfg, err := Load(LoaderOptions{FlagOverrides: FlagOverrides{ListenAddr: &empty}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8888" {
		t.Errorf("empty flag overrode default: %s", cfg.ListenAddr)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(LoaderOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.toml")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := writeConfig(t, `listen_addr = [broken`)
	if _, err := Load(LoaderOptions{ConfigPath: path}); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestLoad_UnknownKeysWarnButLoad(t *testing.T) {
	path := writeConfig(t, `
listen_addr = ":9000"
mystery_knob = true

[index]
base_url = "http://index.internal"
mystery_index_knob = 7
`)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := Load(LoaderOptions{ConfigPath: path, Logger: logger})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("listen_addr = %s", cfg.ListenAddr)
	}
	if cfg.Index.BaseURL != "http://index.internal" {
		t.Errorf("index base_url = %s", cfg.Index.BaseURL)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	level := "verbose"
	if _, err := Load(LoaderOptions{FlagOverrides: FlagOverrides{LogLevel: &level}}); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	driver := "postgres"
	if _, err := Load(LoaderOptions{FlagOverrides: FlagOverrides{StoreDriver: &driver}}); err == nil {
		t.Fatal("expected error for unregistered driver")
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"anything-else", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := ParseLogLevel(c.in); got != c.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
