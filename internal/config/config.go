// Package config handles loading and managing groupfn configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"

	"github.com/wesm/groupfn/internal/fileutil"
)

// ImportSchedule re-imports a task export on a schedule while the
// server runs.
type ImportSchedule struct {
	Source   string `toml:"source"`   // Stored source name (default: file base name)
	File     string `toml:"file"`     // JSON task export to read
	Schedule string `toml:"schedule"` // Cron expression (e.g., "*/15 * * * *")
	Enabled  bool   `toml:"enabled"`  // Whether the scheduled import is active
}

// Config represents the groupfn configuration.
type Config struct {
	Data     DataConfig       `toml:"data"`
	Grouping GroupingConfig   `toml:"grouping"`
	Server   ServerConfig     `toml:"server"`
	Imports  []ImportSchedule `toml:"imports"`

	// Computed paths (not from config file)
	HomeDir    string `toml:"-"`
	configPath string
}

// DataConfig holds data storage configuration.
type DataConfig struct {
	DataDir     string `toml:"data_dir"`
	DatabaseURL string `toml:"database_url"`
}

// GroupingConfig controls expression evaluation and heading order.
type GroupingConfig struct {
	MaxOperations int    `toml:"max_operations"` // Per-task evaluation step ceiling (0: built-in default)
	Parallelism   int    `toml:"parallelism"`    // Tasks evaluated at once (default: 1)
	Collation     string `toml:"collation"`      // BCP 47 tag for heading order, empty for codepoint order
	Today         string `toml:"today"`          // YYYY-MM-DD override for relative date fields
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort         int      `toml:"api_port"`         // HTTP server port (default: 8080)
	BindAddr        string   `toml:"bind_addr"`        // Listen address (default: 127.0.0.1)
	APIKey          string   `toml:"api_key"`          // API authentication key
	AllowInsecure   bool     `toml:"allow_insecure"`   // Permit a non-loopback bind without an API key
	CORSOrigins     []string `toml:"cors_origins"`     // Allowed origins, empty disables CORS
	CORSCredentials bool     `toml:"cors_credentials"` // Send Access-Control-Allow-Credentials
	CORSMaxAge      int      `toml:"cors_max_age"`     // Preflight cache seconds (default: 86400 when origins set)
}

// ValidateSecure refuses to expose an unauthenticated API beyond the
// local machine unless AllowInsecure is set.
func (s ServerConfig) ValidateSecure() error {
	if s.APIKey != "" || s.AllowInsecure || IsLoopback(s.BindAddr) {
		return nil
	}
	return fmt.Errorf("refusing to bind %s without server.api_key; set api_key or allow_insecure = true", s.BindAddr)
}

// IsLoopback reports whether addr only accepts local connections. An
// empty address means the 127.0.0.1 default.
func IsLoopback(addr string) bool {
	if addr == "" || strings.EqualFold(addr, "localhost") {
		return true
	}
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}

// DefaultHome returns the default groupfn home directory.
// Respects GROUPFN_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("GROUPFN_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".groupfn"
	}
	return filepath.Join(home, ".groupfn")
}

// NewDefaultConfig returns a configuration with defaults rooted at
// DefaultHome.
func NewDefaultConfig() *Config {
	return newConfig(DefaultHome())
}

func newConfig(homeDir string) *Config {
	return &Config{
		HomeDir: homeDir,
		Data: DataConfig{
			DataDir: homeDir,
		},
		Grouping: GroupingConfig{
			Parallelism: 1,
		},
		Server: ServerConfig{
			APIPort:  8080,
			BindAddr: "127.0.0.1",
		},
	}
}

// Load reads the configuration.
//
// With an explicit path the file must exist, and the home directory is
// the file's parent. Otherwise config.toml is read from homeDir (or
// DefaultHome when homeDir is empty) and is optional.
func Load(path, homeDir string) (*Config, error) {
	explicit := path != ""
	switch {
	case explicit:
		path = expandPath(path)
		if homeDir == "" {
			homeDir = filepath.Dir(path)
		}
	case homeDir != "":
		path = filepath.Join(expandPath(homeDir), "config.toml")
	default:
		homeDir = DefaultHome()
		path = filepath.Join(homeDir, "config.toml")
	}
	homeDir = expandPath(homeDir)

	cfg := newConfig(homeDir)
	cfg.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, decodeError(path, err)
	}

	// Expand ~ and resolve relative paths against the config directory
	cfg.Data.DataDir = resolvePath(cfg.Data.DataDir, filepath.Dir(path))
	for i := range cfg.Imports {
		imp := &cfg.Imports[i]
		imp.File = resolvePath(imp.File, filepath.Dir(path))
		if imp.Source == "" && imp.File != "" {
			imp.Source = filepath.Base(imp.File)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// decodeError adds a hint for Windows paths written in basic strings,
// where backslashes are escape sequences.
func decodeError(path string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "escape") || strings.Contains(msg, "hexadecimal digits") {
		return fmt.Errorf("decode config %s: %w (hint: use forward slashes or single quotes for paths containing backslashes)", path, err)
	}
	return fmt.Errorf("decode config %s: %w", path, err)
}

// Validate checks values that would otherwise fail later, far from the
// config file.
func (c *Config) Validate() error {
	if c.Grouping.MaxOperations < 0 {
		return fmt.Errorf("grouping.max_operations must not be negative, got %d", c.Grouping.MaxOperations)
	}
	if c.Grouping.Parallelism < 1 {
		return fmt.Errorf("grouping.parallelism must be at least 1, got %d", c.Grouping.Parallelism)
	}
	if c.Grouping.Collation != "" {
		if _, err := language.Parse(c.Grouping.Collation); err != nil {
			return fmt.Errorf("grouping.collation %q: %w", c.Grouping.Collation, err)
		}
	}
	if c.Grouping.Today != "" {
		if _, err := time.Parse(time.DateOnly, c.Grouping.Today); err != nil {
			return fmt.Errorf("grouping.today %q: want YYYY-MM-DD", c.Grouping.Today)
		}
	}
	if c.Server.APIPort < 0 || c.Server.APIPort > 65535 {
		return fmt.Errorf("server.api_port %d out of range", c.Server.APIPort)
	}
	seen := make(map[string]bool, len(c.Imports))
	for i, imp := range c.Imports {
		if imp.File == "" {
			return fmt.Errorf("imports[%d]: file is required", i)
		}
		if imp.Enabled && imp.Schedule == "" {
			return fmt.Errorf("imports[%d] (%s): schedule is required when enabled", i, imp.Source)
		}
		if seen[imp.Source] {
			return fmt.Errorf("imports[%d]: source %q is listed twice", i, imp.Source)
		}
		seen[imp.Source] = true
	}
	return nil
}

// ScheduledImports returns the imports with scheduling enabled.
func (c *Config) ScheduledImports() []ImportSchedule {
	var scheduled []ImportSchedule
	for _, imp := range c.Imports {
		if imp.Enabled && imp.Schedule != "" {
			scheduled = append(scheduled, imp)
		}
	}
	return scheduled
}

// Today returns the date relative fields are computed against: the
// configured override, or now's calendar date in UTC.
func (c *Config) Today(now time.Time) time.Time {
	if c.Grouping.Today != "" {
		if d, err := time.Parse(time.DateOnly, c.Grouping.Today); err == nil {
			return d
		}
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EnsureHomeDir creates the home and data directories, readable by the
// current user only.
func (c *Config) EnsureHomeDir() error {
	for _, dir := range []string{c.HomeDir, c.Data.DataDir} {
		if dir == "" {
			continue
		}
		if err := fileutil.SecureMkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// ConfigFilePath returns the config file that was (or would have been)
// loaded.
func (c *Config) ConfigFilePath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return filepath.Join(c.HomeDir, "config.toml")
}

// DatabaseDSN returns the SQLite database path, or the configured URL.
func (c *Config) DatabaseDSN() string {
	if c.Data.DatabaseURL != "" {
		return c.Data.DatabaseURL
	}
	return filepath.Join(c.Data.DataDir, "groupfn.db")
}

// DocsDir returns where rendered sample documentation is written.
func (c *Config) DocsDir() string {
	return filepath.Join(c.Data.DataDir, "docs")
}

// ListenAddr returns the host:port the API server binds.
func (c *Config) ListenAddr() string {
	bind := c.Server.BindAddr
	if bind == "" {
		bind = "127.0.0.1"
	}
	return net.JoinHostPort(bind, strconv.Itoa(c.Server.APIPort))
}

func resolvePath(p, base string) string {
	p = expandPath(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
