package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding job settings.
const EnvPrefix = "DATABUILDER"

// Config is a scoped view over a job configuration tree.
type Config struct {
	v *viper.Viper
}

// New returns an empty configuration.
func New() *Config {
	return &Config{v: viper.New()}
}

// FromMap builds a configuration from nested maps. Keys may also be dotted
// paths ("extractor.csv.file_location").
func FromMap(values map[string]interface{}) *Config {
	c := New()
	for k, val := range values {
		c.v.Set(k, val)
	}
	return c
}

// Load reads a YAML (or JSON/TOML, by extension) job file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || ext == "yml" {
		ext = "yaml"
	}
	return Parse(data, ext)
}

// Parse reads configuration content of the given format.
func Parse(data []byte, format string) (*Config, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader([]byte(substituteEnvVars(string(data))))); err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", format, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}, nil
}

// Scope returns the subtree under name. A missing subtree yields an empty
// configuration so components can rely on their defaults.
func (c *Config) Scope(name string) *Config {
	if sub := c.v.Sub(name); sub != nil {
		return &Config{v: sub}
	}
	return New()
}

// IsSet reports whether key has a value.
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// Set overrides key.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Get returns the raw value of key.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns key as a string or def when unset.
func (c *Config) GetString(key, def string) string {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetString(key)
}

// GetInt returns key as an int or def when unset.
func (c *Config) GetInt(key string, def int) int {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetInt(key)
}

// GetBool returns key as a bool or def when unset.
func (c *Config) GetBool(key string, def bool) bool {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetBool(key)
}

// GetFloat returns key as a float64 or def when unset.
func (c *Config) GetFloat(key string, def float64) float64 {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetFloat64(key)
}

// GetDuration returns key as a duration or def when unset.
func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetDuration(key)
}

// GetStringSlice returns key as a string slice or def when unset.
func (c *Config) GetStringSlice(key string, def []string) []string {
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetStringSlice(key)
}

// GetStringMapString returns key as a map of strings, nil when unset.
func (c *Config) GetStringMapString(key string) map[string]string {
	if !c.v.IsSet(key) {
		return nil
	}
	return c.v.GetStringMapString(key)
}

// RequireString returns key or an error naming the missing setting.
func (c *Config) RequireString(key string) (string, error) {
	s := c.GetString(key, "")
	if s == "" {
		return "", fmt.Errorf("missing required config %q", key)
	}
	return s, nil
}

// Unmarshal decodes the whole tree into out using mapstructure tags.
func (c *Config) Unmarshal(out interface{}) error {
	return c.v.Unmarshal(out)
}

// AllSettings returns the resolved tree.
func (c *Config) AllSettings() map[string]interface{} {
	return c.v.AllSettings()
}

// Dump renders the resolved tree as YAML.
func (c *Config) Dump() ([]byte, error) {
	out, err := yaml.Marshal(c.v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return out, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
