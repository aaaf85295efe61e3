package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Store    StoreConfig       `yaml:"store"`
	Autosave AutosaveConfig    `yaml:"autosave"`
	Import   ImportConfig      `yaml:"import"`
	Services ServicesConfig    `yaml:"services"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Autosave.Validate(); err != nil {
		return err
	}
	if err := c.Import.Validate(); err != nil {
		return err
	}
	if err := c.Services.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig holds workspace database configuration.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AutosaveConfig controls the edit-buffer autosave debounce.
type AutosaveConfig struct {
	QuietPeriod time.Duration `yaml:"quiet_period"`
}

// Validate validates the autosave configuration.
func (c *AutosaveConfig) Validate() error {
	if c.QuietPeriod < 0 {
		return fmt.Errorf("autosave: quiet_period must not be negative")
	}
	return nil
}

// ImportConfig controls the markdown drop-folder importer.
type ImportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("import: enabled but path is empty")
	}
	return nil
}

// ServicesConfig holds the endpoints of the AI augmentation collaborators.
// Any empty section leaves the corresponding pipeline unconfigured.
type ServicesConfig struct {
	LLM       LLMConfig       `yaml:"llm"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Search    SearchConfig    `yaml:"search"`
	Memory    MemoryConfig    `yaml:"memory"`
}

// Validate validates the services configuration.
func (c *ServicesConfig) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return c.Memory.Validate()
}

// LLMConfig points at an OpenAI-compatible chat-completions endpoint.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// Configured reports whether the LLM endpoint is set up.
func (c *LLMConfig) Configured() bool {
	return c.BaseURL != ""
}

// Validate validates the LLM configuration.
func (c *LLMConfig) Validate() error {
	if c.BaseURL != "" && c.Model == "" {
		return fmt.Errorf("llm: base_url is set but model is empty")
	}
	return nil
}

// ExtractorConfig points at the article extraction service.
type ExtractorConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Configured reports whether the extractor endpoint is set up.
func (c *ExtractorConfig) Configured() bool {
	return c.BaseURL != ""
}

// SearchConfig points at a SearxNG-compatible search endpoint.
type SearchConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Configured reports whether the search endpoint is set up.
func (c *SearchConfig) Configured() bool {
	return c.BaseURL != ""
}

// MemoryConfig holds the command line of the external memory MCP server.
type MemoryConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// Configured reports whether a memory server command is set.
func (c *MemoryConfig) Configured() bool {
	return c.Command != ""
}

// Validate validates the memory configuration.
func (c *MemoryConfig) Validate() error {
	if c.Command == "" && len(c.Args) > 0 {
		return fmt.Errorf("memory: args are set but command is empty")
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Path: "./ansuz.db",
		},
		Autosave: AutosaveConfig{
			QuietPeriod: 5 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
