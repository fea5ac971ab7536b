package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Extraction strategies accepted by ReferenceSettings.Extractor
const (
	ExtractorAuto       = "auto"
	ExtractorText       = "text"
	ExtractorTreeSitter = "treesitter"
)

// ReferenceSettings configuration for the reference dataset
type ReferenceSettings struct {
	JavaPath      string        `mapstructure:"java_path"` // file or doublestar glob of constant declarations
	JSONPath      string        `mapstructure:"json_path"` // JSON or YAML dataset
	PreferJSON    bool          `mapstructure:"prefer_json"`
	Extractor     string        `mapstructure:"extractor"`
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
	CacheSize     int           `mapstructure:"cache_size"`
	MaxResults    int           `mapstructure:"max_results"`
	MaxFileSize   int64         `mapstructure:"max_file_size"`
	Workers       int           `mapstructure:"workers"`
}

// Settings application settings
type Settings struct {
	Transport string            `mapstructure:"transport"`
	Host      string            `mapstructure:"host"`
	Port      int               `mapstructure:"port"`
	Auth      AuthSettings      `mapstructure:"auth"`
	Reference ReferenceSettings `mapstructure:"reference"`
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", "stdio")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	// Reference dataset defaults
	v.SetDefault("reference.java_path", "")
	v.SetDefault("reference.json_path", "")
	v.SetDefault("reference.prefer_json", false)
	v.SetDefault("reference.extractor", ExtractorAuto)
	v.SetDefault("reference.watch", false)
	v.SetDefault("reference.watch_debounce", 500*time.Millisecond)
	v.SetDefault("reference.cache_size", 256)
	v.SetDefault("reference.max_results", 20)
	v.SetDefault("reference.max_file_size", int64(4*1024*1024)) // 4MB
	v.SetDefault("reference.workers", 4)

	// Environment variables
	v.SetEnvPrefix("REFLOOKUP_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	_ = v.BindEnv("auth.type", "REFLOOKUP_MCP_AUTH_TYPE")
	_ = v.BindEnv("auth.basic.username", "REFLOOKUP_MCP_AUTH_BASIC_USERNAME")
	_ = v.BindEnv("auth.basic.password", "REFLOOKUP_MCP_AUTH_BASIC_PASSWORD")
	_ = v.BindEnv("auth.api_keys", "REFLOOKUP_MCP_AUTH_API_KEYS")

	// Reference dataset env var bindings
	for _, key := range referenceKeys {
		_ = v.BindEnv("reference."+key, "REFLOOKUP_MCP_REFERENCE_"+strings.ToUpper(key))
	}

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		_ = v.BindPFlag("transport", flags.Lookup("transport"))
		_ = v.BindPFlag("host", flags.Lookup("host"))
		_ = v.BindPFlag("port", flags.Lookup("port"))
		_ = v.BindPFlag("auth.type", flags.Lookup("auth-type"))
		_ = v.BindPFlag("auth.basic.username", flags.Lookup("auth-basic-username"))
		_ = v.BindPFlag("auth.basic.password", flags.Lookup("auth-basic-password"))
		_ = v.BindPFlag("auth.api_keys", flags.Lookup("auth-api-keys"))

		// Reference dataset CLI flags, e.g. --reference-java-path
		for _, key := range referenceKeys {
			if f := flags.Lookup("reference-" + strings.ReplaceAll(key, "_", "-")); f != nil {
				_ = v.BindPFlag("reference."+key, f)
			}
		}
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Handle explicit parsing of API keys if provided via env var as comma-separated string
	apiKeysEnv := os.Getenv("REFLOOKUP_MCP_AUTH_API_KEYS")
	if apiKeysEnv != "" {
		if len(settings.Auth.APIKeys) == 0 || (len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",")) {
			settings.Auth.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}

	// Trim spaces from API keys
	for i := range settings.Auth.APIKeys {
		settings.Auth.APIKeys[i] = strings.TrimSpace(settings.Auth.APIKeys[i])
	}

	// Drop empty API keys left over from trailing commas
	settings.Auth.APIKeys = filterEmptyStrings(settings.Auth.APIKeys)

	// Expand home directory in dataset paths
	settings.Reference.JavaPath = expandHomeDir(strings.TrimSpace(settings.Reference.JavaPath))
	settings.Reference.JSONPath = expandHomeDir(strings.TrimSpace(settings.Reference.JSONPath))
	settings.Reference.Extractor = strings.ToLower(strings.TrimSpace(settings.Reference.Extractor))

	return &settings, nil
}

// referenceKeys are the reference.* settings exposed through env vars and flags
var referenceKeys = []string{
	"java_path",
	"json_path",
	"prefer_json",
	"extractor",
	"watch",
	"watch_debounce",
	"cache_size",
	"max_results",
	"max_file_size",
	"workers",
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// filterEmptyStrings removes empty strings from a slice
func filterEmptyStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete auth config.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	return ValidateReferenceSettings(&s.Reference)
}

// ValidateReferenceSettings validates the reference dataset configuration
func ValidateReferenceSettings(r *ReferenceSettings) error {
	switch r.Extractor {
	case ExtractorAuto, ExtractorText, ExtractorTreeSitter, "":
		// valid
	default:
		return errors.New("reference-extractor must be 'auto', 'text' or 'treesitter', got: " + r.Extractor)
	}

	if r.PreferJSON && r.JSONPath == "" {
		return errors.New("reference-prefer-json requires reference-json-path")
	}

	if r.Watch && r.JavaPath == "" && r.JSONPath == "" {
		return errors.New("reference-watch requires reference-java-path or reference-json-path")
	}

	// zero values fall back to the loader defaults
	if r.WatchDebounce < 0 {
		return errors.New("reference-watch-debounce cannot be negative")
	}

	if r.CacheSize < 0 {
		return errors.New("reference-cache-size cannot be negative")
	}

	if r.MaxResults < 0 {
		return errors.New("reference-max-results cannot be negative")
	}

	if r.MaxFileSize < 0 {
		return errors.New("reference-max-file-size cannot be negative")
	}

	if r.Workers < 0 {
		return errors.New("reference-workers cannot be negative")
	}

	return nil
}
