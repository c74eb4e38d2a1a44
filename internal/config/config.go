// Package config loads xtraq.toml and merges it with environment variable
// overrides and .env bootstrap, the way the teacher loads its own
// TOML-based ignore file and bootstraps .env in cmd/dotenv_test.go's
// exercised code path.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/xtraq/xtraq/cmd/util"
	"github.com/xtraq/xtraq/internal/xerrors"
)

// JsonTypeLogLevel controls how verbosely the JSON enricher reports
// resolution misses.
type JsonTypeLogLevel string

const (
	JsonTypeLogOff      JsonTypeLogLevel = "Off"
	JsonTypeLogSummary  JsonTypeLogLevel = "Summary"
	JsonTypeLogDetailed JsonTypeLogLevel = "Detailed"
)

// FileName is the default config file name, loaded from the current
// directory unless overridden.
const FileName = "xtraq.toml"

// Config carries every recognized key from spec §6.2. Fields map 1:1 to
// xtraq.toml keys; XTRAQ_* environment variables and CLI flags can each
// override a subset, in that override order (flag wins over env wins over
// file/default).
type Config struct {
	NamespaceRoot                    string   `toml:"namespace_root"`
	OutputDir                        string   `toml:"output_dir"`
	BuildSchemas                     []string `toml:"build_schemas"`
	IgnoredSchemas                   []string `toml:"ignored_schemas"`
	IgnoredProcedures                []string `toml:"ignored_procedures"`
	GeneratorConnectionString        string   `toml:"generator_connection_string"`
	EmitJsonIncludeNullValues        bool     `toml:"emit_json_include_null_values"`
	EnableMinimalApiExtensions       bool     `toml:"enable_minimal_api_extensions"`
	EnableEntityFrameworkIntegration bool     `toml:"enable_entity_framework_integration"`
	JsonTypeLogLevel                 string   `toml:"json_type_log_level"`
	MaxOpenRetries                   int      `toml:"max_open_retries"`
	RetryDelayMs                     int      `toml:"retry_delay_ms"`
	CommandTimeoutSeconds            int      `toml:"command_timeout_seconds"`

	// LegacyJsonSentinelUpgrade opts into upgrading a described result set
	// whose only column is the legacy FOR JSON sentinel name
	// ("JSON_F52E2B61-18A1-11d1-B105-00805F49916B") into a JSON result set.
	// Defaults to false: upgrading by default would silently change a
	// generated field's type across a warm-run boundary.
	LegacyJsonSentinelUpgrade bool `toml:"legacy_json_sentinel_upgrade"`
}

// Default returns a Config populated with the spec's documented defaults,
// prior to any file or environment overlay.
func Default() *Config {
	return &Config{
		NamespaceRoot:          "Xtraq",
		OutputDir:              "Xtraq",
		JsonTypeLogLevel:       string(JsonTypeLogSummary),
		MaxOpenRetries:         0,
		RetryDelayMs:           200,
		CommandTimeoutSeconds:  120,
	}
}

// Load bootstraps .env (best-effort, a missing file is not an error), reads
// xtraq.toml from path if present, then applies XTRAQ_* environment
// overrides on top of the file values. A missing config file is not an
// error — Default() values are used instead — but the connection string
// must then come from XTRAQ_CONNECTION_STRING: Load returns a config error
// when GeneratorConnectionString is still empty.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = FileName
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, xerrors.Config("config.load", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, xerrors.Config("config.load", err)
	}

	cfg.applyEnvOverrides()

	if cfg.GeneratorConnectionString == "" {
		return nil, xerrors.Config("config.load", errMissingConnectionString)
	}

	return cfg, nil
}

var errMissingConnectionString = configError("generator_connection_string is required (set it in xtraq.toml or XTRAQ_CONNECTION_STRING)")

type configError string

func (e configError) Error() string { return string(e) }

// applyEnvOverrides layers XTRAQ_* environment variables over file/default
// values, per spec §6's environment variable enumeration. Each call passes
// flagChanged=false because these are applied before CLI flags are
// considered; the subcommands apply flag overrides afterward so an
// explicit flag always wins.
func (c *Config) applyEnvOverrides() {
	util.EnvOverrideString(&c.OutputDir, "XTRAQ_OUTPUT_DIR", false)
	util.EnvOverrideStringSlice(&c.BuildSchemas, "XTRAQ_BUILD_SCHEMAS", false)
	util.EnvOverrideStringSlice(&c.IgnoredProcedures, "XTRAQ_BUILD_PROCEDURES", false)
	util.EnvOverrideBool(&c.EmitJsonIncludeNullValues, "XTRAQ_JSON_INCLUDE_NULL_VALUES", false)
	util.EnvOverrideBool(&c.EnableMinimalApiExtensions, "XTRAQ_MINIMAL_API", false)
	util.EnvOverrideBool(&c.EnableEntityFrameworkIntegration, "XTRAQ_ENTITY_FRAMEWORK", false)
	util.EnvOverrideString(&c.GeneratorConnectionString, "XTRAQ_CONNECTION_STRING", false)
	util.EnvOverrideBool(&c.LegacyJsonSentinelUpgrade, "XTRAQ_LEGACY_JSON_SENTINEL_UPGRADE", false)
}
