package util

import (
	"os"
	"strconv"
	"strings"
)

// GetEnvWithDefault returns the value of an environment variable or a
// default value if not set.
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as an
// int, or a default value if not set or unparsable.
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBoolWithDefault returns the value of an environment variable as a
// bool, or a default value if not set or unparsable.
func GetEnvBoolWithDefault(envVar string, defaultValue bool) bool {
	if value := os.Getenv(envVar); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// SplitList parses a comma- or semicolon-separated list value (the format
// used by XTRAQ_BUILD_SCHEMAS and XTRAQ_BUILD_PROCEDURES), trimming
// whitespace and dropping empty entries.
func SplitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// EnvOverrideString sets *target from envVar when flagChanged is false and
// the env var is non-empty, implementing the override order of spec §6.2:
// an explicit flag always wins over the environment, which in turn
// overrides the config-file/flag default.
func EnvOverrideString(target *string, envVar string, flagChanged bool) {
	if flagChanged {
		return
	}
	if v := os.Getenv(envVar); v != "" {
		*target = v
	}
}

// EnvOverrideBool is EnvOverrideString for a boolean toggle.
func EnvOverrideBool(target *bool, envVar string, flagChanged bool) {
	if flagChanged {
		return
	}
	if v := os.Getenv(envVar); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*target = parsed
		}
	}
}

// EnvOverrideStringSlice is EnvOverrideString for a comma/semicolon
// separated list, such as XTRAQ_BUILD_SCHEMAS.
func EnvOverrideStringSlice(target *[]string, envVar string, flagChanged bool) {
	if flagChanged {
		return
	}
	if v := os.Getenv(envVar); v != "" {
		*target = SplitList(v)
	}
}
