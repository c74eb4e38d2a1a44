package cmd

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
)

func TestDotenvLoading(t *testing.T) {
	tmpDir := t.TempDir()
	originalDir, _ := os.Getwd()

	err := os.Chdir(tmpDir)
	if err != nil {
		t.Fatalf("failed to change to temp directory: %v", err)
	}

	defer func() {
		os.Chdir(originalDir)
	}()

	t.Run("LoadEnvFile", func(t *testing.T) {
		os.Unsetenv("XTRAQ_OUTPUT_DIR")

		envContent := "XTRAQ_OUTPUT_DIR=Generated\n"
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("failed to create .env file: %v", err)
		}

		if err := godotenv.Load(); err != nil {
			t.Fatalf("failed to load .env file: %v", err)
		}

		if got := os.Getenv("XTRAQ_OUTPUT_DIR"); got != "Generated" {
			t.Errorf("expected XTRAQ_OUTPUT_DIR='Generated', got '%s'", got)
		}

		os.Remove(".env")
		os.Unsetenv("XTRAQ_OUTPUT_DIR")
	})

	t.Run("MissingEnvFile", func(t *testing.T) {
		os.Unsetenv("XTRAQ_OUTPUT_DIR")
		os.Remove(".env")

		if err := godotenv.Load(); err == nil {
			t.Error("expected error when loading a non-existent .env file, got nil")
		}

		if got := os.Getenv("XTRAQ_OUTPUT_DIR"); got != "" {
			t.Errorf("expected XTRAQ_OUTPUT_DIR to be empty, got '%s'", got)
		}
	})

	t.Run("EnvVarPriority", func(t *testing.T) {
		os.Setenv("XTRAQ_OUTPUT_DIR", "FromEnv")

		envContent := "XTRAQ_OUTPUT_DIR=FromDotenv\n"
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("failed to create .env file: %v", err)
		}

		if err := godotenv.Load(); err != nil {
			t.Fatalf("failed to load .env file: %v", err)
		}

		if got := os.Getenv("XTRAQ_OUTPUT_DIR"); got != "FromEnv" {
			t.Errorf("expected existing env var to take precedence, got '%s'", got)
		}

		os.Remove(".env")
		os.Unsetenv("XTRAQ_OUTPUT_DIR")
	})

	t.Run("DotenvOverridesWhenNoEnvVar", func(t *testing.T) {
		os.Unsetenv("XTRAQ_OUTPUT_DIR")

		envContent := "XTRAQ_OUTPUT_DIR=DotenvOnly\n"
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("failed to create .env file: %v", err)
		}

		if err := godotenv.Load(); err != nil {
			t.Fatalf("failed to load .env file: %v", err)
		}

		if got := os.Getenv("XTRAQ_OUTPUT_DIR"); got != "DotenvOnly" {
			t.Errorf("expected XTRAQ_OUTPUT_DIR='DotenvOnly', got '%s'", got)
		}

		os.Remove(".env")
		os.Unsetenv("XTRAQ_OUTPUT_DIR")
	})

	t.Run("AllXtraqEnvVars", func(t *testing.T) {
		envVars := []string{
			"XTRAQ_OUTPUT_DIR", "XTRAQ_BUILD_SCHEMAS", "XTRAQ_BUILD_PROCEDURES",
			"XTRAQ_JSON_INCLUDE_NULL_VALUES", "XTRAQ_MINIMAL_API",
			"XTRAQ_ENTITY_FRAMEWORK", "XTRAQ_TFM",
		}
		for _, envVar := range envVars {
			os.Unsetenv(envVar)
		}

		envContent := `XTRAQ_OUTPUT_DIR=Generated
XTRAQ_BUILD_SCHEMAS=dbo,sales
XTRAQ_BUILD_PROCEDURES=Get*
XTRAQ_JSON_INCLUDE_NULL_VALUES=true
XTRAQ_MINIMAL_API=false
XTRAQ_ENTITY_FRAMEWORK=true
XTRAQ_TFM=net8.0
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("failed to create .env file: %v", err)
		}

		if err := godotenv.Load(); err != nil {
			t.Fatalf("failed to load .env file: %v", err)
		}

		expected := map[string]string{
			"XTRAQ_OUTPUT_DIR":               "Generated",
			"XTRAQ_BUILD_SCHEMAS":             "dbo,sales",
			"XTRAQ_BUILD_PROCEDURES":         "Get*",
			"XTRAQ_JSON_INCLUDE_NULL_VALUES": "true",
			"XTRAQ_MINIMAL_API":              "false",
			"XTRAQ_ENTITY_FRAMEWORK":         "true",
			"XTRAQ_TFM":                      "net8.0",
		}

		for envVar, want := range expected {
			if got := os.Getenv(envVar); got != want {
				t.Errorf("expected %s='%s', got '%s'", envVar, want, got)
			}
		}

		os.Remove(".env")
		for _, envVar := range envVars {
			os.Unsetenv(envVar)
		}
	})
}
