package util

import (
	"os"
	"testing"
)

func TestGetEnvWithDefault(t *testing.T) {
	os.Setenv("TEST_STRING", "test-value")
	if GetEnvWithDefault("TEST_STRING", "default") != "test-value" {
		t.Errorf("expected 'test-value', got '%s'", GetEnvWithDefault("TEST_STRING", "default"))
	}

	os.Unsetenv("MISSING_VAR")
	if GetEnvWithDefault("MISSING_VAR", "default") != "default" {
		t.Errorf("expected 'default', got '%s'", GetEnvWithDefault("MISSING_VAR", "default"))
	}

	os.Setenv("EMPTY_VAR", "")
	if GetEnvWithDefault("EMPTY_VAR", "default") != "default" {
		t.Errorf("expected 'default' for empty var, got '%s'", GetEnvWithDefault("EMPTY_VAR", "default"))
	}

	os.Unsetenv("TEST_STRING")
	os.Unsetenv("EMPTY_VAR")
}

func TestGetEnvIntWithDefault(t *testing.T) {
	os.Setenv("TEST_INT", "12345")
	if GetEnvIntWithDefault("TEST_INT", 0) != 12345 {
		t.Errorf("expected 12345, got %d", GetEnvIntWithDefault("TEST_INT", 0))
	}

	os.Setenv("TEST_INVALID_INT", "not-a-number")
	if GetEnvIntWithDefault("TEST_INVALID_INT", 999) != 999 {
		t.Errorf("expected default 999, got %d", GetEnvIntWithDefault("TEST_INVALID_INT", 999))
	}

	os.Unsetenv("MISSING_INT_VAR")
	if GetEnvIntWithDefault("MISSING_INT_VAR", 777) != 777 {
		t.Errorf("expected default 777, got %d", GetEnvIntWithDefault("MISSING_INT_VAR", 777))
	}

	os.Setenv("EMPTY_INT_VAR", "")
	if GetEnvIntWithDefault("EMPTY_INT_VAR", 888) != 888 {
		t.Errorf("expected default 888 for empty var, got %d", GetEnvIntWithDefault("EMPTY_INT_VAR", 888))
	}

	os.Unsetenv("TEST_INT")
	os.Unsetenv("TEST_INVALID_INT")
	os.Unsetenv("EMPTY_INT_VAR")
}

func TestGetEnvBoolWithDefault(t *testing.T) {
	os.Setenv("TEST_BOOL", "true")
	if !GetEnvBoolWithDefault("TEST_BOOL", false) {
		t.Error("expected true")
	}

	os.Setenv("TEST_INVALID_BOOL", "maybe")
	if GetEnvBoolWithDefault("TEST_INVALID_BOOL", true) != true {
		t.Error("expected default true for unparsable bool")
	}

	os.Unsetenv("TEST_BOOL")
	os.Unsetenv("TEST_INVALID_BOOL")
}

func TestSplitList(t *testing.T) {
	got := SplitList("dbo, sales;  reporting")
	want := []string{"dbo", "sales", "reporting"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestEnvOverrideString(t *testing.T) {
	os.Setenv("XTRAQ_TEST_OUTPUT_DIR", "from-env")
	defer os.Unsetenv("XTRAQ_TEST_OUTPUT_DIR")

	target := "default"
	EnvOverrideString(&target, "XTRAQ_TEST_OUTPUT_DIR", false)
	if target != "from-env" {
		t.Errorf("expected env override to apply, got %q", target)
	}

	target = "from-flag"
	EnvOverrideString(&target, "XTRAQ_TEST_OUTPUT_DIR", true)
	if target != "from-flag" {
		t.Errorf("expected explicit flag to win over env, got %q", target)
	}
}

func TestEnvOverrideStringSlice(t *testing.T) {
	os.Setenv("XTRAQ_TEST_BUILD_SCHEMAS", "dbo,sales")
	defer os.Unsetenv("XTRAQ_TEST_BUILD_SCHEMAS")

	var target []string
	EnvOverrideStringSlice(&target, "XTRAQ_TEST_BUILD_SCHEMAS", false)
	if len(target) != 2 || target[0] != "dbo" || target[1] != "sales" {
		t.Errorf("expected [dbo sales], got %v", target)
	}
}
