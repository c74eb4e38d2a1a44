package xtraq

import "testing"

func TestNewClientAppliesDefaultsAndOverrides(t *testing.T) {
	c := NewClient("/tmp/project", Config{
		ConnectionString: "sqlserver://localhost",
		BuildSchemas:     []string{"dbo", "sales"},
	})

	if c.cfg.GeneratorConnectionString != "sqlserver://localhost" {
		t.Errorf("expected connection string to carry through, got %q", c.cfg.GeneratorConnectionString)
	}
	if c.cfg.OutputDir != "Xtraq" {
		t.Errorf("expected OutputDir to fall back to the package default, got %q", c.cfg.OutputDir)
	}
	if c.cfg.NamespaceRoot != "Xtraq" {
		t.Errorf("expected NamespaceRoot to fall back to the package default, got %q", c.cfg.NamespaceRoot)
	}
	if len(c.cfg.BuildSchemas) != 2 || c.cfg.BuildSchemas[0] != "dbo" {
		t.Errorf("expected BuildSchemas to carry through, got %v", c.cfg.BuildSchemas)
	}
	if c.rootDir != "/tmp/project" {
		t.Errorf("expected rootDir to carry through, got %q", c.rootDir)
	}
}

func TestNewClientOutputDirOverride(t *testing.T) {
	c := NewClient("/tmp/project", Config{
		ConnectionString: "sqlserver://localhost",
		OutputDir:        "Generated",
	})

	if c.cfg.OutputDir != "Generated" {
		t.Errorf("expected an explicit OutputDir to override the default, got %q", c.cfg.OutputDir)
	}
}

func TestClientDiagnosticsStartsEmpty(t *testing.T) {
	c := NewClient("/tmp/project", Config{ConnectionString: "sqlserver://localhost"})
	if len(c.Diagnostics()) != 0 {
		t.Errorf("expected a fresh client to carry no diagnostics yet, got %v", c.Diagnostics())
	}
}
