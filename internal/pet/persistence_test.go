package pet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupTestFile(t *testing.T) func() {
	// Create a temporary directory for test files
	tmpDir, err := os.MkdirTemp("", "deskpet-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	TestConfigPath = filepath.Join(tmpDir, "nested", "settings.toml")

	return func() {
		TestConfigPath = ""
		os.RemoveAll(tmpDir)
	}
}

func TestGetConfigPathOverride(t *testing.T) {
	cleanup := setupTestFile(t)
	defer cleanup()

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if path != TestConfigPath {
		t.Errorf("GetConfigPath() = %q, want %q", path, TestConfigPath)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	cleanup := setupTestFile(t)
	defer cleanup()

	s, err := LoadSettings(TestConfigPath)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("LoadSettings() = %+v, want defaults", s)
	}
}

func TestSaveAndLoadSettings(t *testing.T) {
	cleanup := setupTestFile(t)
	defer cleanup()

	s := DefaultSettings()
	s.CatalogPath = "/tmp/animations.yaml"
	s.Interaction.LongPressMS = 800
	s.Window = WindowSettings{X: 320, Y: 240}
	s.Logging.Level = "debug"

	if err := SaveSettings(TestConfigPath, s); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	got, err := LoadSettings(TestConfigPath)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got != s {
		t.Errorf("LoadSettings() = %+v, want %+v", got, s)
	}
}

func TestLoadSettingsPartialFile(t *testing.T) {
	cleanup := setupTestFile(t)
	defer cleanup()

	content := `
catalog = "pets/cat.yaml"

[interaction]
long_press_ms = 800
auto_interval_ms = 0
`
	if err := os.MkdirAll(filepath.Dir(TestConfigPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(TestConfigPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(TestConfigPath)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.CatalogPath != "pets/cat.yaml" {
		t.Errorf("CatalogPath = %q, want pets/cat.yaml", s.CatalogPath)
	}

	cfg := s.MachineConfig()
	if cfg.LongPressThreshold != 800*time.Millisecond {
		t.Errorf("LongPressThreshold = %v, want 800ms", cfg.LongPressThreshold)
	}
	if cfg.IdleThreshold != DefaultIdleThreshold {
		t.Errorf("IdleThreshold = %v, want %v", cfg.IdleThreshold, DefaultIdleThreshold)
	}
	if cfg.AutoInterval != 0 {
		t.Errorf("AutoInterval = %v, want disabled", cfg.AutoInterval)
	}
	if s.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", s.Logging.Level)
	}
}

func TestLoadSettingsMalformed(t *testing.T) {
	cleanup := setupTestFile(t)
	defer cleanup()

	if err := os.MkdirAll(filepath.Dir(TestConfigPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(TestConfigPath, []byte("[interaction\nidle_ms = "), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(TestConfigPath)
	if err == nil {
		t.Fatal("LoadSettings() error = nil, want parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse settings file") {
		t.Errorf("error = %v, want parse context", err)
	}
	if s != DefaultSettings() {
		t.Errorf("LoadSettings() on error = %+v, want defaults", s)
	}
}

func TestMachineConfigZeroValuesFallBack(t *testing.T) {
	cfg := Settings{}.MachineConfig()
	want := DefaultConfig()
	if cfg != want {
		t.Errorf("MachineConfig() = %+v, want %+v", cfg, want)
	}
}
