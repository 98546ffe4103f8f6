package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeThresholdsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "thresholds.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write thresholds file: %v", err)
	}
	return path
}

func TestLoadMachineThresholds_Overrides(t *testing.T) {
	path := writeThresholdsFile(t, `
default_temperature_threshold: 105
machines:
  M003: 95
  M007: 110
`)

	thresholds, err := LoadMachineThresholds(path, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := thresholds.TemperatureThreshold("M003"); got != 95 {
		t.Errorf("M003 threshold = %v, want 95", got)
	}
	if got := thresholds.TemperatureThreshold("M007"); got != 110 {
		t.Errorf("M007 threshold = %v, want 110", got)
	}
	// Машина без override получает default из файла
	if got := thresholds.TemperatureThreshold("M001"); got != 105 {
		t.Errorf("M001 threshold = %v, want 105", got)
	}
}

func TestLoadMachineThresholds_FallbackWithoutFileDefault(t *testing.T) {
	path := writeThresholdsFile(t, `
machines:
  M002: 90
`)

	thresholds, err := LoadMachineThresholds(path, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := thresholds.TemperatureThreshold("M009"); got != 100 {
		t.Errorf("fallback threshold = %v, want 100", got)
	}
}

func TestLoadMachineThresholds_InvalidThreshold(t *testing.T) {
	path := writeThresholdsFile(t, `
machines:
  M004: -5
`)

	if _, err := LoadMachineThresholds(path, 100); err == nil {
		t.Fatal("expected error for negative threshold")
	}
}

func TestLoadMachineThresholds_MissingFile(t *testing.T) {
	if _, err := LoadMachineThresholds(filepath.Join(t.TempDir(), "absent.yml"), 100); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMachineThresholds_Replace(t *testing.T) {
	target := NewMachineThresholds(100)

	path := writeThresholdsFile(t, `
machines:
  M005: 120
`)
	loaded, err := LoadMachineThresholds(path, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	target.Replace(loaded)

	if got := target.TemperatureThreshold("M005"); got != 120 {
		t.Errorf("after replace M005 threshold = %v, want 120", got)
	}
	if got := target.TemperatureThreshold("M001"); got != 100 {
		t.Errorf("after replace fallback = %v, want 100", got)
	}
}
