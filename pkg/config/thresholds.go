package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// MachineThresholds хранит per-machine переопределения порога аномальной
// температуры. Файл опционален: без него для всех машин действует
// SENSOR_READING_THRESHOLD.
//
// Формат файла:
//
//	default_temperature_threshold: 100
//	machines:
//	  M003: 95
//	  M007: 110
type MachineThresholds struct {
	mu       sync.RWMutex
	fallback float64
	byID     map[string]float64
}

type thresholdsFile struct {
	DefaultTemperatureThreshold *float64           `yaml:"default_temperature_threshold"`
	Machines                    map[string]float64 `yaml:"machines"`
}

// NewMachineThresholds создает пустой набор порогов с fallback значением.
func NewMachineThresholds(fallback float64) *MachineThresholds {
	return &MachineThresholds{
		fallback: fallback,
		byID:     make(map[string]float64),
	}
}

// LoadMachineThresholds читает YAML файл порогов.
func LoadMachineThresholds(path string, fallback float64) (*MachineThresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	var parsed thresholdsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse thresholds file: %w", err)
	}

	t := NewMachineThresholds(fallback)
	if parsed.DefaultTemperatureThreshold != nil {
		t.fallback = *parsed.DefaultTemperatureThreshold
	}
	for id, threshold := range parsed.Machines {
		if threshold <= 0 {
			return nil, fmt.Errorf("invalid threshold %v for machine %s", threshold, id)
		}
		t.byID[id] = threshold
	}

	return t, nil
}

// TemperatureThreshold возвращает порог для машины (override или fallback).
func (t *MachineThresholds) TemperatureThreshold(machineID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if threshold, ok := t.byID[machineID]; ok {
		return threshold
	}
	return t.fallback
}

// Replace атомарно подменяет содержимое на данные из другого набора.
// Используется при hot reload файла порогов.
func (t *MachineThresholds) Replace(other *MachineThresholds) {
	other.mu.RLock()
	fallback := other.fallback
	byID := make(map[string]float64, len(other.byID))
	for k, v := range other.byID {
		byID[k] = v
	}
	other.mu.RUnlock()

	t.mu.Lock()
	t.fallback = fallback
	t.byID = byID
	t.mu.Unlock()
}
