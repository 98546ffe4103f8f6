package service

import (
	"testing"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

func testRaw(overrides func(*RawReading)) RawReading {
	raw := RawReading{
		MachineID:   "M001",
		EventTime:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Temperature: 72.0,
		Vibration:   0.15,
		Pressure:    100.0,
		StatusCode:  "AOK",
	}
	if overrides != nil {
		overrides(&raw)
	}
	return raw
}

func TestValidate_NormalReading(t *testing.T) {
	v := NewReadingValidator(ValidationStrict, StaticThreshold(100))

	reading, err := v.Validate(testRaw(nil))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if reading.Status() != valueobject.ReadingNormal {
		t.Errorf("status = %s, want normal", reading.Status())
	}
	if reading.SignalStrength() != 100 {
		t.Errorf("signal strength = %d, want 100", reading.SignalStrength())
	}
	if reading.IsAnomalous() {
		t.Error("reading should not be anomalous")
	}
	if !reading.IsValid() {
		t.Error("reading should be valid")
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	v := NewReadingValidator(ValidationStrict, StaticThreshold(100))

	if _, err := v.Validate(testRaw(func(r *RawReading) { r.MachineID = "" })); err == nil {
		t.Error("expected error for missing machine id")
	}
	if _, err := v.Validate(testRaw(func(r *RawReading) { r.EventTime = time.Time{} })); err == nil {
		t.Error("expected error for missing event time")
	}
}

func TestValidate_StrictRejectsOutOfRangeRow(t *testing.T) {
	v := NewReadingValidator(ValidationStrict, StaticThreshold(100))

	tests := []struct {
		name      string
		overrides func(*RawReading)
	}{
		{"temperature above 150", func(r *RawReading) { r.Temperature = 151 }},
		{"temperature below 0", func(r *RawReading) { r.Temperature = -1 }},
		{"vibration above 2.0", func(r *RawReading) { r.Vibration = 2.5 }},
		{"pressure above 500", func(r *RawReading) { r.Pressure = 501 }},
		{"pressure below 0", func(r *RawReading) { r.Pressure = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := v.Validate(testRaw(tt.overrides))
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if reading.Status() != valueobject.ReadingInvalid {
				t.Errorf("status = %s, want invalid", reading.Status())
			}
			if reading.IsValid() {
				t.Error("out-of-range reading must be excluded from aggregation")
			}
		})
	}
}

func TestValidate_LenientNullsOnlyFailedField(t *testing.T) {
	v := NewReadingValidator(ValidationLenient, StaticThreshold(100))

	reading, err := v.Validate(testRaw(func(r *RawReading) { r.Temperature = 200 }))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if reading.Temperature() != nil {
		t.Error("failed temperature should be nulled")
	}
	if reading.Vibration() == nil || reading.Pressure() == nil {
		t.Error("passing fields should be kept")
	}
	if reading.Status() == valueobject.ReadingInvalid {
		t.Error("lenient mode keeps the row")
	}
}

func TestValidate_SignalStrengthMapping(t *testing.T) {
	v := NewReadingValidator(ValidationStrict, StaticThreshold(100))

	tests := []struct {
		code string
		want int
	}{
		{"AOK", 100},
		{"WARN", 60},
		{"CRIT", 20},
		{"GARBAGE", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			reading, err := v.Validate(testRaw(func(r *RawReading) { r.StatusCode = tt.code }))
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if reading.SignalStrength() != tt.want {
				t.Errorf("signal strength for %q = %d, want %d", tt.code, reading.SignalStrength(), tt.want)
			}
		})
	}
}

func TestValidate_CritStatusAlwaysAnomalous(t *testing.T) {
	v := NewReadingValidator(ValidationStrict, StaticThreshold(100))

	// Все датчики в норме, но машина сама сообщает CRIT.
	reading, err := v.Validate(testRaw(func(r *RawReading) { r.StatusCode = "CRIT" }))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if !reading.IsAnomalous() {
		t.Error("CRIT status code must mark the reading anomalous")
	}
	if reading.SignalStrength() != 20 {
		t.Errorf("signal strength = %d, want 20", reading.SignalStrength())
	}
	if reading.Status() != valueobject.ReadingAnomalous {
		t.Errorf("status = %s, want anomalous", reading.Status())
	}
}

func TestValidate_AnomalyThresholds(t *testing.T) {
	tests := []struct {
		name      string
		mode      ValidationMode
		overrides func(*RawReading)
		want      bool
	}{
		{"temperature above configured threshold", ValidationStrict, func(r *RawReading) { r.Temperature = 101 }, true},
		{"temperature at threshold is not anomalous", ValidationStrict, func(r *RawReading) { r.Temperature = 100 }, false},
		{"vibration above 1.0", ValidationStrict, func(r *RawReading) { r.Vibration = 1.1 }, true},
		{"pressure above 450 in strict mode", ValidationStrict, func(r *RawReading) { r.Pressure = 460 }, true},
		{"pressure above 450 ignored in lenient mode", ValidationLenient, func(r *RawReading) { r.Pressure = 460 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewReadingValidator(tt.mode, StaticThreshold(100))
			reading, err := v.Validate(testRaw(tt.overrides))
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if reading.IsAnomalous() != tt.want {
				t.Errorf("IsAnomalous() = %v, want %v", reading.IsAnomalous(), tt.want)
			}
		})
	}
}

type perMachineThresholds map[string]float64

func (p perMachineThresholds) TemperatureThreshold(machineID string) float64 {
	if t, ok := p[machineID]; ok {
		return t
	}
	return 100
}

func TestValidate_PerMachineThresholdOverride(t *testing.T) {
	v := NewReadingValidator(ValidationStrict, perMachineThresholds{"M007": 90})

	hot := testRaw(func(r *RawReading) {
		r.MachineID = "M007"
		r.Temperature = 95
	})

	reading, err := v.Validate(hot)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !reading.IsAnomalous() {
		t.Error("95 degrees should be anomalous for M007 with threshold 90")
	}

	// Та же температура для машины без override - в норме.
	defaultMachine, err := v.Validate(testRaw(func(r *RawReading) { r.Temperature = 95 }))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if defaultMachine.IsAnomalous() {
		t.Error("95 degrees should not be anomalous with default threshold 100")
	}
}
