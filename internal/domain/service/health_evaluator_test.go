package service

import (
	"testing"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
)

func validReading(t *testing.T, machineID string, eventTime time.Time, temp, vib float64, statusCode string) *entity.Reading {
	t.Helper()

	v := NewReadingValidator(ValidationStrict, StaticThreshold(100))
	reading, err := v.Validate(RawReading{
		MachineID:   machineID,
		EventTime:   eventTime,
		Temperature: temp,
		Vibration:   vib,
		Pressure:    100,
		StatusCode:  statusCode,
	})
	if err != nil {
		t.Fatalf("failed to build reading: %v", err)
	}
	return reading
}

func TestEvaluate_EmptyWindowEmitsNoVerdict(t *testing.T) {
	e, err := NewHealthEvaluator(PolicyThreshold)
	if err != nil {
		t.Fatalf("NewHealthEvaluator() error = %v", err)
	}

	verdict, err := e.Evaluate("M001", nil)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict != nil {
		t.Error("empty window must not emit a verdict")
	}
}

func TestEvaluate_InvalidReadingsExcluded(t *testing.T) {
	e, _ := NewHealthEvaluator(PolicyThreshold)
	v := NewReadingValidator(ValidationStrict, StaticThreshold(100))

	// Единственное показание вне диапазона: окно фактически пустое.
	invalid, err := v.Validate(RawReading{
		MachineID:   "M001",
		EventTime:   time.Now(),
		Temperature: 200,
		Vibration:   0.1,
		Pressure:    100,
		StatusCode:  "AOK",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	verdict, err := e.Evaluate("M001", []*entity.Reading{invalid})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict != nil {
		t.Error("machine with only invalid readings must not get a verdict")
	}
}

func TestEvaluate_ThresholdPolicy(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		temp       float64
		vib        float64
		wantRisk   float64
		wantStatus valueobject.HealthStatus
		wantRec    string
	}{
		{"critical by temperature and vibration", 95, 0.9, 90, valueobject.Critical, "Immediate maintenance required"},
		{"critical by vibration alone", 70, 0.85, 90, valueobject.Critical, "Immediate maintenance required"},
		{"needs maintenance", 80, 0.5, 60, valueobject.NeedsMaintenance, "Schedule maintenance within 48 hours"},
		{"healthy", 70, 0.5, 30, valueobject.Healthy, "No action needed"},
		// Границы строгие: ровно 90.0 и 0.8 падают в следующую ветку.
		{"avg temperature exactly 90 is not critical", 90, 0.1, 60, valueobject.NeedsMaintenance, "Schedule maintenance within 48 hours"},
		{"max vibration exactly 0.8 is not critical", 70, 0.8, 60, valueobject.NeedsMaintenance, "Schedule maintenance within 48 hours"},
		{"avg temperature exactly 75 is healthy", 75, 0.1, 30, valueobject.Healthy, "No action needed"},
	}

	e, _ := NewHealthEvaluator(PolicyThreshold)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings := []*entity.Reading{
				validReading(t, "M1", now, tt.temp, tt.vib, "AOK"),
			}

			verdict, err := e.Evaluate("M1", readings)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if verdict == nil {
				t.Fatal("expected a verdict")
			}
			if verdict.FailureRiskScore() != tt.wantRisk {
				t.Errorf("risk = %v, want %v", verdict.FailureRiskScore(), tt.wantRisk)
			}
			if verdict.HealthStatus() != tt.wantStatus {
				t.Errorf("status = %s, want %s", verdict.HealthStatus(), tt.wantStatus)
			}
			if verdict.Recommendation() != tt.wantRec {
				t.Errorf("recommendation = %q, want %q", verdict.Recommendation(), tt.wantRec)
			}
		})
	}
}

func TestEvaluate_WeightedPolicy(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, _ := NewHealthEvaluator(PolicyWeighted)

	// avg_temperature=80 -> 60, max_vibration=0.4 -> 80,
	// min_signal_strength=100, pressure_score=80:
	// overall = 60*0.3 + 80*0.3 + 100*0.2 + 80*0.2 = 78 -> NEEDS_MAINTENANCE
	readings := []*entity.Reading{
		validReading(t, "M1", now, 80, 0.4, "AOK"),
	}

	verdict, err := e.Evaluate("M1", readings)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.HealthStatus() != valueobject.NeedsMaintenance {
		t.Errorf("status = %s, want NEEDS_MAINTENANCE", verdict.HealthStatus())
	}
	if got, want := verdict.FailureRiskScore(), 100.0-78.0; got != want {
		t.Errorf("risk = %v, want %v", got, want)
	}
}

func TestEvaluate_WeightedPolicyScenario(t *testing.T) {
	// temp_score(70)=80, vib_score(0.4)=80, noise=100, pressure=80
	// overall = 80*0.3 + 80*0.3 + 100*0.2 + 80*0.2 = 84 -> HEALTHY
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, _ := NewHealthEvaluator(PolicyWeighted)

	verdict, err := e.Evaluate("M1", []*entity.Reading{
		validReading(t, "M1", now, 70, 0.4, "AOK"),
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.HealthStatus() != valueobject.Healthy {
		t.Errorf("status = %s, want HEALTHY (overall 84)", verdict.HealthStatus())
	}
	if got, want := verdict.FailureRiskScore(), 16.0; got != want {
		t.Errorf("risk = %v, want %v", got, want)
	}
}

func TestEvaluate_WeightedBucketBoundaries(t *testing.T) {
	tests := []struct {
		value   float64
		buckets []bucket
		want    float64
	}{
		{59.9, []bucket{{60, 100}, {75, 80}, {85, 60}, {95, 40}}, 100},
		{60, []bucket{{60, 100}, {75, 80}, {85, 60}, {95, 40}}, 80},
		{95, []bucket{{60, 100}, {75, 80}, {85, 60}, {95, 40}}, 20},
		{0.3, []bucket{{0.3, 100}, {0.5, 80}, {0.7, 60}, {0.9, 40}}, 80},
		{0.29, []bucket{{0.3, 100}, {0.5, 80}, {0.7, 60}, {0.9, 40}}, 100},
	}

	for _, tt := range tests {
		if got := bucketScore(tt.value, tt.buckets, 20); got != tt.want {
			t.Errorf("bucketScore(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestEvaluate_Aggregates(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, _ := NewHealthEvaluator(PolicyThreshold)

	readings := []*entity.Reading{
		validReading(t, "M1", base, 70, 0.2, "AOK"),
		validReading(t, "M1", base.Add(5*time.Minute), 74, 0.6, "WARN"),
		validReading(t, "M1", base.Add(10*time.Minute), 72, 1.2, "CRIT"), // аномальное
	}

	verdict, err := e.Evaluate("M1", readings)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if verdict.TotalReadings() != 3 {
		t.Errorf("total readings = %d, want 3", verdict.TotalReadings())
	}
	if verdict.AnomalousReadings() != 1 {
		t.Errorf("anomalous readings = %d, want 1", verdict.AnomalousReadings())
	}
	if verdict.AvgTemperature() != 72 {
		t.Errorf("avg temperature = %v, want 72", verdict.AvgTemperature())
	}
	if verdict.MaxVibration() != 1.2 {
		t.Errorf("max vibration = %v, want 1.2", verdict.MaxVibration())
	}
	if verdict.MinSignalStrength() != 20 {
		t.Errorf("min signal strength = %d, want 20", verdict.MinSignalStrength())
	}
	if !verdict.LastReadingTime().Equal(base.Add(10 * time.Minute)) {
		t.Errorf("last reading time = %v, want %v", verdict.LastReadingTime(), base.Add(10*time.Minute))
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, policy := range []ScoringPolicy{PolicyThreshold, PolicyWeighted} {
		e, _ := NewHealthEvaluator(policy)
		readings := []*entity.Reading{
			validReading(t, "M1", now, 82, 0.55, "WARN"),
			validReading(t, "M1", now.Add(time.Minute), 88, 0.3, "AOK"),
		}

		first, err := e.Evaluate("M1", readings)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		second, err := e.Evaluate("M1", readings)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}

		if first.FailureRiskScore() != second.FailureRiskScore() ||
			first.HealthStatus() != second.HealthStatus() ||
			first.TotalReadings() != second.TotalReadings() {
			t.Errorf("policy %s: re-evaluation of unchanged window differs", policy)
		}
	}
}
