package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

func mustVerdict(t *testing.T, machineID string, risk float64, status valueobject.HealthStatus) *entity.MachineHealthVerdict {
	t.Helper()

	v, err := entity.NewMachineHealthVerdict(machineID, time.Now(), 10, 1, 72.5, 0.4, 60, risk, status)
	if err != nil {
		t.Fatalf("failed to build verdict: %v", err)
	}
	return v
}

func seededVerdictRepo(t *testing.T) *mockVerdictRepository {
	t.Helper()

	repo := &mockVerdictRepository{}
	repo.replaced = append(repo.replaced, []*entity.MachineHealthVerdict{
		mustVerdict(t, "M001", 90, valueobject.Critical),
		mustVerdict(t, "M002", 30, valueobject.Healthy),
		mustVerdict(t, "M003", 60, valueobject.NeedsMaintenance),
	})
	return repo
}

func TestGetMachineHealth_Snapshot(t *testing.T) {
	uc := NewGetMachineHealthUseCase(seededVerdictRepo(t), &mockCache{}, logger.New("error"))

	snapshot, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(snapshot.Machines) != 3 {
		t.Fatalf("expected 3 machines, got %d", len(snapshot.Machines))
	}
	if snapshot.Summary.CriticalCount != 1 || snapshot.Summary.OverallStatus != "critical" {
		t.Errorf("unexpected summary: %+v", snapshot.Summary)
	}
}

func TestGetMachineHealth_ForMachine(t *testing.T) {
	uc := NewGetMachineHealthUseCase(seededVerdictRepo(t), &mockCache{}, logger.New("error"))

	verdict, err := uc.ExecuteForMachine(context.Background(), "M001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict == nil || verdict.MachineID != "M001" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}

	missing, err := uc.ExecuteForMachine(context.Background(), "M999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil verdict for unknown machine, got %+v", missing)
	}

	if _, err := uc.ExecuteForMachine(context.Background(), ""); err == nil {
		t.Error("expected error for empty machine id")
	}
}

func TestGetMachineHealth_ForStatus(t *testing.T) {
	uc := NewGetMachineHealthUseCase(seededVerdictRepo(t), &mockCache{}, logger.New("error"))

	verdicts, err := uc.ExecuteForStatus(context.Background(), valueobject.Critical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verdicts) != 1 || verdicts[0].MachineID != "M001" {
		t.Fatalf("unexpected critical verdicts: %+v", verdicts)
	}

	if _, err := uc.ExecuteForStatus(context.Background(), valueobject.HealthStatus("BROKEN")); err == nil {
		t.Error("expected error for unknown status")
	}
}
