package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
	_ "github.com/lib/pq"
)

// PostgresVerdictRepository реализует repository.VerdictRepository для PostgreSQL
type PostgresVerdictRepository struct {
	db *sql.DB
}

// NewPostgresVerdictRepository создает новый PostgreSQL repository
func NewPostgresVerdictRepository(db *sql.DB) *PostgresVerdictRepository {
	return &PostgresVerdictRepository{
		db: db,
	}
}

const verdictColumns = `machine_id, last_reading_time, total_readings, anomalous_readings,
		avg_temperature, max_vibration, min_signal_strength, failure_risk_score,
		health_status, recommendation, evaluated_at`

// ReplaceAll атомарно заменяет весь набор вердиктов одной транзакцией.
// DELETE + INSERT в одной транзакции: читатели видят либо полностью
// старый набор, либо полностью новый.
func (r *PostgresVerdictRepository) ReplaceAll(ctx context.Context, verdicts []*entity.MachineHealthVerdict) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM machine_health_verdicts`); err != nil {
		return fmt.Errorf("failed to clear verdicts: %w", err)
	}

	if len(verdicts) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO machine_health_verdicts (machine_id, last_reading_time, total_readings,
				anomalous_readings, avg_temperature, max_vibration, min_signal_strength,
				failure_risk_score, health_status, recommendation, evaluated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, verdict := range verdicts {
			model := VerdictToDBModel(verdict)

			_, err = stmt.ExecContext(ctx,
				model.MachineID,
				model.LastReadingTime,
				model.TotalReadings,
				model.AnomalousReadings,
				model.AvgTemperature,
				model.MaxVibration,
				model.MinSignalStrength,
				model.FailureRiskScore,
				model.HealthStatus,
				model.Recommendation,
				model.EvaluatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert verdict for %s: %w", model.MachineID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindAll возвращает все вердикты, отсортированные по риску по убыванию
func (r *PostgresVerdictRepository) FindAll(ctx context.Context) ([]*entity.MachineHealthVerdict, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM machine_health_verdicts
		ORDER BY failure_risk_score DESC, machine_id ASC
	`, verdictColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	return scanVerdicts(rows)
}

// FindByStatus возвращает вердикты с указанным статусом,
// отсортированные по риску по убыванию
func (r *PostgresVerdictRepository) FindByStatus(ctx context.Context, status valueobject.HealthStatus) ([]*entity.MachineHealthVerdict, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM machine_health_verdicts
		WHERE health_status = $1
		ORDER BY failure_risk_score DESC, machine_id ASC
	`, verdictColumns)

	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts by status: %w", err)
	}
	defer rows.Close()

	return scanVerdicts(rows)
}

// FindByMachine возвращает вердикт одной машины (nil если вердикта нет)
func (r *PostgresVerdictRepository) FindByMachine(ctx context.Context, machineID string) (*entity.MachineHealthVerdict, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM machine_health_verdicts
		WHERE machine_id = $1
	`, verdictColumns)

	row := r.db.QueryRowContext(ctx, query, machineID)
	model, err := ScanVerdictRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan verdict: %w", err)
	}

	return VerdictToEntity(model), nil
}

// scanVerdicts сканирует все строки результата в Domain Entities
func scanVerdicts(rows *sql.Rows) ([]*entity.MachineHealthVerdict, error) {
	var verdicts []*entity.MachineHealthVerdict

	for rows.Next() {
		model, err := ScanVerdictRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		verdicts = append(verdicts, VerdictToEntity(model))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verdicts: %w", err)
	}

	return verdicts, nil
}
