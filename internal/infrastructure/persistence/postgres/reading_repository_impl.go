package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dreschagin/factory-health-monitor/internal/domain/entity"
	"github.com/dreschagin/factory-health-monitor/internal/domain/valueobject"
	_ "github.com/lib/pq"
)

// PostgresReadingRepository реализует repository.ReadingRepository для PostgreSQL
type PostgresReadingRepository struct {
	db *sql.DB
}

// NewPostgresReadingRepository создает новый PostgreSQL repository
func NewPostgresReadingRepository(db *sql.DB) *PostgresReadingRepository {
	return &PostgresReadingRepository{
		db: db,
	}
}

const readingColumns = `id, machine_id, event_time, temperature, vibration, pressure,
		status_code, signal_strength, is_anomalous, reading_status, created_at`

// SaveBatch сохраняет несколько показаний одной транзакцией
func (r *PostgresReadingRepository) SaveBatch(ctx context.Context, readings []*entity.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sensor_readings (id, machine_id, event_time, temperature, vibration, pressure,
			status_code, signal_strength, is_anomalous, reading_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, reading := range readings {
		model := ReadingToDBModel(reading)

		_, err = stmt.ExecContext(ctx,
			model.ID,
			model.MachineID,
			model.EventTime,
			model.Temperature,
			model.Vibration,
			model.Pressure,
			model.StatusCode,
			model.SignalStrength,
			model.IsAnomalous,
			model.Status,
			model.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindMachineIDs возвращает идентификаторы машин с валидными показаниями в окне
func (r *PostgresReadingRepository) FindMachineIDs(ctx context.Context, window valueobject.TimeRange) ([]string, error) {
	query := `
		SELECT DISTINCT machine_id
		FROM sensor_readings
		WHERE event_time >= $1 AND event_time <= $2
		  AND reading_status != $3
		ORDER BY machine_id
	`

	rows, err := r.db.QueryContext(ctx, query, window.Start(), window.End(), string(valueobject.ReadingInvalid))
	if err != nil {
		return nil, fmt.Errorf("failed to query machine ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan machine id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating machine ids: %w", err)
	}

	return ids, nil
}

// FindValidByMachine находит валидные показания машины в окне
func (r *PostgresReadingRepository) FindValidByMachine(ctx context.Context, machineID string, window valueobject.TimeRange) ([]*entity.Reading, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM sensor_readings
		WHERE machine_id = $1
		  AND event_time >= $2 AND event_time <= $3
		  AND reading_status != $4
		ORDER BY event_time ASC
	`, readingColumns)

	rows, err := r.db.QueryContext(ctx, query, machineID, window.Start(), window.End(), string(valueobject.ReadingInvalid))
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// FindRecent находит последние показания, опционально по машине
func (r *PostgresReadingRepository) FindRecent(ctx context.Context, machineID string, limit int) ([]*entity.Reading, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if machineID != "" {
		query := fmt.Sprintf(`
			SELECT %s
			FROM sensor_readings
			WHERE machine_id = $1
			ORDER BY event_time DESC
			LIMIT $2
		`, readingColumns)
		rows, err = r.db.QueryContext(ctx, query, machineID, limit)
	} else {
		query := fmt.Sprintf(`
			SELECT %s
			FROM sensor_readings
			ORDER BY event_time DESC
			LIMIT $1
		`, readingColumns)
		rows, err = r.db.QueryContext(ctx, query, limit)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query recent readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// DeleteOlderThan удаляет показания старше начала окна (retention)
func (r *PostgresReadingRepository) DeleteOlderThan(ctx context.Context, window valueobject.TimeRange) (int64, error) {
	query := `DELETE FROM sensor_readings WHERE event_time < $1`

	result, err := r.db.ExecContext(ctx, query, window.Start())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old readings: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}

// Count возвращает количество показаний по статусу
func (r *PostgresReadingRepository) Count(ctx context.Context, status valueobject.ReadingStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM sensor_readings WHERE reading_status = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, string(status)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}

	return count, nil
}

// scanReadings сканирует все строки результата в Domain Entities
func scanReadings(rows *sql.Rows) ([]*entity.Reading, error) {
	var readings []*entity.Reading

	for rows.Next() {
		model, err := ScanReadingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, ReadingToEntity(model))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating readings: %w", err)
	}

	return readings, nil
}
