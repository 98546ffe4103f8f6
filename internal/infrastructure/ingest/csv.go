package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dreschagin/factory-health-monitor/internal/application/port"
)

// Ожидаемые колонки CSV файла показаний.
var expectedHeader = []string{"machine_id", "timestamp", "temperature", "vibration", "pressure", "status_code"}

// Поддерживаемые форматы timestamp.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseReadings разбирает CSV поток показаний. Битые строки (неверное
// число колонок, нечисловые значения, нераспознанный timestamp)
// пропускаются и считаются в Malformed; разбор продолжается.
func ParseReadings(source string, r io.Reader) (port.ReadingBatch, error) {
	batch := port.ReadingBatch{Source: source}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return batch, nil
	}
	if err != nil {
		return batch, fmt.Errorf("failed to read csv header: %w", err)
	}
	if err := validateHeader(header); err != nil {
		return batch, err
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// encoding/csv возвращает ParseError для кавычек и т.п.
			batch.Malformed++
			continue
		}

		record, ok := parseRow(row)
		if !ok {
			batch.Malformed++
			continue
		}

		batch.Records = append(batch.Records, record)
	}

	return batch, nil
}

// validateHeader проверяет заголовок файла
func validateHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return fmt.Errorf("unexpected csv header: %v", header)
	}
	for i, col := range header {
		if strings.TrimSpace(strings.ToLower(col)) != expectedHeader[i] {
			return fmt.Errorf("unexpected csv column %d: %q", i, col)
		}
	}
	return nil
}

// parseRow разбирает одну строку данных
func parseRow(row []string) (port.RawRecord, bool) {
	if len(row) != len(expectedHeader) {
		return port.RawRecord{}, false
	}

	machineID := strings.TrimSpace(row[0])
	if machineID == "" {
		return port.RawRecord{}, false
	}

	timestamp, ok := parseTimestamp(strings.TrimSpace(row[1]))
	if !ok {
		return port.RawRecord{}, false
	}

	temperature, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return port.RawRecord{}, false
	}
	vibration, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return port.RawRecord{}, false
	}
	pressure, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
	if err != nil {
		return port.RawRecord{}, false
	}

	return port.RawRecord{
		MachineID:   machineID,
		Timestamp:   timestamp,
		Temperature: temperature,
		Vibration:   vibration,
		Pressure:    pressure,
		StatusCode:  strings.TrimSpace(row[5]),
	}, true
}

// parseTimestamp пробует поддерживаемые форматы по очереди
func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
