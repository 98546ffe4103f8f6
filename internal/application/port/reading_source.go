package port

import (
	"context"
	"time"
)

// RawRecord - один сырой кортеж показания, как он пришел из источника.
type RawRecord struct {
	MachineID   string
	Timestamp   time.Time
	Temperature float64
	Vibration   float64
	Pressure    float64
	StatusCode  string
}

// ReadingBatch - содержимое одного файла/объекта источника.
// Malformed - количество строк, пропущенных при разборе (continue on row error).
type ReadingBatch struct {
	Source    string
	Records   []RawRecord
	Malformed int
}

// ReadingSource определяет интерфейс источника сырых показаний (Port).
// Реализации: S3 bucket polling и локальная drop-директория.
type ReadingSource interface {
	// FetchNew возвращает батчи из еще не обработанных файлов.
	// Источник сам ведет курсор обработанных ключей.
	FetchNew(ctx context.Context) ([]ReadingBatch, error)

	// Name возвращает имя источника для логов и метрик
	Name() string
}
