// sensor-datagen генерирует синтетические показания датчиков в CSV формате,
// который понимает ingest pipeline. Обычный режим выдает случайную смесь
// нормальных и аномальных показаний; режим --critical-demo строит ramp от
// здоровых значений к критическим для демонстрации alert-цепочки.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dreschagin/factory-health-monitor/pkg/config"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

// Нормальные рабочие диапазоны датчиков.
var normalRanges = struct {
	tempMin, tempMax float64
	vibMin, vibMax   float64
	presMin, presMax float64
}{65.0, 80.0, 0.01, 0.2, 98.0, 102.0}

// Пороги warning и critical аномалий.
const (
	warnTemp     = 85.0
	warnVib      = 0.5
	warnPresHigh = 105.0
	warnPresLow  = 95.0

	critTemp     = 95.0
	critVib      = 0.8
	critPresHigh = 110.0
	critPresLow  = 92.0
)

type record struct {
	machineID   string
	timestamp   time.Time
	temperature float64
	vibration   float64
	pressure    float64
	statusCode  string
}

func main() {
	records := flag.Int("records", 100, "number of records to generate")
	output := flag.String("output", "data/generated_sensor_data.csv", "output CSV file path")
	anomalies := flag.Float64("anomalies", 0.15, "probability of anomalous readings (0-1)")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	criticalDemo := flag.Bool("critical-demo", false, "generate ramp from healthy to critical for demo machines")
	upload := flag.Bool("upload", false, "upload the generated file to the configured ingest S3 bucket")
	flag.Parse()

	log := logger.New(os.Getenv("LOG_LEVEL"))

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	var data []record
	if *criticalDemo {
		data = generateCriticalDemo(rng)
	} else {
		data = generateSensorData(rng, *records, *anomalies)
	}

	sort.Slice(data, func(i, j int) bool {
		return data[i].timestamp.Before(data[j].timestamp)
	})

	content, err := encodeCSV(data)
	if err != nil {
		log.Error("Failed to encode CSV", err)
		os.Exit(1)
	}

	if err := writeFile(*output, content); err != nil {
		log.Error("Failed to write output file", err)
		os.Exit(1)
	}
	log.Info("Generated sensor data", "records", len(data), "file", *output)

	if *upload {
		if err := uploadToS3(context.Background(), *output, content, log); err != nil {
			log.Error("Failed to upload to S3", err)
			os.Exit(1)
		}
	}
}

// generateSensorData выдает случайную смесь показаний для машин M001-M010.
// Примерно 30% аномалий критические, остальные warning.
func generateSensorData(rng *rand.Rand, count int, anomalyProbability float64) []record {
	machines := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		machines = append(machines, fmt.Sprintf("M%03d", i))
	}

	baseTime := time.Now().Add(-time.Duration(rng.Intn(25)) * time.Hour)

	data := make([]record, 0, count)
	for i := 0; i < count; i++ {
		rec := record{
			machineID: machines[rng.Intn(len(machines))],
			timestamp: baseTime.Add(
				time.Duration(rng.Intn(61))*time.Minute +
					time.Duration(rng.Intn(60))*time.Second,
			),
		}

		isAnomaly := rng.Float64() < anomalyProbability
		isCritical := isAnomaly && rng.Float64() < 0.3

		switch {
		case isCritical:
			fillCriticalAnomaly(rng, &rec)
		case isAnomaly:
			fillWarningAnomaly(rng, &rec)
		default:
			rec.temperature = uniform(rng, normalRanges.tempMin, normalRanges.tempMax)
			rec.vibration = uniform(rng, normalRanges.vibMin, normalRanges.vibMax)
			rec.pressure = uniform(rng, normalRanges.presMin, normalRanges.presMax)
			rec.statusCode = "AOK"
		}

		data = append(data, rec)
	}

	return data
}

func fillCriticalAnomaly(rng *rand.Rand, rec *record) {
	rec.temperature = uniform(rng, normalRanges.tempMin, normalRanges.tempMax)
	rec.vibration = uniform(rng, normalRanges.vibMin, normalRanges.vibMax)
	rec.pressure = uniform(rng, normalRanges.presMin, normalRanges.presMax)
	rec.statusCode = "CRIT"

	switch rng.Intn(3) {
	case 0:
		rec.temperature = uniform(rng, critTemp, critTemp+10)
	case 1:
		rec.vibration = uniform(rng, critVib, critVib+0.5)
	default:
		if rng.Float64() < 0.5 {
			rec.pressure = uniform(rng, critPresHigh, critPresHigh+5)
		} else {
			rec.pressure = uniform(rng, critPresLow-5, critPresLow)
		}
	}
}

func fillWarningAnomaly(rng *rand.Rand, rec *record) {
	rec.temperature = uniform(rng, normalRanges.tempMin, normalRanges.tempMax)
	rec.vibration = uniform(rng, normalRanges.vibMin, normalRanges.vibMax)
	rec.pressure = uniform(rng, normalRanges.presMin, normalRanges.presMax)
	rec.statusCode = "WARN"

	switch rng.Intn(3) {
	case 0:
		rec.temperature = uniform(rng, warnTemp, critTemp)
	case 1:
		rec.vibration = uniform(rng, warnVib, critVib)
	default:
		if rng.Float64() < 0.5 {
			rec.pressure = uniform(rng, warnPresHigh, critPresHigh)
		} else {
			rec.pressure = uniform(rng, critPresLow, warnPresLow)
		}
	}
}

// generateCriticalDemo строит последний час показаний для трех машин:
// температура и вибрация линейно растут от здоровых значений к критическим.
func generateCriticalDemo(rng *rand.Rand) []record {
	machines := []string{"M001", "M003", "M007"}

	end := time.Now()
	start := end.Add(-time.Hour)
	const steps = 12

	data := make([]record, 0, len(machines)*steps)
	for _, machineID := range machines {
		for i := 0; i < steps; i++ {
			progress := float64(i) / float64(steps)
			timestamp := start.Add(time.Duration(i) * 5 * time.Minute)

			temperature := 72 + 25*progress + rng.NormFloat64()*2
			vibration := 0.35 + 0.6*progress + rng.NormFloat64()*0.05
			if vibration < 0 {
				vibration = 0
			}
			pressure := 120 + rng.NormFloat64()*10

			statusCode := "AOK"
			switch {
			case progress >= 0.7:
				statusCode = "CRIT"
			case progress >= 0.3:
				statusCode = "WARN"
			}

			data = append(data, record{
				machineID:   machineID,
				timestamp:   timestamp,
				temperature: temperature,
				vibration:   vibration,
				pressure:    pressure,
				statusCode:  statusCode,
			})
		}
	}

	return data
}

func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

func encodeCSV(data []record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"machine_id", "timestamp", "temperature", "vibration", "pressure", "status_code"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, rec := range data {
		row := []string{
			rec.machineID,
			rec.timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.FormatFloat(rec.temperature, 'f', 1, 64),
			strconv.FormatFloat(rec.vibration, 'f', 2, 64),
			strconv.FormatFloat(rec.pressure, 'f', 1, 64),
			rec.statusCode,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, content, 0o644)
}

// uploadToS3 кладет файл в ingest бакет из конфигурации приложения,
// чтобы следующий poll подхватил его.
func uploadToS3(ctx context.Context, localPath string, content []byte, log *logger.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Ingest.S3Region),
	}
	if cfg.Ingest.AccessKeyID != "" && cfg.Ingest.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Ingest.AccessKeyID, cfg.Ingest.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Ingest.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Ingest.S3Endpoint)
		}
		o.UsePathStyle = cfg.Ingest.UsePathStyle
	})

	key := cfg.Ingest.S3Prefix + filepath.Base(localPath)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(cfg.Ingest.S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	log.Info("Uploaded sensor data", "bucket", cfg.Ingest.S3Bucket, "key", key)
	return nil
}
