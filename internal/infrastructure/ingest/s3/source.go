package s3

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/internal/infrastructure/ingest"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// ReadingSource polls an S3 bucket prefix for new CSV drops. Processed
// keys are tracked in memory: a restart re-reads the whole prefix, which
// is safe because evaluation runs are idempotent.
type ReadingSource struct {
	client *s3.Client
	bucket string
	prefix string
	log    *logger.Logger

	mu        sync.Mutex
	processed map[string]struct{}
}

func NewReadingSource(ctx context.Context, cfg Config, log *logger.Logger) (*ReadingSource, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if strings.TrimSpace(cfg.AccessKeyID) == "" || strings.TrimSpace(cfg.SecretAccessKey) == "" {
		return nil, fmt.Errorf("s3 access key id and secret are required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "ru-central1"
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = "https://storage.yandexcloud.net"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		options.BaseEndpoint = &cfg.Endpoint
		options.UsePathStyle = cfg.UsePathStyle
	})

	return &ReadingSource{
		client:    client,
		bucket:    strings.TrimSpace(cfg.Bucket),
		prefix:    strings.TrimPrefix(strings.TrimSpace(cfg.Prefix), "/"),
		log:       log,
		processed: make(map[string]struct{}),
	}, nil
}

// Name возвращает имя источника для логов и метрик
func (s *ReadingSource) Name() string {
	return "s3:" + s.bucket
}

// FetchNew находит еще не обработанные CSV объекты под префиксом,
// скачивает и разбирает их. Ключи обходятся в лексикографическом порядке,
// что для timestamped имен дает хронологию.
func (s *ReadingSource) FetchNew(ctx context.Context) ([]port.ReadingBatch, error) {
	keys, err := s.listNewKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	batches := make([]port.ReadingBatch, 0, len(keys))
	for _, key := range keys {
		batch, err := s.fetchObject(ctx, key)
		if err != nil {
			// Битый объект помечаем обработанным, чтобы не зацикливаться
			s.log.Error("Failed to process s3 object, skipping", err, "key", key)
			s.markProcessed(key)
			continue
		}

		batches = append(batches, batch)
		s.markProcessed(key)
	}

	return batches, nil
}

// listNewKeys возвращает CSV ключи под префиксом, которых нет в курсоре
func (s *ReadingSource) listNewKeys(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &s.prefix,
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3 objects: %w", err)
		}

		for _, object := range page.Contents {
			if object.Key == nil {
				continue
			}
			key := *object.Key
			if !strings.HasSuffix(key, ".csv") {
				continue
			}
			if s.isProcessed(key) {
				continue
			}
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// fetchObject скачивает и разбирает один объект
func (s *ReadingSource) fetchObject(ctx context.Context, key string) (port.ReadingBatch, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return port.ReadingBatch{}, fmt.Errorf("failed to get s3 object %s: %w", key, err)
	}
	defer out.Body.Close()

	source := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	batch, err := ingest.ParseReadings(source, out.Body)
	if err != nil {
		return port.ReadingBatch{}, err
	}

	return batch, nil
}

func (s *ReadingSource) isProcessed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[key]
	return ok
}

func (s *ReadingSource) markProcessed(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[key] = struct{}{}
}
