package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dreschagin/factory-health-monitor/internal/application/port"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	historyPartition = "ALERT"
)

// Config holds connection settings for the alert history table.
type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// AlertHistoryRepository stores dispatch attempts in a single-partition
// DynamoDB table, sorted by dispatch time.
type AlertHistoryRepository struct {
	client    *dynamodb.Client
	tableName string
}

// historyItem is the DynamoDB representation of an AlertHistoryRecord.
type historyItem struct {
	PK           string   `dynamodbav:"PK"`
	SK           string   `dynamodbav:"SK"`
	ID           string   `dynamodbav:"id"`
	DispatchedAt string   `dynamodbav:"dispatched_at"`
	Status       string   `dynamodbav:"status"`
	EmailSent    bool     `dynamodbav:"email_sent"`
	MessageID    string   `dynamodbav:"message_id,omitempty"`
	Error        string   `dynamodbav:"error,omitempty"`
	MachineIDs   []string `dynamodbav:"machine_ids,omitempty"`
	ReportJSON   []byte   `dynamodbav:"report_json,omitempty"`
}

// NewAlertHistoryRepository creates a DynamoDB-backed alert history store.
func NewAlertHistoryRepository(ctx context.Context, cfg Config) (*AlertHistoryRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return &AlertHistoryRepository{
		client:    client,
		tableName: cfg.TableName,
	}, nil
}

// Put сохраняет запись об отправке отчета
func (r *AlertHistoryRepository) Put(ctx context.Context, record port.AlertHistoryRecord) error {
	if record.ID == "" {
		return fmt.Errorf("alert history record id is required")
	}
	if record.DispatchedAt.IsZero() {
		record.DispatchedAt = time.Now().UTC()
	}

	dispatchedAt := record.DispatchedAt.UTC().Format(time.RFC3339Nano)

	item, err := attributevalue.MarshalMap(historyItem{
		PK:           historyPartition,
		SK:           dispatchedAt + "#" + record.ID,
		ID:           record.ID,
		DispatchedAt: dispatchedAt,
		Status:       record.Status,
		EmailSent:    record.EmailSent,
		MessageID:    record.MessageID,
		Error:        record.Error,
		MachineIDs:   record.MachineIDs,
		ReportJSON:   record.ReportJSON,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert history item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put alert history item: %w", err)
	}

	return nil
}

// ListRecent возвращает последние записи, новые первыми
func (r *AlertHistoryRepository) ListRecent(ctx context.Context, limit int) ([]port.AlertHistoryRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	limit32 := int32(limit)
	forward := false

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &r.tableName,
		KeyConditionExpression: strPtr("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: historyPartition},
		},
		ScanIndexForward: &forward,
		Limit:            &limit32,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}

	records := make([]port.AlertHistoryRecord, 0, len(out.Items))
	for _, raw := range out.Items {
		var item historyItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert history item: %w", err)
		}

		dispatchedAt, err := time.Parse(time.RFC3339Nano, item.DispatchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dispatched_at %q: %w", item.DispatchedAt, err)
		}

		records = append(records, port.AlertHistoryRecord{
			ID:           item.ID,
			DispatchedAt: dispatchedAt,
			Status:       item.Status,
			EmailSent:    item.EmailSent,
			MessageID:    item.MessageID,
			Error:        item.Error,
			MachineIDs:   item.MachineIDs,
			ReportJSON:   item.ReportJSON,
		})
	}

	return records, nil
}

func strPtr(s string) *string { return &s }
