package ses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/dreschagin/factory-health-monitor/internal/application/dto"
	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 200 * time.Millisecond

	charsetUTF8 = "UTF-8"
)

// Config holds SES dispatcher settings.
type Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Sender          string
	Recipients      []string
	MaxAttempts     int
	InitialBackoff  time.Duration
}

// emailSender is the subset of the SES client used by the dispatcher.
type emailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Dispatcher sends critical machine reports over SES with bounded retry.
type Dispatcher struct {
	client         emailSender
	sender         string
	recipients     []string
	maxAttempts    int
	initialBackoff time.Duration
	log            *logger.Logger
}

// NewDispatcher creates an SES-backed alert dispatcher.
func NewDispatcher(ctx context.Context, cfg Config, log *logger.Logger) (*Dispatcher, error) {
	if strings.TrimSpace(cfg.Sender) == "" {
		return nil, fmt.Errorf("ses sender address is required")
	}
	if len(cfg.Recipients) == 0 {
		return nil, fmt.Errorf("at least one ses recipient is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for ses: %w", err)
	}

	client := ses.NewFromConfig(awsCfg, func(options *ses.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return newDispatcher(client, cfg, log), nil
}

func newDispatcher(client emailSender, cfg Config, log *logger.Logger) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}

	return &Dispatcher{
		client:         client,
		sender:         cfg.Sender,
		recipients:     cfg.Recipients,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		log:            log,
	}
}

// SendCriticalReport отправляет отчет о критических машинах.
// Пустой отчет означает "все машины здоровы": письмо не отправляется,
// результат skipped. Сбой транспорта после всех попыток возвращается
// и в error, и в типизированном результате.
func (d *Dispatcher) SendCriticalReport(ctx context.Context, report *dto.CriticalReportDTO) (port.DispatchResult, error) {
	if report == nil || len(report.Machines) == 0 {
		return port.DispatchResult{Status: port.DispatchStatusSkipped}, nil
	}

	input := d.buildEmail(report)

	messageID, err := d.sendWithRetry(ctx, input)
	if err != nil {
		result := port.DispatchResult{
			Status: port.DispatchStatusError,
			Error:  err.Error(),
		}
		return result, err
	}

	d.log.Info("Critical report sent", "machines", len(report.Machines), "message_id", messageID)

	return port.DispatchResult{
		Status:    port.DispatchStatusSuccess,
		EmailSent: true,
		MessageID: messageID,
	}, nil
}

// sendWithRetry выполняет до maxAttempts попыток с экспоненциальным backoff
func (d *Dispatcher) sendWithRetry(ctx context.Context, input *ses.SendEmailInput) (string, error) {
	var lastErr error
	backoff := d.initialBackoff

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		out, err := d.client.SendEmail(ctx, input)
		if err == nil {
			return aws.ToString(out.MessageId), nil
		}

		lastErr = err
		d.log.Warn("Failed to send critical report", "attempt", attempt, "error", err.Error())

		if attempt == d.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	return "", fmt.Errorf("failed to send critical report after %d attempts: %w", d.maxAttempts, lastErr)
}

// buildEmail собирает письмо с текстовой и HTML версиями
func (d *Dispatcher) buildEmail(report *dto.CriticalReportDTO) *ses.SendEmailInput {
	subject := fmt.Sprintf("[Factory Health] %d critical machine(s) detected", len(report.Machines))

	return &ses.SendEmailInput{
		Source: aws.String(d.sender),
		Destination: &types.Destination{
			ToAddresses: d.recipients,
		},
		Message: &types.Message{
			Subject: content(subject),
			Body: &types.Body{
				Text: content(buildTextBody(report)),
				Html: content(buildHTMLBody(report)),
			},
		},
	}
}

func buildTextBody(report *dto.CriticalReportDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Critical machine report generated at %s\n\n", report.GeneratedAt.Format(time.RFC3339))
	for _, m := range report.Machines {
		fmt.Fprintf(&b, "- %s: risk %.1f, %s\n", m.MachineID, m.RiskScore, m.Issue)
	}
	return b.String()
}

func buildHTMLBody(report *dto.CriticalReportDTO) string {
	var b strings.Builder
	b.WriteString("<h2>Critical machine report</h2>")
	fmt.Fprintf(&b, "<p>Generated at %s</p>", report.GeneratedAt.Format(time.RFC3339))
	b.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>Machine</th><th>Risk</th><th>Action</th></tr>")
	for _, m := range report.Machines {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%.1f</td><td>%s</td></tr>", m.MachineID, m.RiskScore, m.Issue)
	}
	b.WriteString("</table>")
	return b.String()
}

func content(data string) *types.Content {
	return &types.Content{
		Data:    aws.String(data),
		Charset: aws.String(charsetUTF8),
	}
}
