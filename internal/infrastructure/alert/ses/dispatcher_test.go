package ses

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsses "github.com/aws/aws-sdk-go-v2/service/ses"

	"github.com/dreschagin/factory-health-monitor/internal/application/dto"
	"github.com/dreschagin/factory-health-monitor/internal/application/port"
	"github.com/dreschagin/factory-health-monitor/pkg/logger"
)

type fakeSender struct {
	inputs   []*awsses.SendEmailInput
	failures int
	err      error
}

func (f *fakeSender) SendEmail(_ context.Context, input *awsses.SendEmailInput, _ ...func(*awsses.Options)) (*awsses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, input)
	if len(f.inputs) <= f.failures {
		if f.err != nil {
			return nil, f.err
		}
		return nil, errors.New("throttled")
	}
	return &awsses.SendEmailOutput{MessageId: aws.String("msg-42")}, nil
}

func testConfig() Config {
	return Config{
		Sender:         "alerts@factory.example",
		Recipients:     []string{"ops@factory.example"},
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}
}

func criticalReport() *dto.CriticalReportDTO {
	return &dto.CriticalReportDTO{
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Machines: []dto.CriticalMachineDTO{
			{MachineID: "M001", RiskScore: 90, Issue: "Immediate maintenance required"},
			{MachineID: "M007", RiskScore: 85, Issue: "Immediate maintenance required"},
		},
	}
}

func TestSendCriticalReport_Success(t *testing.T) {
	sender := &fakeSender{}
	d := newDispatcher(sender, testConfig(), logger.New("error"))

	result, err := d.SendCriticalReport(context.Background(), criticalReport())
	if err != nil {
		t.Fatalf("SendCriticalReport() error = %v", err)
	}

	if result.Status != port.DispatchStatusSuccess || !result.EmailSent || result.MessageID != "msg-42" {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(sender.inputs) != 1 {
		t.Fatalf("expected one send, got %d", len(sender.inputs))
	}

	input := sender.inputs[0]
	if got := aws.ToString(input.Message.Subject.Data); !strings.Contains(got, "2 critical machine(s)") {
		t.Errorf("unexpected subject: %s", got)
	}
	text := aws.ToString(input.Message.Body.Text.Data)
	if !strings.Contains(text, "M001: risk 90.0") || !strings.Contains(text, "M007: risk 85.0") {
		t.Errorf("unexpected text body: %s", text)
	}
	html := aws.ToString(input.Message.Body.Html.Data)
	if !strings.Contains(html, "<td>M001</td>") {
		t.Errorf("unexpected html body: %s", html)
	}
}

func TestSendCriticalReport_EmptyReportSkipped(t *testing.T) {
	sender := &fakeSender{}
	d := newDispatcher(sender, testConfig(), logger.New("error"))

	result, err := d.SendCriticalReport(context.Background(), &dto.CriticalReportDTO{})
	if err != nil {
		t.Fatalf("SendCriticalReport() error = %v", err)
	}

	if result.Status != port.DispatchStatusSkipped || result.EmailSent {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(sender.inputs) != 0 {
		t.Errorf("expected no sends for empty report, got %d", len(sender.inputs))
	}
}

func TestSendCriticalReport_RetriesThenSucceeds(t *testing.T) {
	sender := &fakeSender{failures: 2}
	d := newDispatcher(sender, testConfig(), logger.New("error"))

	result, err := d.SendCriticalReport(context.Background(), criticalReport())
	if err != nil {
		t.Fatalf("SendCriticalReport() error = %v", err)
	}

	if len(sender.inputs) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(sender.inputs))
	}
	if result.Status != port.DispatchStatusSuccess {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSendCriticalReport_ExhaustsRetries(t *testing.T) {
	sender := &fakeSender{failures: 10, err: errors.New("smtp down")}
	d := newDispatcher(sender, testConfig(), logger.New("error"))

	result, err := d.SendCriticalReport(context.Background(), criticalReport())
	if err == nil {
		t.Fatalf("expected error after exhausted retries")
	}

	if len(sender.inputs) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(sender.inputs))
	}
	if result.Status != port.DispatchStatusError || result.EmailSent {
		t.Errorf("unexpected result: %+v", result)
	}
	if !strings.Contains(result.Error, "smtp down") {
		t.Errorf("expected underlying error in result, got %q", result.Error)
	}
}
