// Package notify delivers high-severity glucose alerts to a patient's
// emergency contact by SMS (SNS) and email (SES).
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"careplus/internal/common/logger"
	"careplus/internal/common/metrics"
	"careplus/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"

	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
}

// Result describes one NotifyAlert call.
type Result struct {
	NotificationID string   `json:"notification_id"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels,omitempty"`
	SentAt         string   `json:"sent_at"`
}

type Notifier struct {
	config    Config
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

// NewNotifier builds a notifier. Nil clients disable their channel.
func NewNotifier(cfg Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		config:    cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// Disabled returns a notifier that never sends anything.
func Disabled(log logger.Logger) *Notifier {
	return NewNotifier(Config{}, nil, nil, log)
}

// NotifyAlert sends a high-severity alert to the patient's emergency
// contact. Other severities and patients without contacts are skipped with
// StatusDisabled. Every configured channel is attempted; the error joins
// the failures.
func (n *Notifier) NotifyAlert(ctx context.Context, patient models.Patient, alert models.Alert) (*Result, error) {
	res := &Result{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}
	if alert.Severity != models.SeverityHigh {
		return res, nil
	}

	subject := fmt.Sprintf("Care+ alert for %s", patient.Name)
	body := fmt.Sprintf("%s: %s (%s).", patient.Name, alert.Message, alert.Timestamp.UTC().Format(time.RFC3339))

	var errs []error
	if phone := patient.EmergencyContact("phone"); n.config.SMSEnabled && n.snsClient != nil && phone != "" {
		if err := n.sendSMS(ctx, phone, body); err != nil {
			errs = append(errs, n.failed(ChannelSMS, patient, err))
		} else {
			n.sent(ChannelSMS, res)
		}
	}
	if email := patient.EmergencyContact("email"); n.config.EmailEnabled && n.sesClient != nil && email != "" {
		if err := n.sendEmail(ctx, email, subject, body); err != nil {
			errs = append(errs, n.failed(ChannelEmail, patient, err))
		} else {
			n.sent(ChannelEmail, res)
		}
	}

	if len(errs) > 0 {
		res.Status = StatusFailed
		return res, fmt.Errorf("%w: %w", ErrNotificationSendFailed, errors.Join(errs...))
	}
	if len(res.Channels) == 0 {
		n.logger.Debug("no emergency contact to notify", map[string]interface{}{"patientId": patient.ID})
	}
	return res, nil
}

func (n *Notifier) sent(channel string, res *Result) {
	res.Status = StatusSent
	res.Channels = append(res.Channels, channel)
	metrics.NotificationsSent.WithLabelValues(channel, StatusSent).Inc()
}

func (n *Notifier) failed(channel string, patient models.Patient, err error) error {
	metrics.NotificationsSent.WithLabelValues(channel, StatusFailed).Inc()
	n.logger.Error("alert notification failed", map[string]interface{}{
		"error":     err,
		"channel":   channel,
		"patientId": patient.ID,
	})
	return fmt.Errorf("%s: %w", channel, err)
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if n.config.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(n.config.SenderID)},
		}
	}
	_, err := n.snsClient.Publish(ctx, input)
	return err
}
