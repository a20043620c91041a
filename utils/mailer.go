package utils

import (
	"context"
	"errors"
	"fmt"

	"glowfit/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

type SESAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

var ErrMailDisabled = errors.New("mail sender not configured")

type Mailer struct {
	client SESAPI
	sender string
}

func NewMailer(client SESAPI, sender string) *Mailer {
	return &Mailer{client: client, sender: sender}
}

func (m *Mailer) Enabled() bool { return m != nil && m.client != nil && m.sender != "" }

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.Enabled() {
		return ErrMailDisabled
	}
	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body:    &types.Body{Text: &types.Content{Data: aws.String(body)}},
		},
		Source: aws.String(m.sender),
	})
	if err != nil {
		logger.Error("ses send failed", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

func (m *Mailer) SendResetEmail(ctx context.Context, to, code string) error {
	body := fmt.Sprintf("Your password reset code is: %s\n\nIt expires in 15 minutes. Enter it in the app to set a new password.", code)
	return m.Send(ctx, to, "Password Reset Code", body)
}

func (m *Mailer) SendWeeklyReport(ctx context.Context, to, body string) error {
	return m.Send(ctx, to, "Your weekly nutrition report", body)
}
