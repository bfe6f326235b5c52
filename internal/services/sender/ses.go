package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/magabrotheeeer/newsletter/internal/config"
	"github.com/magabrotheeeer/newsletter/internal/domain"
)

// SESAPI часть клиента sesv2, которая нужна отправителю.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender отправляет письма через AWS SES v2.
type SESSender struct {
	client  SESAPI
	from    string
	timeout time.Duration
	log     *slog.Logger
}

// NewSESSender создает клиента SES. Если ключи не заданы, используется
// стандартная цепочка учётных данных AWS.
func NewSESSender(ctx context.Context, cfg config.Email, log *slog.Logger) (*SESSender, error) {
	const op = "sender.NewSESSender"
	if cfg.Sender == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("email sender address is not set"))
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.SESRegion)}
	if cfg.SESAccessKey != "" && cfg.SESSecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SESAccessKey, cfg.SESSecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(awsCfg), cfg.Sender, cfg.Timeout, log), nil
}

// NewSESSenderWithClient создает отправителя поверх готового клиента.
func NewSESSenderWithClient(client SESAPI, from string, timeout time.Duration, log *slog.Logger) *SESSender {
	return &SESSender{client: client, from: from, timeout: timeout, log: log}
}

// Send отправляет письмо с текстовой и HTML-версией.
func (s *SESSender) Send(ctx context.Context, to domain.SubscriberEmail, subject, html, text string) error {
	const op = "sender.SESSender.Send"
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{to.String()}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("email sent via SES",
		slog.String("to", to.String()),
		slog.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}
