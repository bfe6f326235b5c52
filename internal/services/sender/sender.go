// Package sender отправляет письма подписчикам через SMTP или AWS SES.
package sender

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/magabrotheeeer/newsletter/internal/domain"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/newsletter/internal/lib/smtp"
)

// EmailSender отправляет одно письмо одному получателю.
type EmailSender interface {
	Send(ctx context.Context, to domain.SubscriberEmail, subject, html, text string) error
}

// SenderService отправляет письма через SMTP-транспорт. Каждая отправка
// ограничена таймаутом.
type SenderService struct {
	transport smtp.TransportInterface
	timeout   time.Duration
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, timeout time.Duration, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		timeout:   timeout,
		log:       log,
	}
}

// Send отправляет письмо с текстовой и HTML-версией.
func (s *SenderService) Send(ctx context.Context, to domain.SubscriberEmail, subject, html, text string) error {
	const op = "sender.Send"
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	from := s.transport.GetSMTPUser()
	msg, err := buildMessage(from, to.String(), subject, html, text)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sendEmail(ctx, from, to.String(), msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("email sent successfully", slog.String("to", to.String()))
	return nil
}

func (s *SenderService) sendEmail(ctx context.Context, from, to string, msg []byte) error {
	client, err := s.transport.Connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", slog.String("recipient", to), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write(msg); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}
	return nil
}

// buildMessage собирает письмо multipart/alternative.
func buildMessage(from, to, subject, html, text string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{contentType: "text/plain; charset=\"UTF-8\"", content: text},
		{contentType: "text/html; charset=\"UTF-8\"", content: html},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
