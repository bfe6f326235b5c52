package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/newsletter/internal/config"
	"github.com/magabrotheeeer/newsletter/internal/lib/smtp"
)

// New выбирает отправителя по email.provider: "smtp" или "ses".
func New(ctx context.Context, cfg config.Email, log *slog.Logger) (EmailSender, error) {
	const op = "sender.New"
	switch cfg.Provider {
	case "", "smtp":
		return NewSenderService(smtp.NewTransport(cfg, log), cfg.Timeout, log), nil
	case "ses":
		ses, err := NewSESSender(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return ses, nil
	default:
		return nil, fmt.Errorf("%s: unknown email provider %q", op, cfg.Provider)
	}
}
