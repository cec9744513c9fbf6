// Package smtp реализует почтовый транспорт уведомлений биллинга:
// STARTTLS-соединение с сервером и минимальный интерфейс клиента,
// который мокается в тестах отправителя.
package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/magabrotheeeer/marketplace-billing/internal/config"
	"github.com/magabrotheeeer/marketplace-billing/internal/lib/sl"
)

// Transport устанавливает SMTP-соединения для писем об оплате подписки
// и скрытии объявлений. Соединение открывается на каждое письмо:
// поток уведомлений биллинга невелик, а долгоживущие сессии почтовые
// серверы обрывают.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// NewTransport создает транспорт с настройками почтового сервера.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// smtpClientWrapper адаптирует *smtp.Client к интерфейсу Client.
type smtpClientWrapper struct {
	client *smtp.Client
}

func (w *smtpClientWrapper) Mail(from string) error { return w.client.Mail(from) }

func (w *smtpClientWrapper) Rcpt(to string) error { return w.client.Rcpt(to) }

func (w *smtpClientWrapper) Data() (io.WriteCloser, error) { return w.client.Data() }

func (w *smtpClientWrapper) Quit() error { return w.client.Quit() }

func (w *smtpClientWrapper) Close() error { return w.client.Close() }

// Connect открывает аутентифицированное STARTTLS-соединение с почтовым
// сервером. Серверы без STARTTLS отвергаются: письма биллинга содержат
// детали платежей и открытым текстом не отправляются.
func (t *Transport) Connect() (Client, error) {
	addr := net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.log.Error("failed to dial mail server",
			slog.String("addr", addr), sl.Err(err))
		return nil, fmt.Errorf("failed to dial mail server %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		t.log.Error("failed to create SMTP client",
			slog.String("host", t.cfg.SMTPHost), sl.Err(err))
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := t.secureAndAuth(client); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			t.log.Error("failed to close SMTP client", sl.Err(closeErr))
		}
		return nil, err
	}

	return &smtpClientWrapper{client: client}, nil
}

// secureAndAuth переводит сессию в TLS и проходит аутентификацию.
func (t *Transport) secureAndAuth(client *smtp.Client) error {
	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.log.Error("mail server does not support STARTTLS",
			slog.String("host", t.cfg.SMTPHost))
		return fmt.Errorf("mail server %s does not support STARTTLS", t.cfg.SMTPHost)
	}

	tlsConfig := &tls.Config{
		ServerName: t.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		t.log.Error("failed to start TLS",
			slog.String("host", t.cfg.SMTPHost), sl.Err(err))
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		t.log.Error("mail server auth failed",
			slog.String("host", t.cfg.SMTPHost),
			slog.String("user", t.cfg.SMTPUser), sl.Err(err))
		return fmt.Errorf("mail server auth failed: %w", err)
	}
	return nil
}

// GetSMTPUser возвращает адрес отправителя уведомлений.
func (t *Transport) GetSMTPUser() string {
	return t.cfg.SMTPUser
}
