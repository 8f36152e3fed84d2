package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/magabrotheeeer/library-loans/internal/config"
)

// Transport отправляет письма через SMTP с STARTTLS.
// Каждый вызов Send открывает новое соединение: уведомления о просрочках
// рассылаются раз в сутки, держать постоянную сессию незачем.
type Transport struct {
	host string
	port string
	user string
	pass string
	log  *slog.Logger

	connect func() (Client, error)
}

// smtpClient оборачивает *smtp.Client под интерфейс Client.
type smtpClient struct {
	c *smtp.Client
}

func (w *smtpClient) Mail(from string) error     { return w.c.Mail(from) }
func (w *smtpClient) Rcpt(to string) error       { return w.c.Rcpt(to) }
func (w *smtpClient) Data() (io.WriteCloser, error) { return w.c.Data() }
func (w *smtpClient) Quit() error                { return w.c.Quit() }
func (w *smtpClient) Close() error               { return w.c.Close() }

// NewTransport создает транспорт из SMTP-секции конфигурации.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	t := &Transport{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		log:  log,
	}
	t.connect = t.dial
	return t
}

// From возвращает адрес отправителя.
func (t *Transport) From() string {
	return t.user
}

// Send отправляет письмо всем адресатам одним сообщением.
func (t *Transport) Send(to []string, subject, body string) error {
	const op = "smtp.Send"

	msg := strings.Join([]string{
		"From: " + t.user,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	client, err := t.connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(t.user); err != nil {
		return fmt.Errorf("%s: mail from %s: %w", op, t.user, err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("%s: rcpt to %s: %w", op, addr, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = client.Quit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	t.log.Info("email sent", "to", to, "subject", subject)
	return nil
}

// dial устанавливает TLS-соединение с SMTP сервером и проходит аутентификацию.
func (t *Transport) dial() (Client, error) {
	const op = "smtp.dial"

	conn, err := net.Dial("tcp", net.JoinHostPort(t.host, t.port))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		_ = client.Close()
		return nil, fmt.Errorf("%s: server does not support STARTTLS", op)
	}
	tlsConfig := &tls.Config{
		ServerName: t.host,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	auth := smtp.PlainAuth("", t.user, t.pass, t.host)
	if err = client.Auth(auth); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &smtpClient{c: client}, nil
}
