package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// ErrMailDisabled is returned when no SMTP host is configured.
var ErrMailDisabled = errors.New("notify: mail disabled")

const defaultMailTimeout = 15 * time.Second

type Mail struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, m Mail) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type deliverFunc func(ctx context.Context, client *gomail.Client, msg *gomail.Msg) error

type SMTPMailer struct {
	cfg     SMTPConfig
	deliver deliverFunc
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultMailTimeout
	}
	return &SMTPMailer{cfg: cfg, deliver: func(ctx context.Context, client *gomail.Client, msg *gomail.Msg) error {
		return client.DialAndSendWithContext(ctx, msg)
	}}
}

// Send delivers one message over a fresh connection. The whole SMTP
// conversation is bounded by ctx and the configured timeout.
func (m *SMTPMailer) Send(ctx context.Context, mail Mail) error {
	if m.cfg.Host == "" {
		return ErrMailDisabled
	}
	if strings.TrimSpace(mail.To) == "" {
		return errors.New("notify: mail has no recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.message(mail)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	client, err := m.client(ctx)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}
	if err := m.deliver(ctx, client, msg); err != nil {
		return fmt.Errorf("notify: smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(mail Mail) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("notify: sender address: %w", err)
	}
	if err := msg.To(mail.To); err != nil {
		return nil, fmt.Errorf("notify: recipient address: %w", err)
	}
	msg.Subject(mail.Subject)
	msg.SetMessageID()
	msg.SetDate()
	msg.SetBodyString(gomail.TypeTextHTML, mail.HTML)
	return msg, nil
}

func (m *SMTPMailer) client(ctx context.Context) (*gomail.Client, error) {
	timeout := m.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTimeout(timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithDialContextFunc(dialWithDeadline),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	return gomail.NewClient(m.cfg.Host, opts...)
}

// dialWithDeadline carries the dial deadline onto the connection so a server
// that accepts but never greets cannot stall the sender.
func dialWithDeadline(ctx context.Context, network, address string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}
