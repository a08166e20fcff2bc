package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/notification"
)

// SMTPConfig addresses a relay. Username empty means no AUTH.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SendMailFunc delivers msg; it must give up once ctx is done.
type SendMailFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender mails the confirmation to the customer.
type SMTPSender struct {
	cfg  SMTPConfig
	send SendMailFunc
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: sendMail}
}

// WithSendMail swaps the transport, for tests.
func (s *SMTPSender) WithSendMail(fn SendMailFunc) *SMTPSender {
	s.send = fn
	return s
}

func (*SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, c notification.Confirmation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.Customer.Email == "" {
		return fmt.Errorf("smtp: order %s has no recipient", c.OrderID)
	}
	rcpt, err := mail.ParseAddress(c.Customer.Email)
	if err != nil {
		return fmt.Errorf("smtp: order %s recipient: %w", c.OrderID, err)
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	if err := s.send(ctx, addr, auth, s.cfg.From, []string{rcpt.Address}, s.message(c, rcpt.Address)); err != nil {
		return fmt.Errorf("smtp: send order %s: %w", c.OrderID, err)
	}
	return nil
}

func (s *SMTPSender) message(c notification.Confirmation, to string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", c.Subject())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(c.Body(), "\n", "\r\n"))
	return []byte(b.String())
}

// sendMail is smtp.SendMail bounded by ctx: the dial honours it and the
// connection is closed as soon as ctx ends.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) (err error) {
	defer func() {
		if err != nil && ctx.Err() != nil {
			err = ctx.Err()
		}
	}()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		_ = conn.Close()
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, r := range to {
		if err := c.Rcpt(r); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
