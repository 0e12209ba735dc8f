package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer delivers a single message. Implementations don't retry.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
}

func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(m.To) == 0 {
		return errors.New("no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", m.To...)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp delivery to %v failed, %w", m.To, err)
	}

	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when
// mail delivery is disabled in the config.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, m Message) error {
	zap.L().Info("Mail delivery disabled, logging message",
		zap.String("from", m.From),
		zap.Strings("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.Body),
	)

	return nil
}
