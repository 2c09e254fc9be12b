package config

import (
	"context"
	"fmt"

	"github.com/matuszelenak/trojsten-graph/domain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

type smtpMailer struct {
	dialer *gomail.Dialer
	sender string
}

// NewMailer returns an SMTP mailer, or one that only logs the messages
// when no SMTP host is configured.
func NewMailer() domain.Mailer {
	host := viper.GetString("smtp_host")
	if host == "" {
		return &logMailer{log: GetLogrusInstance()}
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(
			host,
			viper.GetInt("smtp_port"),
			viper.GetString("smtp_user"),
			viper.GetString("smtp_password"),
		),
		sender: viper.GetString("email_sender"),
	}
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	goMailMessage := gomail.NewMessage()
	goMailMessage.SetHeader("From", m.sender)
	goMailMessage.SetHeader("To", to)
	goMailMessage.SetHeader("Subject", subject)
	goMailMessage.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(goMailMessage); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

type logMailer struct {
	log *logrus.Logger
}

func (m *logMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info(body)
	return nil
}
