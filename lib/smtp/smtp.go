package smtp

import (
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	log "github.com/sirupsen/logrus"
)

var Instance Provider

type Provider interface {
	SendEMail(to []string, subject, message string) error
}

func Connect(user, password, host, port, emailFrom string, tlsEnabled bool) error {
	if emailFrom == "" {
		emailFrom = user
	}
	Instance = &impl{
		user:       user,
		password:   password,
		host:       host,
		port:       port,
		emailFrom:  emailFrom,
		tlsEnabled: tlsEnabled,
	}
	return nil
}

type impl struct {
	user       string
	password   string
	host       string
	port       string
	emailFrom  string
	tlsEnabled bool
}

func BuildMessage(from string, to []string, subject, message string) string {
	headers := []string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: Farm Ops - " + subject,
		"MIME-version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	}
	body := strings.ReplaceAll(message, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")
	return fmt.Sprintf("%s\r\n\r\n%s\r\n", strings.Join(headers, "\r\n"), body)
}

func (i impl) SendEMail(to []string, subject, message string) (err error) {
	logger := log.WithField("recipients", to)
	if i.user == "" || i.host == "" || i.port == "" {
		logger.Warn("Письмо не отправлено, тк не настроен smtp клиент")
		return nil
	}
	if len(to) == 0 {
		return nil
	}
	auth := sasl.NewPlainClient("", i.user, i.password)
	body := strings.NewReader(BuildMessage(i.emailFrom, to, subject, message))
	if i.tlsEnabled {
		err = smtp.SendMailTLS(i.host+":"+i.port, auth, i.emailFrom, to, body)
	} else {
		err = smtp.SendMail(i.host+":"+i.port, auth, i.emailFrom, to, body)
	}
	if err != nil {
		logger.WithError(err).Error("Ошибка отправки сообщения")
		return err
	}
	logger.Info("письмо отправлено")
	return nil
}
