package initializers

import (
	"farm-ops-backend/config"
	"farm-ops-backend/lib/smtp"

	log "github.com/sirupsen/logrus"
)

func InitSmtp() {
	if config.Conf.Smtp.Host == "" {
		log.Info("SMTP не настроен, уведомления по почте отключены")
		return
	}
	err := smtp.Connect(config.Conf.Smtp.User, config.Conf.Smtp.Password,
		config.Conf.Smtp.Host, config.Conf.Smtp.Port, config.Conf.Smtp.EmailFrom, *config.Conf.Smtp.TLSEnabled)
	if err != nil {
		panic(err.Error())
	}
}
