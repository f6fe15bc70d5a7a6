package initializers

import (
	"time"

	"farm-ops-backend/config"
	"farm-ops-backend/lib/messaging"

	log "github.com/sirupsen/logrus"
)

func InitMessaging() {
	if config.Conf.Twilio.AccountSID == "" || config.Conf.Twilio.AuthToken == "" {
		log.Warn("Twilio не настроен, ответы в мессенджер не будут доставлены")
	}
	messaging.NewHandler(messaging.Config{
		AccountSID:   config.Conf.Twilio.AccountSID,
		AuthToken:    config.Conf.Twilio.AuthToken,
		From:         config.Conf.Twilio.From,
		SendTimeout:  time.Duration(config.Conf.Twilio.SendTimeoutSec) * time.Second,
		MediaTimeout: time.Duration(config.Conf.Twilio.MediaTimeout) * time.Second,
		MaxRetries:   config.Conf.Twilio.MaxRetries,
	})
}
