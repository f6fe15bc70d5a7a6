package initializers

import (
	"context"
	"time"

	"farm-ops-backend/config"
	"farm-ops-backend/lib/session"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func InitRedis(ctx context.Context) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Conf.Redis.Addr,
		Password: config.Conf.Redis.Password,
		DB:       config.Conf.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		panic("Ошибка подключения к Redis: " + err.Error())
	}
	session.NewHandler(client, config.Conf.Redis.KeyPrefix)
	log.Info("Сервис успешно подключен к Redis")
}

func sessionTTLs() session.TTLs {
	seconds := func(value int) time.Duration {
		return time.Duration(value) * time.Second
	}
	return session.TTLs{
		LoginState:          seconds(config.Conf.Session.LoginStateTTLSec),
		PendingConfirmation: seconds(config.Conf.Session.PendingConfirmationTTLSec),
		LoggedIn:            seconds(config.Conf.Session.LoggedInTTLSec),
		TaskLock:            seconds(config.Conf.Session.TaskLockTTLSec),
		Step:                seconds(config.Conf.Session.StepTTLSec),
	}
}
