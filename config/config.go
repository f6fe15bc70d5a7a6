package config

import (
	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr string `default:"" env:"APP_HOST"`
		Port       int    `default:"8080"  env:"APP_PORT"`
		// ErrNotifyAddr адрес сборщика ошибок 5xx, пустой - не отправлять
		ErrNotifyAddr string `default:"" env:"APP_ERR_NOTIFY_ADDR"`
		BodyLimitMb   int    `default:"20" env:"APP_BODY_LIMIT_MB"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"farm-ops" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
	}
	Redis struct {
		Addr      string `default:"127.0.0.1:6379" env:"REDIS_ADDR"`
		Password  string `default:"" env:"REDIS_PASSWORD"`
		DB        int    `default:"0" env:"REDIS_DB"`
		KeyPrefix string `default:"farmops" env:"REDIS_KEY_PREFIX"`
	}
	S3 struct {
		Endpoint        string `default:"127.0.0.1:9000" env:"S3_ENDPOINT"`
		AccessKeyID     string `default:"" env:"S3_ACCESS_KEY_ID"`
		SecretAccessKey string `default:"" env:"S3_SECRET_ACCESS_KEY"`
		UseSSL          *bool  `default:"false" env:"S3_USE_SSL"`
		BucketName      string `default:"farm-ops-media" env:"S3_BUCKET_NAME"`
	}
	Twilio struct {
		AccountSID     string `default:"" env:"TWILIO_ACCOUNT_SID"`
		AuthToken      string `default:"" env:"TWILIO_AUTH_TOKEN"`
		From           string `default:"" env:"TWILIO_FROM"` // например whatsapp:+14155238886
		SendTimeoutSec int    `default:"10" env:"TWILIO_SEND_TIMEOUT_SEC"`
		MediaTimeout   int    `default:"30" env:"TWILIO_MEDIA_TIMEOUT_SEC"`
		MaxRetries     uint64 `default:"3" env:"TWILIO_MAX_RETRIES"`
		// WebhookURL публичный адрес вебхука, по нему проверяется X-Twilio-Signature
		WebhookURL        string `default:"" env:"TWILIO_WEBHOOK_URL"`
		ValidateSignature *bool  `default:"false" env:"TWILIO_VALIDATE_SIGNATURE"`
	}
	Smtp struct {
		User       string `default:"" env:"SMTP_USER"`
		Password   string `default:"" env:"SMTP_PASSWORD"`
		Host       string `default:"" env:"SMTP_HOST"`
		Port       string `default:"" env:"SMTP_PORT"`
		TLSEnabled *bool  `default:"true" env:"SMTP_TLS_ENABLED"`
		EmailFrom  string `default:"" env:"SMTP_EMAIL_FROM"`
	}
	Auth struct {
		JWTSecret      string `default:"" env:"JWT_SECRET"`
		JWTExpireInSec int64  `default:"86400" env:"JWT_EXPIRE_IN_SEC"`
	}
	Session struct {
		LoginStateTTLSec          int `default:"600" env:"SESSION_LOGIN_STATE_TTL_SEC"`
		PendingConfirmationTTLSec int `default:"7200" env:"SESSION_PENDING_CONFIRMATION_TTL_SEC"`
		LoggedInTTLSec            int `default:"86400" env:"SESSION_LOGGED_IN_TTL_SEC"`
		TaskLockTTLSec            int `default:"900" env:"SESSION_TASK_LOCK_TTL_SEC"`
		StepTTLSec                int `default:"86400" env:"SESSION_STEP_TTL_SEC"`
	}
	Rewards struct {
		LockWaitSec int `default:"10" env:"REWARDS_LOCK_WAIT_SEC"`
	}
	Workers struct {
		RecurringTasksIntervalMin int `default:"60" env:"WORKERS_RECURRING_TASKS_INTERVAL_MIN"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}
