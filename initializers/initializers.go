package initializers

import (
	"context"
	"time"

	"farm-ops-backend/config"
	"farm-ops-backend/fiberlog"
	recurringworker "farm-ops-backend/lib/activity/recurring-worker"
	authhandler "farm-ops-backend/lib/auth"
	authorityhandler "farm-ops-backend/lib/authority"
	"farm-ops-backend/lib/conversation"
	"farm-ops-backend/lib/existence"
	xlsexport "farm-ops-backend/lib/export/xls"
	filestorage "farm-ops-backend/lib/file-storage"
	"farm-ops-backend/lib/hierarchy"
	mediahandler "farm-ops-backend/lib/media"
	"farm-ops-backend/lib/rbac"
	rewardshandler "farm-ops-backend/lib/rewards"
	s3client "farm-ops-backend/s3"
)

var LoggerConfig *fiberlog.Config

// InitAllServices порядок важен: обработчики берут зависимости из уже созданных Instance
func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitRedis(ctx)
	InitS3(ctx)
	InitSmtp()
	InitMessaging()
	filestorage.NewHandler(s3client.Client, config.Conf.S3.BucketName)
	rbac.NewHandler()
	hierarchy.NewHandler()
	existence.NewHandler()
	authhandler.NewHandler()
	authorityhandler.NewHandler()
	rewardshandler.NewHandler(time.Duration(config.Conf.Rewards.LockWaitSec) * time.Second)
	mediahandler.NewHandler()
	xlsexport.NewHandler()
	conversation.NewHandler(sessionTTLs())
	go initWorkers(ctx)
}

func initWorkers(ctx context.Context) {
	// Задача создания повторяющихся задач по видам деятельности
	recurringworker.StartWorker(ctx, time.Duration(config.Conf.Workers.RecurringTasksIntervalMin)*time.Minute)
}
