package initializers

import (
	"context"

	"farm-ops-backend/config"
	s3client "farm-ops-backend/s3"

	log "github.com/sirupsen/logrus"
)

func InitS3(ctx context.Context) {
	client, err := s3client.NewClient(s3client.Options{
		Endpoint:        config.Conf.S3.Endpoint,
		AccessKeyID:     config.Conf.S3.AccessKeyID,
		SecretAccessKey: config.Conf.S3.SecretAccessKey,
		UseSSL:          *config.Conf.S3.UseSSL,
	})
	if err != nil {
		log.WithError(err).Error("Ошибка инициализации клиента S3")
		return
	}
	s3client.Client = client

	if err = s3client.MakeBucket(ctx, client, config.Conf.S3.BucketName); err != nil {
		log.WithError(err).
			WithField("bucket", config.Conf.S3.BucketName).
			Error("S3 соединение не удалось, бакет недоступен")
		return
	}
	log.Info("S3 клиент успешно инициализирован")
}
