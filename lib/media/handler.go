package mediahandler

import (
	"context"
	"io"

	"farm-ops-backend/db"
	authorityhandler "farm-ops-backend/lib/authority"
	filestorage "farm-ops-backend/lib/file-storage"
	mediastore "farm-ops-backend/lib/media/store"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Provider interface {
	// GetFile файл вложения; загрузивший видит свои вложения без уровня доступа
	GetFile(ctx context.Context, userID, companyID, mediaID int64) (body io.ReadCloser, media *dbmodels.Media, err error)
}

var Instance Provider

func NewHandler() {
	Instance = NewHandlerWithTx(db.DB, authorityhandler.Instance, filestorage.Instance)
}

func NewHandlerWithTx(tx *gorm.DB, authority authorityhandler.Provider, storage filestorage.Provider) Provider {
	return impl{
		mediaStore: mediastore.NewInstance(tx),
		authority:  authority,
		storage:    storage,
	}
}

type impl struct {
	mediaStore mediastore.Provider
	authority  authorityhandler.Provider
	storage    filestorage.Provider
}

func (i impl) GetLogger(userID, mediaID int64) *log.Entry {
	return log.
		WithField("user_id", userID).
		WithField("media_id", mediaID)
}

func (i impl) GetFile(ctx context.Context, userID, companyID, mediaID int64) (io.ReadCloser, *dbmodels.Media, error) {
	media, err := i.mediaStore.GetByID(mediaID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "ошибка получения вложения")
	}
	if media == nil || media.CompanyID != companyID || media.Status != models.MediaStatusActive || !media.HasFile() {
		return nil, nil, apperrors.NewNotFound("media", mediaID)
	}
	decision, err := i.authority.Resolve(ctx, authorityhandler.ResolveRequest{
		UserID:    userID,
		CompanyID: companyID,
		AppName:   media.AppName,
		ModelName: media.ModelName,
		Action:    models.ViewAction,
		Records:   []authorityhandler.Ownable{*media},
	})
	if err != nil {
		return nil, nil, err
	}
	if decision.Kind == authorityhandler.AllowSubset && len(decision.Records) == 0 {
		return nil, nil, apperrors.NewPermissionDenied(apperrors.DenyInsufficientLevel, "no access to this media")
	}
	body, err := i.storage.GetFile(ctx, media.File)
	if err != nil {
		return nil, nil, err
	}
	i.GetLogger(userID, mediaID).Info("выдан файл вложения")
	return body, media, nil
}
