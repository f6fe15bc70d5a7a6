package authhandler

import (
	"time"

	"farm-ops-backend/db"
	usersstore "farm-ops-backend/lib/users/store"
	authutils "farm-ops-backend/lib/utils/auth-utils"
	authapimodels "farm-ops-backend/models/api/auth"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const invalidCredentials = "неверная почта или пароль"

type Provider interface {
	Login(email, password string) (resp *authapimodels.JWTResponse, hMsg string, err error)
	Me(userID int64) (*authapimodels.MeResponse, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewHandlerWithTx(db.DB)
}

func NewHandlerWithTx(tx *gorm.DB) Provider {
	return impl{
		usersStore: usersstore.NewInstance(tx),
	}
}

type impl struct {
	usersStore usersstore.Provider
}

func (i impl) Login(email, password string) (*authapimodels.JWTResponse, string, error) {
	logger := log.WithField("email", email)
	user, err := i.usersStore.FindByEmail(email)
	if err != nil {
		return nil, "", errors.Wrap(err, "ошибка получения пользователя")
	}
	if user == nil || !user.IsActive || !authutils.CheckPassword(user.Password, password) {
		logger.Info("неудачная попытка входа в api")
		return nil, invalidCredentials, nil
	}
	token, err := authutils.GetToken(user.ID, user.GetDisplayName(), user.IsSuperuser)
	if err != nil {
		return nil, "", errors.Wrap(err, "ошибка генерации токена")
	}
	if err = i.usersStore.SetLastLogin(user.ID, time.Now().UTC()); err != nil {
		logger.WithError(err).Warn("не удалось сохранить дату входа")
	}
	return &authapimodels.JWTResponse{Token: token}, "", nil
}

func (i impl) Me(userID int64) (*authapimodels.MeResponse, error) {
	user, err := i.usersStore.GetByID(userID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения пользователя")
	}
	if user == nil || !user.IsActive {
		return nil, errors.New("пользователь не найден")
	}
	return &authapimodels.MeResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.GetDisplayName(),
		PhoneNumber: user.PhoneNumber,
		IsSuperuser: user.IsSuperuser,
	}, nil
}
