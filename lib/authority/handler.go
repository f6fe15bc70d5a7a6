package authorityhandler

import (
	"context"
	"fmt"

	"farm-ops-backend/db"
	stafflevelsstore "farm-ops-backend/lib/authority/staff-levels-store"
	authoritystore "farm-ops-backend/lib/authority/store"
	companystore "farm-ops-backend/lib/company/store"
	staffstore "farm-ops-backend/lib/staff/store"
	usersstore "farm-ops-backend/lib/users/store"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/models"
	authorityapimodels "farm-ops-backend/models/api/authority"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Ownable запись, у которой есть владелец-пользователь (для просмотра "только своего")
type Ownable interface {
	OwnerUserID() int64
}

type DecisionKind string

const (
	Allow       DecisionKind = "allow"
	AllowSubset DecisionKind = "allow_subset"
)

type Decision struct {
	Kind    DecisionKind
	Records []Ownable
}

type ResolveRequest struct {
	UserID    int64
	CompanyID int64
	AppName   string
	ModelName string
	Action    models.Action
	MinLevel  int
	Records   []Ownable
}

type Provider interface {
	// Resolve отказ всегда возвращается как *apperrors.PermissionDenied
	Resolve(ctx context.Context, req ResolveRequest) (Decision, error)
	RequestAuthority(ctx context.Context, requesterID, companyID int64, data authorityapimodels.AuthorityData) (id int64, hMsg string, err error)
	ApproveAuthority(ctx context.Context, approverID, authorityID int64, data authorityapimodels.AuthorityData) (hMsg string, err error)
	SetStaffLevel(ctx context.Context, actorID, companyID, userID int64, level int) (hMsg string, err error)
	List(ctx context.Context, companyID int64) ([]authorityapimodels.AuthorityView, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewHandlerWithTx(db.DB)
}

func NewHandlerWithTx(tx *gorm.DB) Provider {
	return impl{
		authorityStore:   authoritystore.NewInstance(tx),
		staffLevelsStore: stafflevelsstore.NewInstance(tx),
		staffStore:       staffstore.NewInstance(tx),
		usersStore:       usersstore.NewInstance(tx),
		companyStore:     companystore.NewInstance(tx),
	}
}

type impl struct {
	authorityStore   authoritystore.Provider
	staffLevelsStore stafflevelsstore.Provider
	staffStore       staffstore.Provider
	usersStore       usersstore.Provider
	companyStore     companystore.Provider
}

// модели, для которых "видеть свои записи" не действует
var selfViewExcluded = map[string]bool{
	models.CompanyApp + "." + models.AuthorityModel:     true,
	models.CompanyApp + "." + models.StaffLevelsModel:   true,
	models.CompanyApp + "." + models.ActivityOwnerModel: true,
}

func (i impl) GetLogger(companyID, userID int64) *log.Entry {
	logger := log.
		WithField("company_id", companyID).
		WithField("user_id", userID)
	return logger
}

func (i impl) Resolve(ctx context.Context, req ResolveRequest) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	user, err := i.usersStore.GetByID(req.UserID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "ошибка получения пользователя")
	}
	if user == nil {
		return Decision{}, apperrors.NewNotFound("user", req.UserID)
	}
	company, err := i.companyStore.GetByID(req.CompanyID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "ошибка получения компании")
	}
	if company == nil {
		return Decision{}, apperrors.NewNotFound("company", req.CompanyID)
	}

	// 1. суперпользователь и создатель компании
	if user.IsSuperuser || company.CreatorID == user.ID {
		return Decision{Kind: Allow}, nil
	}

	// 2. членство в компании
	staff, err := i.staffStore.Get(req.CompanyID, req.UserID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "ошибка получения сотрудника")
	}
	if staff == nil {
		return Decision{}, apperrors.NewPermissionDenied(apperrors.DenyNotStaff, "not a staff member of this company")
	}

	// 3. просмотр своих записей
	if req.Action == models.ViewAction && len(req.Records) > 0 && !selfViewExcluded[req.AppName+"."+req.ModelName] {
		own := make([]Ownable, 0, len(req.Records))
		for _, rec := range req.Records {
			if rec.OwnerUserID() == req.UserID {
				own = append(own, rec)
			}
		}
		if len(own) > 0 {
			return Decision{Kind: AllowSubset, Records: own}, nil
		}
	}

	// 4. требуемый уровень, без описания доступа - максимальный
	requiredLevel := models.MaxStaffLevel
	authority, err := i.authorityStore.Get(req.CompanyID, req.AppName, req.ModelName)
	if err != nil {
		return Decision{}, errors.Wrap(err, "ошибка получения уровней доступа")
	}
	if authority != nil {
		requiredLevel = authority.RequiredLevel(req.Action)
	}
	minLevel := req.MinLevel
	if minLevel < models.MinStaffLevel {
		minLevel = models.MinStaffLevel
	}

	// 5. уровень сотрудника
	staffLevel, err := i.staffLevelsStore.GetActive(req.CompanyID, req.UserID)
	if err != nil {
		return Decision{}, errors.Wrap(err, "ошибка получения уровня сотрудника")
	}
	if staffLevel == nil {
		return Decision{}, apperrors.NewPermissionDenied(apperrors.DenyInsufficientLevel, "no active staff level in this company")
	}
	if staffLevel.Level < requiredLevel {
		if authority == nil {
			return Decision{}, apperrors.NewPermissionDenied(apperrors.DenyNoAuthorityDefined,
				fmt.Sprintf("no authority defined for %s.%s, level %d required", req.AppName, req.ModelName, requiredLevel))
		}
		return Decision{}, apperrors.NewPermissionDenied(apperrors.DenyInsufficientLevel,
			fmt.Sprintf("level %d is below required %d to %s %s.%s", staffLevel.Level, requiredLevel, req.Action, req.AppName, req.ModelName))
	}
	if staffLevel.Level < minLevel {
		return Decision{}, apperrors.NewPermissionDenied(apperrors.DenyInsufficientLevel,
			fmt.Sprintf("level %d is below minimum %d", staffLevel.Level, minLevel))
	}

	// 6.
	return Decision{Kind: Allow}, nil
}

func (i impl) RequestAuthority(ctx context.Context, requesterID, companyID int64, data authorityapimodels.AuthorityData) (id int64, hMsg string, err error) {
	staff, err := i.staffStore.Get(companyID, requesterID)
	if err != nil {
		return 0, "", err
	}
	company, err := i.companyStore.GetByID(companyID)
	if err != nil {
		return 0, "", err
	}
	if company == nil {
		return 0, "компания не найдена", nil
	}
	if staff == nil && company.CreatorID != requesterID {
		return 0, "запрашивать уровни доступа может только сотрудник компании", nil
	}
	existed, err := i.authorityStore.Get(companyID, data.AppName, data.ModelName)
	if err != nil {
		return 0, "", err
	}
	if existed != nil {
		return 0, fmt.Sprintf("уровни доступа для %s.%s уже определены", data.AppName, data.ModelName), nil
	}
	rec := dbmodels.Authority{
		CompanyID:   companyID,
		AppName:     data.AppName,
		ModelName:   data.ModelName,
		View:        data.View,
		Add:         data.Add,
		Edit:        data.Edit,
		Delete:      data.Delete,
		Accept:      data.Accept,
		Approve:     data.Approve,
		RequestedBy: requesterID,
	}
	id, err = i.authorityStore.Create(rec)
	if err != nil {
		return 0, "", errors.Wrap(err, "ошибка сохранения уровней доступа")
	}
	i.GetLogger(companyID, requesterID).
		WithField("authority_id", id).
		Infof("Запрошены уровни доступа для %s.%s", data.AppName, data.ModelName)
	return id, "", nil
}

func (i impl) ApproveAuthority(ctx context.Context, approverID, authorityID int64, data authorityapimodels.AuthorityData) (hMsg string, err error) {
	rec, err := i.authorityStore.GetByID(authorityID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "уровни доступа не найдены", nil
	}
	_, err = i.Resolve(ctx, ResolveRequest{
		UserID:    approverID,
		CompanyID: rec.CompanyID,
		AppName:   models.CompanyApp,
		ModelName: models.AuthorityModel,
		Action:    models.ApproveAction,
	})
	if err != nil {
		if denied, ok := apperrors.AsPermissionDenied(err); ok {
			return denied.Reason, nil
		}
		return "", err
	}
	updMap := map[string]interface{}{
		"view":           data.View,
		"add":            data.Add,
		"edit":           data.Edit,
		"delete":         data.Delete,
		"accept":         data.Accept,
		"approve":        data.Approve,
		"approved_by_id": approverID,
	}
	if err = i.authorityStore.Update(authorityID, updMap); err != nil {
		return "", errors.Wrap(err, "ошибка обновления уровней доступа")
	}
	i.GetLogger(rec.CompanyID, approverID).
		WithField("authority_id", authorityID).
		Info("Уровни доступа утверждены")
	return "", nil
}

func (i impl) SetStaffLevel(ctx context.Context, actorID, companyID, userID int64, level int) (hMsg string, err error) {
	_, err = i.Resolve(ctx, ResolveRequest{
		UserID:    actorID,
		CompanyID: companyID,
		AppName:   models.CompanyApp,
		ModelName: models.StaffLevelsModel,
		Action:    models.EditAction,
	})
	if err != nil {
		if denied, ok := apperrors.AsPermissionDenied(err); ok {
			return denied.Reason, nil
		}
		return "", err
	}
	staff, err := i.staffStore.Get(companyID, userID)
	if err != nil {
		return "", err
	}
	if staff == nil {
		return "сотрудник не найден в компании", nil
	}
	if _, err = i.staffLevelsStore.SetActive(companyID, userID, level); err != nil {
		return "", err
	}
	i.GetLogger(companyID, userID).
		WithField("actor_id", actorID).
		Infof("Уровень сотрудника изменён на %d", level)
	return "", nil
}

func (i impl) List(ctx context.Context, companyID int64) ([]authorityapimodels.AuthorityView, error) {
	list, err := i.authorityStore.List(companyID)
	if err != nil {
		return nil, err
	}
	result := make([]authorityapimodels.AuthorityView, 0, len(list))
	for _, rec := range list {
		result = append(result, authorityapimodels.AuthorityView{
			ID:        rec.ID,
			CompanyID: rec.CompanyID,
			AuthorityData: authorityapimodels.AuthorityData{
				AppName:   rec.AppName,
				ModelName: rec.ModelName,
				View:      rec.View,
				Add:       rec.Add,
				Edit:      rec.Edit,
				Delete:    rec.Delete,
				Accept:    rec.Accept,
				Approve:   rec.Approve,
			},
			RequestedBy: rec.RequestedBy,
			ApprovedBy:  rec.ApprovedByID,
		})
	}
	return result, nil
}

// ToView ответ api по результату Resolve
func ToView(decision Decision, err error) authorityapimodels.ResolveView {
	if err != nil {
		if denied, ok := apperrors.AsPermissionDenied(err); ok {
			return authorityapimodels.ResolveView{
				Allowed:  false,
				Category: string(denied.Category),
				Reason:   denied.Reason,
			}
		}
		return authorityapimodels.ResolveView{Allowed: false, Reason: err.Error()}
	}
	return authorityapimodels.ResolveView{Allowed: true, Kind: string(decision.Kind)}
}
