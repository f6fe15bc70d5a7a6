package hierarchy

import (
	"context"

	"farm-ops-backend/db"
	staffmemberstore "farm-ops-backend/lib/staff/member-store"
	"farm-ops-backend/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// StaffHierarchyProvider иерархия сотрудников одного направления
type StaffHierarchyProvider interface {
	// IsLeaderOrGrandLeader approverID руководитель сотрудника или руководитель его руководителя
	IsLeaderOrGrandLeader(ctx context.Context, companyID, staffUserID, approverID int64) (bool, error)
}

type Registry interface {
	Get(domain models.Domain) (StaffHierarchyProvider, bool)
}

var Instance Registry

func NewHandler() {
	Instance = NewRegistryWithTx(db.DB)
}

// NewRegistryWithTx по провайдеру на каждое направление
func NewRegistryWithTx(tx *gorm.DB) Registry {
	r := registry{
		providers: map[models.Domain]StaffHierarchyProvider{},
	}
	store := staffmemberstore.NewInstance(tx)
	for _, domain := range models.AllDomains {
		r.providers[domain] = memberHierarchy{
			domain: domain,
			store:  store,
		}
	}
	return r
}

type registry struct {
	providers map[models.Domain]StaffHierarchyProvider
}

func (r registry) Get(domain models.Domain) (StaffHierarchyProvider, bool) {
	provider, ok := r.providers[domain]
	return provider, ok
}

type memberHierarchy struct {
	domain models.Domain
	store  staffmemberstore.Provider
}

func (m memberHierarchy) IsLeaderOrGrandLeader(ctx context.Context, companyID, staffUserID, approverID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	member, err := m.store.Get(companyID, m.domain, staffUserID)
	if err != nil {
		return false, errors.Wrapf(err, "ошибка получения сотрудника направления %s", m.domain)
	}
	if member == nil || member.LeaderID == nil {
		return false, nil
	}
	if *member.LeaderID == approverID {
		return true, nil
	}
	leader, err := m.store.Get(companyID, m.domain, *member.LeaderID)
	if err != nil {
		return false, errors.Wrapf(err, "ошибка получения руководителя направления %s", m.domain)
	}
	if leader == nil || leader.LeaderID == nil {
		return false, nil
	}
	return *leader.LeaderID == approverID, nil
}
