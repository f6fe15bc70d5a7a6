package hierarchy

import (
	"context"
	"testing"

	staffmemberstore "farm-ops-backend/lib/staff/member-store"
	"farm-ops-backend/lib/utils/testutil"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/stretchr/testify/require"
)

func TestIsLeaderOrGrandLeader(t *testing.T) {
	ctx := context.Background()
	tx := testutil.SetupTestDB(t)
	f := testutil.NewFixture(t, tx)
	store := staffmemberstore.NewInstance(tx)

	save := func(domain models.Domain, userID int64, leaderID *int64) {
		_, err := store.Save(dbmodels.StaffMember{
			BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: f.Company.ID},
			Domain:           domain,
			UserID:           userID,
			LeaderID:         leaderID,
		})
		require.NoError(t, err)
	}
	// owner -> other -> leader в аквакультуре, в птице owner подчинён leader напрямую
	save(models.AquacultureDomain, f.Leader.ID, nil)
	save(models.AquacultureDomain, f.Other.ID, &f.Leader.ID)
	save(models.AquacultureDomain, f.Owner.ID, &f.Other.ID)
	save(models.PoultryDomain, f.Owner.ID, &f.Leader.ID)

	registry := NewRegistryWithTx(tx)
	aquaculture, ok := registry.Get(models.AquacultureDomain)
	require.True(t, ok)

	isLeader, err := aquaculture.IsLeaderOrGrandLeader(ctx, f.Company.ID, f.Owner.ID, f.Other.ID)
	require.NoError(t, err)
	require.True(t, isLeader)

	isLeader, err = aquaculture.IsLeaderOrGrandLeader(ctx, f.Company.ID, f.Owner.ID, f.Leader.ID)
	require.NoError(t, err)
	require.True(t, isLeader)

	isLeader, err = aquaculture.IsLeaderOrGrandLeader(ctx, f.Company.ID, f.Owner.ID, f.Assistant.ID)
	require.NoError(t, err)
	require.False(t, isLeader)

	isLeader, err = aquaculture.IsLeaderOrGrandLeader(ctx, f.Company.ID, f.Leader.ID, f.Owner.ID)
	require.NoError(t, err)
	require.False(t, isLeader)

	insect, ok := registry.Get(models.InsectDomain)
	require.True(t, ok)
	isLeader, err = insect.IsLeaderOrGrandLeader(ctx, f.Company.ID, f.Owner.ID, f.Leader.ID)
	require.NoError(t, err)
	require.False(t, isLeader)

	poultry, _ := registry.Get(models.PoultryDomain)
	isLeader, err = poultry.IsLeaderOrGrandLeader(ctx, f.Company.ID, f.Owner.ID, f.Other.ID)
	require.NoError(t, err)
	require.False(t, isLeader)

	_, ok = registry.Get("fungi")
	require.False(t, ok)
}
