package authorityhandler

import (
	"context"
	"testing"

	stafflevelsstore "farm-ops-backend/lib/authority/staff-levels-store"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/lib/utils/testutil"
	"farm-ops-backend/models"
	authorityapimodels "farm-ops-backend/models/api/authority"
	dbmodels "farm-ops-backend/models/db"

	"github.com/stretchr/testify/require"
)

func allLevels(appName, modelName string, level int) authorityapimodels.AuthorityData {
	return authorityapimodels.AuthorityData{
		AppName:   appName,
		ModelName: modelName,
		View:      level,
		Add:       level,
		Edit:      level,
		Delete:    level,
		Accept:    level,
		Approve:   level,
	}
}

func requireDenied(t *testing.T, err error, category apperrors.DenyCategory) {
	t.Helper()
	denied, ok := apperrors.AsPermissionDenied(err)
	require.True(t, ok, "ожидался отказ, получено %v", err)
	require.Equal(t, category, denied.Category)
	require.NotEmpty(t, denied.Reason)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("creator and superuser bypass", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)

		decision, err := h.Resolve(ctx, ResolveRequest{
			UserID:    f.Creator.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: "pond",
			Action:    models.DeleteAction,
			MinLevel:  5,
		})
		require.NoError(t, err)
		require.Equal(t, Allow, decision.Kind)

		admin := testutil.CreateUser(t, tx, "root@farm.io", "+19999999999", "")
		require.NoError(t, tx.Model(&dbmodels.User{}).Where("id = ?", admin.ID).Update("is_superuser", true).Error)
		decision, err = h.Resolve(ctx, ResolveRequest{
			UserID:    admin.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: "pond",
			Action:    models.ApproveAction,
		})
		require.NoError(t, err)
		require.Equal(t, Allow, decision.Kind)
	})

	t.Run("not staff", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)

		_, err := h.Resolve(ctx, ResolveRequest{
			UserID:    f.Outsider.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: "pond",
			Action:    models.ViewAction,
		})
		requireDenied(t, err, apperrors.DenyNotStaff)
	})

	t.Run("no authority defined requires max level", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)

		_, err := h.Resolve(ctx, ResolveRequest{
			UserID:    f.Leader.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: "pond",
			Action:    models.ViewAction,
		})
		requireDenied(t, err, apperrors.DenyNoAuthorityDefined)

		_, err = stafflevelsstore.NewInstance(tx).SetActive(f.Company.ID, f.Leader.ID, models.MaxStaffLevel)
		require.NoError(t, err)
		decision, err := h.Resolve(ctx, ResolveRequest{
			UserID:    f.Leader.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: "pond",
			Action:    models.ViewAction,
		})
		require.NoError(t, err)
		require.Equal(t, Allow, decision.Kind)
	})

	t.Run("insufficient level and min level", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)
		_, hMsg, err := h.RequestAuthority(ctx, f.Owner.ID, f.Company.ID, allLevels("aquaculture", "pond", 3))
		require.NoError(t, err)
		require.Empty(t, hMsg)

		_, err = h.Resolve(ctx, ResolveRequest{
			UserID:    f.Owner.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: "pond",
			Action:    models.EditAction,
		})
		requireDenied(t, err, apperrors.DenyInsufficientLevel)

		_, err = h.Resolve(ctx, ResolveRequest{
			UserID:    f.Leader.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: "pond",
			Action:    models.EditAction,
		})
		require.NoError(t, err)

		_, err = h.Resolve(ctx, ResolveRequest{
			UserID:    f.Leader.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: "pond",
			Action:    models.EditAction,
			MinLevel:  5,
		})
		requireDenied(t, err, apperrors.DenyInsufficientLevel)
	})

	t.Run("level is monotonic", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)
		levels := stafflevelsstore.NewInstance(tx)
		_, _, err := h.RequestAuthority(ctx, f.Owner.ID, f.Company.ID, allLevels("poultry", "batch", 3))
		require.NoError(t, err)

		passed := false
		for level := models.MinStaffLevel; level <= models.MaxStaffLevel; level++ {
			_, err = levels.SetActive(f.Company.ID, f.Other.ID, level)
			require.NoError(t, err)
			_, err = h.Resolve(ctx, ResolveRequest{
				UserID:    f.Other.ID,
				CompanyID: f.Company.ID,
				AppName:   "poultry",
				ModelName: "batch",
				Action:    models.AddAction,
			})
			if passed {
				require.NoError(t, err, "уровень %d", level)
			}
			if err == nil {
				passed = true
				require.GreaterOrEqual(t, level, 3)
			}
		}
		require.True(t, passed)
	})

	t.Run("view own records subset", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)
		mine := f.CreateTask(t, tx, nil)
		foreign := f.CreateTask(t, tx, func(task *dbmodels.Task) {
			task.AssignedToID = f.Other.ID
		})

		decision, err := h.Resolve(ctx, ResolveRequest{
			UserID:    f.Owner.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: models.TaskModel,
			Action:    models.ViewAction,
			Records:   []Ownable{mine, foreign},
		})
		require.NoError(t, err)
		require.Equal(t, AllowSubset, decision.Kind)
		require.Len(t, decision.Records, 1)
		require.Equal(t, mine.ID, decision.Records[0].(dbmodels.Task).ID)

		// чужие записи без уровня не отдаются
		_, err = h.Resolve(ctx, ResolveRequest{
			UserID:    f.Assistant.ID,
			CompanyID: f.Company.ID,
			AppName:   "aquaculture",
			ModelName: models.TaskModel,
			Action:    models.ViewAction,
			Records:   []Ownable{foreign},
		})
		requireDenied(t, err, apperrors.DenyNoAuthorityDefined)
	})

	t.Run("excluded models ignore own records", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)
		staff := dbmodels.Staff{UserID: f.Owner.ID}

		_, err := h.Resolve(ctx, ResolveRequest{
			UserID:    f.Owner.ID,
			CompanyID: f.Company.ID,
			AppName:   models.CompanyApp,
			ModelName: models.StaffLevelsModel,
			Action:    models.ViewAction,
			Records:   []Ownable{staff},
		})
		requireDenied(t, err, apperrors.DenyNoAuthorityDefined)
	})
}

func TestAuthorityManagement(t *testing.T) {
	ctx := context.Background()

	t.Run("request twice", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)

		id, hMsg, err := h.RequestAuthority(ctx, f.Owner.ID, f.Company.ID, allLevels("insect", "batch", 2))
		require.NoError(t, err)
		require.Empty(t, hMsg)
		require.NotZero(t, id)

		_, hMsg, err = h.RequestAuthority(ctx, f.Other.ID, f.Company.ID, allLevels("insect", "batch", 4))
		require.NoError(t, err)
		require.NotEmpty(t, hMsg)

		_, hMsg, err = h.RequestAuthority(ctx, f.Outsider.ID, f.Company.ID, allLevels("insect", "net", 4))
		require.NoError(t, err)
		require.NotEmpty(t, hMsg)

		list, err := h.List(ctx, f.Company.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, 2, list[0].Edit)
	})

	t.Run("approve requires authority", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)
		id, _, err := h.RequestAuthority(ctx, f.Owner.ID, f.Company.ID, allLevels("insect", "batch", 2))
		require.NoError(t, err)

		hMsg, err := h.ApproveAuthority(ctx, f.Leader.ID, id, allLevels("insect", "batch", 3))
		require.NoError(t, err)
		require.NotEmpty(t, hMsg)

		hMsg, err = h.ApproveAuthority(ctx, f.Creator.ID, id, allLevels("insect", "batch", 3))
		require.NoError(t, err)
		require.Empty(t, hMsg)

		list, err := h.List(ctx, f.Company.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, 3, list[0].Approve)
		require.NotNil(t, list[0].ApprovedBy)
		require.Equal(t, f.Creator.ID, *list[0].ApprovedBy)
	})

	t.Run("set staff level keeps single active", func(t *testing.T) {
		tx := testutil.SetupTestDB(t)
		f := testutil.NewFixture(t, tx)
		h := NewHandlerWithTx(tx)
		levels := stafflevelsstore.NewInstance(tx)

		hMsg, err := h.SetStaffLevel(ctx, f.Owner.ID, f.Company.ID, f.Other.ID, 4)
		require.NoError(t, err)
		require.NotEmpty(t, hMsg)

		for _, level := range []int{3, 4, 1} {
			hMsg, err = h.SetStaffLevel(ctx, f.Creator.ID, f.Company.ID, f.Other.ID, level)
			require.NoError(t, err)
			require.Empty(t, hMsg)
			count, err := levels.CountActive(f.Company.ID, f.Other.ID)
			require.NoError(t, err)
			require.EqualValues(t, 1, count)
			active, err := levels.GetActive(f.Company.ID, f.Other.ID)
			require.NoError(t, err)
			require.Equal(t, level, active.Level)
		}

		hMsg, err = h.SetStaffLevel(ctx, f.Creator.ID, f.Company.ID, f.Outsider.ID, 2)
		require.NoError(t, err)
		require.NotEmpty(t, hMsg)
	})
}
