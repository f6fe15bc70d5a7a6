package rewardshandler

import (
	"context"
	"testing"

	"farm-ops-backend/lib/utils/testutil"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/stretchr/testify/require"
)

func TestTaskAPI(t *testing.T) {
	ctx := context.Background()
	tx := testutil.SetupTestDB(t)
	f := testutil.NewFixture(t, tx)
	h := newTestHandler(tx)

	task := completedTask(t, tx, f, f.Assistant.ID, 12, nil)

	_, hMsg, err := h.AllocateTask(ctx, f.Company.ID+1, task.ID, f.Leader.ID)
	require.NoError(t, err)
	require.Equal(t, hMsgTaskNotFound, hMsg)

	result, hMsg, err := h.AllocateTask(ctx, f.Company.ID, task.ID, f.Leader.ID)
	require.NoError(t, err)
	require.Empty(t, hMsg)
	require.Equal(t, AllocationSuccess, result.Status)

	t.Run("assignee without staff record", func(t *testing.T) {
		orphan := completedTask(t, tx, f, f.Assistant.ID, 12, func(task *dbmodels.Task) {
			task.AssignedToID = f.Outsider.ID
		})
		result, hMsg, err := h.AllocateTask(ctx, f.Company.ID, orphan.ID, f.Leader.ID)
		require.NoError(t, err)
		require.Empty(t, hMsg)
		require.Equal(t, ReasonStaffNotAssigned, result.Reason)
	})

	t.Run("approve", func(t *testing.T) {
		pending := f.CreateTask(t, tx, func(task *dbmodels.Task) {
			task.Status = models.TaskStatusPending
		})
		hMsg, err := h.ApproveTask(ctx, f.Company.ID+1, pending.ID, f.Leader.ID)
		require.NoError(t, err)
		require.Equal(t, hMsgTaskNotFound, hMsg)

		hMsg, err = h.ApproveTask(ctx, f.Company.ID, pending.ID, f.Leader.ID)
		require.NoError(t, err)
		require.Empty(t, hMsg)
		require.Equal(t, models.TaskStatusCompleted, reloadTask(t, tx, pending.ID).Status)
	})
}
