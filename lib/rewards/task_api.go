package rewardshandler

import (
	"context"

	staffstore "farm-ops-backend/lib/staff/store"
	taskstore "farm-ops-backend/lib/task/store"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
)

const hMsgTaskNotFound = "задача не найдена"

func (i impl) companyTask(companyID, taskID int64) (*dbmodels.Task, error) {
	task, err := taskstore.NewInstance(i.db).GetByID(taskID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения задачи")
	}
	if task == nil || task.CompanyID != companyID {
		return nil, nil
	}
	return task, nil
}

// AllocateTask начисление по задаче компании: сотрудник - исполнитель задачи
func (i impl) AllocateTask(ctx context.Context, companyID, taskID, callerID int64) (AllocationResult, string, error) {
	task, err := i.companyTask(companyID, taskID)
	if err != nil {
		return AllocationResult{}, "", err
	}
	if task == nil {
		return AllocationResult{}, hMsgTaskNotFound, nil
	}
	staff, err := staffstore.NewInstance(i.db).Get(companyID, task.AssignedToID)
	if err != nil {
		return AllocationResult{}, "", errors.Wrap(err, "ошибка получения сотрудника")
	}
	if staff == nil {
		return failure(ReasonStaffNotAssigned), "", nil
	}
	result, err := i.AllocatePoints(ctx, *staff, *task, callerID)
	return result, "", err
}

func (i impl) ApproveTask(ctx context.Context, companyID, taskID, approverID int64) (string, error) {
	task, err := i.companyTask(companyID, taskID)
	if err != nil {
		return "", err
	}
	if task == nil {
		return hMsgTaskNotFound, nil
	}
	return i.ApprovePoints(ctx, taskID, approverID)
}
