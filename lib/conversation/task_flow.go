package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	authorityhandler "farm-ops-backend/lib/authority"
	"farm-ops-backend/lib/session"
	taskstore "farm-ops-backend/lib/task/store"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"
)

func (i impl) showTasks(userID int64) (string, error) {
	list, err := taskstore.NewInstance(i.db).ListForUser(userID, []models.TaskStatus{models.TaskStatusActive})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return ReplyNoActiveTasks, nil
	}
	lines := make([]string, 0, len(list)+2)
	lines = append(lines, "Your active tasks:")
	for _, task := range list {
		lines = append(lines, fmt.Sprintf("#%d %s (due %s)", task.ID, task.Title, task.DueDate.Format("2006-01-02")))
	}
	lines = append(lines, "Send 'start task <id>' to begin")
	return strings.Join(lines, "\n"), nil
}

// activeTaskFor активная задача, доступная пользователю; hMsg - ответ при отказе
func (i impl) activeTaskFor(ctx context.Context, userID, taskID int64, notFoundReply string) (task *dbmodels.Task, hMsg string, err error) {
	task, err = taskstore.NewInstance(i.db).GetByID(taskID)
	if err != nil {
		return nil, "", err
	}
	if task == nil || task.Status != models.TaskStatusActive {
		return nil, notFoundReply, nil
	}
	if task.IsAssignee(userID) || task.IsAssistant(userID) {
		return task, "", nil
	}
	decision, err := i.deps.Authority.Resolve(ctx, authorityhandler.ResolveRequest{
		UserID:    userID,
		CompanyID: task.CompanyID,
		AppName:   task.AppName,
		ModelName: models.TaskModel,
		Action:    models.EditAction,
		Records:   []authorityhandler.Ownable{*task},
	})
	if err != nil {
		if denied, ok := apperrors.AsPermissionDenied(err); ok {
			return nil, "Access denied: " + denied.Reason, nil
		}
		if apperrors.IsNotFound(err) {
			return nil, notFoundReply, nil
		}
		return nil, "", err
	}
	if decision.Kind == authorityhandler.AllowSubset && len(decision.Records) == 0 {
		return nil, "Access denied", nil
	}
	return task, "", nil
}

func (i impl) startTask(ctx context.Context, userID, taskID int64) (string, error) {
	task, hMsg, err := i.activeTaskFor(ctx, userID, taskID, ReplyTaskNotFound)
	if err != nil || hMsg != "" {
		return hMsg, err
	}
	steps := stepsForTask(*task)

	// задача начинается заново: прежние ответы по ней сбрасываются
	if err = i.deps.Session.Set(ctx, session.ActiveTaskKey(userID), strconv.FormatInt(task.ID, 10), 0); err != nil {
		return "", err
	}
	if err = i.clearProgress(ctx, userID, task.ID); err != nil {
		return "", err
	}
	if err = i.deps.Session.Set(ctx, session.StepKey(userID, task.ID), steps[0].name, i.deps.TTLs.Step); err != nil {
		return "", err
	}
	if err = i.lock(ctx, userID, task.ID); err != nil {
		return "", err
	}
	i.GetLogger("", userID).WithField("task_id", task.ID).Info("задача начата")
	return fmt.Sprintf("Task #%d: %s\n%s", task.ID, task.Title, steps[0].prompt()), nil
}

func (i impl) switchTask(ctx context.Context, userID, taskID int64) (string, error) {
	task, hMsg, err := i.activeTaskFor(ctx, userID, taskID, ReplyTaskNotActive)
	if err != nil || hMsg != "" {
		return hMsg, err
	}
	if err = i.deps.Session.Set(ctx, session.ActiveTaskKey(userID), strconv.FormatInt(task.ID, 10), 0); err != nil {
		return "", err
	}
	current, err := i.currentStep(ctx, userID, *task)
	if err != nil {
		return "", err
	}
	if err = i.lock(ctx, userID, task.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("Switched to task #%d: %s\n%s", task.ID, task.Title, current.prompt()), nil
}

func (i impl) helpWhileLocked(ctx context.Context, userID int64) (string, error) {
	taskID, found, err := i.activeTask(ctx, userID)
	if err != nil {
		return "", err
	}
	if !found {
		return helpText, nil
	}
	task, err := taskstore.NewInstance(i.db).GetByID(taskID)
	if err != nil {
		return "", err
	}
	if task == nil || task.Status != models.TaskStatusActive {
		return helpText, i.releaseTask(ctx, userID, taskID)
	}
	current, err := i.currentStep(ctx, userID, *task)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Task #%d is in progress. %s\nSend 'switch to task <id>' to work on another task", task.ID, current.prompt()), nil
}

// currentStep текущий шаг задачи; неизвестный или пропавший шаг начинается с первого
func (i impl) currentStep(ctx context.Context, userID int64, task dbmodels.Task) (step, error) {
	steps := stepsForTask(task)
	name, found, err := i.deps.Session.Get(ctx, session.StepKey(userID, task.ID))
	if err != nil {
		return step{}, err
	}
	idx := -1
	if found {
		idx = stepIndex(steps, name)
	}
	if idx < 0 {
		idx = 0
		if err = i.deps.Session.Set(ctx, session.StepKey(userID, task.ID), steps[0].name, i.deps.TTLs.Step); err != nil {
			return step{}, err
		}
	}
	return steps[idx], nil
}

func (i impl) lock(ctx context.Context, userID, taskID int64) error {
	return i.deps.Session.Set(ctx, session.TaskLockKey(userID), strconv.FormatInt(taskID, 10), i.deps.TTLs.TaskLock)
}

func (i impl) clearProgress(ctx context.Context, userID, taskID int64) error {
	if err := i.deps.Session.Delete(ctx, session.StepKey(userID, taskID)); err != nil {
		return err
	}
	_, err := i.deps.Session.DeleteByPrefix(ctx, session.FieldPrefix(userID, taskID))
	return err
}

// releaseTask снимает задачу с пользователя, если она сейчас активна
func (i impl) releaseTask(ctx context.Context, userID, taskID int64) error {
	if err := i.clearProgress(ctx, userID, taskID); err != nil {
		return err
	}
	activeTaskID, found, err := i.activeTask(ctx, userID)
	if err != nil {
		return err
	}
	if found && activeTaskID == taskID {
		return i.deps.Session.Delete(ctx, session.ActiveTaskKey(userID), session.TaskLockKey(userID))
	}
	return nil
}

func (i impl) processStep(ctx context.Context, userID, taskID int64, msg InboundMessage) (string, error) {
	task, err := taskstore.NewInstance(i.db).GetByID(taskID)
	if err != nil {
		return "", err
	}
	if task == nil || task.Status != models.TaskStatusActive {
		return ReplyTaskNotActive, i.releaseTask(ctx, userID, taskID)
	}
	steps := stepsForTask(*task)
	current, err := i.currentStep(ctx, userID, *task)
	if err != nil {
		return "", err
	}
	if err = i.lock(ctx, userID, task.ID); err != nil {
		return "", err
	}
	idx := stepIndex(steps, current.name)
	fieldKey := session.FieldKey(userID, task.ID, current.name)
	body := strings.TrimSpace(msg.Body)

	if current.multiple && strings.EqualFold(body, doneToken) {
		values, err := i.deps.Session.List(ctx, fieldKey)
		if err != nil {
			return "", err
		}
		if current.required && len(values) == 0 {
			return "At least one value is required. " + current.prompt(), nil
		}
		return i.advance(ctx, userID, *task, steps, idx)
	}

	value, hint, ok := current.validate(body, msg.MediaURL, msg.MediaContentType)
	if !ok {
		return hint + ". " + current.prompt(), nil
	}
	if value != skipToken && current.existence != nil {
		exists, err := i.deps.Existence.Exists(ctx, task.CompanyID, *current.existence, value)
		if err != nil {
			if !apperrors.IsValidation(err) {
				return "", err
			}
			i.GetLogger("", userID).WithError(err).WithField("task_id", task.ID).Warn("некорректная проверка существования в описании задачи")
			exists = false
		}
		if !exists {
			return fmt.Sprintf("No matching record for '%s'. %s", value, current.prompt()), nil
		}
	}

	if current.multiple {
		if value == skipToken {
			if err = i.deps.Session.Delete(ctx, fieldKey); err != nil {
				return "", err
			}
			return i.advance(ctx, userID, *task, steps, idx)
		}
		if err = i.deps.Session.Append(ctx, fieldKey, value, i.deps.TTLs.Step); err != nil {
			return "", err
		}
		return "Saved. Send another value or 'done'", nil
	}
	if err = i.deps.Session.Set(ctx, fieldKey, value, i.deps.TTLs.Step); err != nil {
		return "", err
	}
	return i.advance(ctx, userID, *task, steps, idx)
}

// advance переход к следующему шагу; после последнего задача отправляется на проверку
func (i impl) advance(ctx context.Context, userID int64, task dbmodels.Task, steps []step, idx int) (string, error) {
	if idx+1 < len(steps) {
		next := steps[idx+1]
		if err := i.deps.Session.Set(ctx, session.StepKey(userID, task.ID), next.name, i.deps.TTLs.Step); err != nil {
			return "", err
		}
		return next.prompt(), nil
	}
	return i.submit(ctx, userID, task, steps)
}
