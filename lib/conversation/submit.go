package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	companystore "farm-ops-backend/lib/company/store"
	mediastore "farm-ops-backend/lib/media/store"
	"farm-ops-backend/lib/session"
	taskstore "farm-ops-backend/lib/task/store"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type answer struct {
	step   step
	values []string
}

type uploadedFile struct {
	key         string
	contentType string
}

func (i impl) collectAnswers(ctx context.Context, userID int64, task dbmodels.Task, steps []step) ([]answer, error) {
	answers := make([]answer, 0, len(steps))
	for _, s := range steps {
		key := session.FieldKey(userID, task.ID, s.name)
		if s.multiple {
			values, err := i.deps.Session.List(ctx, key)
			if err != nil {
				return nil, err
			}
			answers = append(answers, answer{step: s, values: values})
			continue
		}
		value, found, err := i.deps.Session.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !found {
			value = skipToken
		}
		answers = append(answers, answer{step: s, values: []string{value}})
	}
	return answers, nil
}

// uploadFiles выгружает вложения в хранилище до записи в базу
func (i impl) uploadFiles(ctx context.Context, task dbmodels.Task, answers []answer) (map[string][]uploadedFile, error) {
	files := map[string][]uploadedFile{}
	for _, a := range answers {
		if a.step.kind != stepMedia {
			continue
		}
		for _, value := range a.values {
			if value == skipToken {
				files[a.step.name] = append(files[a.step.name], uploadedFile{})
				continue
			}
			file, err := i.uploadFile(ctx, task, value)
			if err != nil {
				i.removeFiles(ctx, task.ID, files)
				return nil, err
			}
			files[a.step.name] = append(files[a.step.name], file)
		}
	}
	return files, nil
}

// removeFiles удаляет уже выгруженные вложения, если задача не сохранена
func (i impl) removeFiles(ctx context.Context, taskID int64, files map[string][]uploadedFile) {
	for _, list := range files {
		for _, file := range list {
			if file.key == "" {
				continue
			}
			if err := i.deps.Storage.DeleteFile(ctx, file.key); err != nil {
				i.GetLogger("", 0).
					WithField("task_id", taskID).
					WithField("key", file.key).
					WithError(err).
					Warn("не удалось удалить вложение из хранилища")
			}
		}
	}
}

func (i impl) uploadFile(ctx context.Context, task dbmodels.Task, value string) (uploadedFile, error) {
	url, contentType := decodeMedia(value)
	body, fetchedContentType, err := i.deps.Gateway.FetchMedia(ctx, url)
	if err != nil {
		return uploadedFile{}, err
	}
	defer body.Close()
	if contentType == "" {
		contentType = fetchedContentType
	}
	key, err := i.deps.Storage.UploadMedia(ctx, task.CompanyID, task.ID, body, -1, contentType)
	if err != nil {
		return uploadedFile{}, apperrors.NewTransientGatewayError("upload", err)
	}
	return uploadedFile{key: key, contentType: contentType}, nil
}

func (i impl) submit(ctx context.Context, userID int64, task dbmodels.Task, steps []step) (string, error) {
	logger := i.GetLogger("", userID).WithField("task_id", task.ID)
	answers, err := i.collectAnswers(ctx, userID, task, steps)
	if err != nil {
		return "", err
	}
	files, err := i.uploadFiles(ctx, task, answers)
	if err != nil {
		logger.WithError(err).Warn("не удалось сохранить вложение")
		return ReplyMediaDownload, nil
	}

	err = i.db.Transaction(func(tx *gorm.DB) error {
		tasksStore := taskstore.NewInstance(tx)
		rec, txErr := tasksStore.GetByID(task.ID)
		if txErr != nil {
			return txErr
		}
		if rec == nil || rec.Status != models.TaskStatusActive {
			return apperrors.NewStateConflict("задача уже не активна")
		}
		details, txErr := saveDetails(tx, userID, *rec, answers, files)
		if txErr != nil {
			return txErr
		}
		now := time.Now().UTC()
		return tasksStore.Update(rec.ID, map[string]interface{}{
			"status":           models.TaskStatusPending,
			"completed_by_id":  userID,
			"completed_date":   now,
			"complete_details": details,
		})
	})
	if err != nil {
		i.removeFiles(ctx, task.ID, files)
		if apperrors.IsStateConflict(err) {
			return ReplyTaskNotActive, i.releaseTask(ctx, userID, task.ID)
		}
		logger.WithError(err).Error("ошибка сохранения задачи")
		return ReplySubmitFailed, nil
	}

	if err = i.releaseTask(ctx, userID, task.ID); err != nil {
		// данные уже сохранены, остатки сессии истекут сами
		logger.WithError(err).Warn("не удалось очистить сессию после отправки задачи")
	}
	logger.Info("задача отправлена на проверку")
	i.notifyManager(task, userID)
	return fmt.Sprintf("Task #%d submitted for approval. Thank you!", task.ID), nil
}

// saveDetails создаёт записи вложений и собирает completeDetails вида [name=value][media=<id>]
func saveDetails(tx *gorm.DB, userID int64, task dbmodels.Task, answers []answer, files map[string][]uploadedFile) (string, error) {
	mediaStore := mediastore.NewInstance(tx)
	var details strings.Builder
	for _, a := range answers {
		if a.step.kind != stepMedia {
			for _, value := range a.values {
				if value == skipToken {
					continue
				}
				details.WriteString(fmt.Sprintf("[%s=%s]", a.step.name, value))
			}
			continue
		}
		for _, file := range files[a.step.name] {
			mediaID, err := mediaStore.Create(dbmodels.Media{
				BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: task.CompanyID},
				BranchID:         task.BranchID,
				AppName:          task.AppName,
				ModelName:        models.TaskModel,
				ModelID:          task.ID,
				File:             file.key,
				ContentType:      file.contentType,
				Status:           models.MediaStatusActive,
				UploadedByID:     userID,
			})
			if err != nil {
				return "", errors.Wrap(err, "ошибка сохранения вложения")
			}
			if file.key != "" {
				details.WriteString(fmt.Sprintf("[media=%d]", mediaID))
			}
		}
	}
	return details.String(), nil
}

func (i impl) notifyManager(task dbmodels.Task, userID int64) {
	if i.deps.Mailer == nil {
		return
	}
	logger := i.GetLogger("", userID).WithField("task_id", task.ID)
	branch, err := companystore.NewInstance(i.db).GetBranch(task.CompanyID, task.BranchID)
	if err != nil {
		logger.WithError(err).Warn("ошибка получения филиала")
		return
	}
	if branch == nil || branch.Manager == nil || branch.Manager.Email == "" {
		return
	}
	message := fmt.Sprintf("Task #%d \"%s\" was submitted and is waiting for your approval.", task.ID, task.Title)
	if err = i.deps.Mailer.SendEMail([]string{branch.Manager.Email}, "Task submitted", message); err != nil {
		logger.WithError(err).Warn("не удалось уведомить руководителя филиала")
	}
}
