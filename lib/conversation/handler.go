package conversation

import (
	"context"
	"strconv"
	"strings"

	"farm-ops-backend/db"
	authorityhandler "farm-ops-backend/lib/authority"
	"farm-ops-backend/lib/existence"
	filestorage "farm-ops-backend/lib/file-storage"
	"farm-ops-backend/lib/messaging"
	"farm-ops-backend/lib/session"
	"farm-ops-backend/lib/smtp"
	usersstore "farm-ops-backend/lib/users/store"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InboundMessage входящее сообщение мессенджера
type InboundMessage struct {
	From             string
	Body             string
	MediaURL         string
	MediaContentType string
}

type Provider interface {
	// HandleInbound обрабатывает сообщение и возвращает текст ответа
	HandleInbound(ctx context.Context, msg InboundMessage) (reply string)
	// Process обрабатывает сообщение и отправляет ответ через шлюз
	Process(ctx context.Context, msg InboundMessage) error
}

var Instance Provider

type Deps struct {
	Session   session.Provider
	Gateway   messaging.Provider
	Storage   filestorage.Provider
	Mailer    smtp.Provider
	Authority authorityhandler.Provider
	Existence existence.Provider
	TTLs      session.TTLs
}

func NewHandler(ttls session.TTLs) {
	Instance = NewHandlerWithTx(db.DB, Deps{
		Session:   session.Instance,
		Gateway:   messaging.Instance,
		Storage:   filestorage.Instance,
		Mailer:    smtp.Instance,
		Authority: authorityhandler.Instance,
		Existence: existence.Instance,
		TTLs:      ttls,
	})
}

func NewHandlerWithTx(tx *gorm.DB, deps Deps) Provider {
	return impl{
		db:   tx,
		deps: deps,
	}
}

type impl struct {
	db   *gorm.DB
	deps Deps
}

func (i impl) GetLogger(phone string, userID int64) *log.Entry {
	logger := log.WithField("phone", phone)
	if userID != 0 {
		logger = logger.WithField("user_id", userID)
	}
	return logger
}

func (i impl) Process(ctx context.Context, msg InboundMessage) error {
	reply := i.HandleInbound(ctx, msg)
	if reply == "" {
		return nil
	}
	return i.deps.Gateway.Send(ctx, msg.From, reply)
}

func (i impl) HandleInbound(ctx context.Context, msg InboundMessage) string {
	phone := messaging.ParseAddress(msg.From).Phone
	logger := i.GetLogger(phone, 0)
	if phone == "" {
		logger.Warn("Сообщение без отправителя")
		return ""
	}
	cmd := parseCommand(msg.Body)

	userID, loggedIn, err := i.loggedInUser(ctx, phone)
	if err != nil {
		logger.WithError(err).Error("ошибка чтения сессии")
		return ReplyInternalError
	}
	if !loggedIn {
		reply, err := i.handleUnauthenticated(ctx, phone, cmd, msg)
		if err != nil {
			logger.WithError(err).Error("ошибка обработки сообщения")
			return ReplyInternalError
		}
		return reply
	}

	reply, err := i.handleLoggedIn(ctx, phone, userID, cmd, msg)
	if err != nil {
		i.GetLogger(phone, userID).WithError(err).Error("ошибка обработки сообщения")
		return ReplyInternalError
	}
	return reply
}

func (i impl) loggedInUser(ctx context.Context, phone string) (int64, bool, error) {
	value, found, err := i.deps.Session.Get(ctx, session.LoggedInKey(phone))
	if err != nil || !found {
		return 0, false, err
	}
	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		// битое значение равносильно отсутствию сессии
		return 0, false, i.deps.Session.Delete(ctx, session.LoggedInKey(phone))
	}
	user, err := usersstore.NewInstance(i.db).GetByID(userID)
	if err != nil {
		return 0, false, err
	}
	if user == nil || !user.IsActive {
		return 0, false, i.deps.Session.Delete(ctx, session.LoggedInKey(phone))
	}
	return userID, true, nil
}

func (i impl) handleLoggedIn(ctx context.Context, phone string, userID int64, cmd command, msg InboundMessage) (string, error) {
	locked, err := i.deps.Session.Exists(ctx, session.TaskLockKey(userID))
	if err != nil {
		return "", err
	}
	if locked {
		// во время заполнения задачи команды, кроме help и switch, считаются ответом на шаг
		switch cmd.kind {
		case cmdSwitchTask:
			if !cmd.valid {
				return ReplyTaskUsage, nil
			}
			return i.switchTask(ctx, userID, cmd.taskID)
		case cmdHelp:
			return i.helpWhileLocked(ctx, userID)
		}
		return i.continueActiveTask(ctx, userID, msg)
	}

	switch cmd.kind {
	case cmdHelp:
		return helpText, nil
	case cmdLogin:
		return i.login(ctx, phone, cmd)
	case cmdLogout:
		return i.logout(ctx, phone, userID)
	case cmdShowTasks:
		return i.showTasks(userID)
	case cmdStartTask:
		if !cmd.valid {
			return ReplyTaskUsage, nil
		}
		return i.startTask(ctx, userID, cmd.taskID)
	case cmdSwitchTask:
		if !cmd.valid {
			return ReplyTaskUsage, nil
		}
		return i.switchTask(ctx, userID, cmd.taskID)
	}

	activeTaskID, found, err := i.activeTask(ctx, userID)
	if err != nil {
		return "", err
	}
	if !found {
		return ReplyInvalidInput, nil
	}
	return i.processStep(ctx, userID, activeTaskID, msg)
}

func (i impl) activeTask(ctx context.Context, userID int64) (int64, bool, error) {
	value, found, err := i.deps.Session.Get(ctx, session.ActiveTaskKey(userID))
	if err != nil || !found {
		return 0, false, err
	}
	taskID, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return taskID, true, nil
}

func (i impl) continueActiveTask(ctx context.Context, userID int64, msg InboundMessage) (string, error) {
	taskID, found, err := i.activeTask(ctx, userID)
	if err != nil {
		return "", err
	}
	if !found {
		// блокировка без активной задачи ничего не защищает
		if err = i.deps.Session.Delete(ctx, session.TaskLockKey(userID)); err != nil {
			return "", err
		}
		return ReplyInvalidInput, nil
	}
	return i.processStep(ctx, userID, taskID, msg)
}
