package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"farm-ops-backend/lib/session"
	usersstore "farm-ops-backend/lib/users/store"
	authutils "farm-ops-backend/lib/utils/auth-utils"
	dbmodels "farm-ops-backend/models/db"
)

const (
	confirmContinue = "1"
	confirmRelogin  = "2"
	confirmCancel   = "3"
)

func (i impl) handleUnauthenticated(ctx context.Context, phone string, cmd command, msg InboundMessage) (string, error) {
	pending, found, err := i.deps.Session.Get(ctx, session.PendingConfirmationKey(phone))
	if err != nil {
		return "", err
	}
	if found {
		return i.handleConfirmation(ctx, phone, pending, cmd, msg)
	}

	switch cmd.kind {
	case cmdLogin:
		return i.login(ctx, phone, cmd)
	case cmdHelp:
		return helpText, nil
	case cmdNone:
		return ReplyInvalidInput, nil
	}

	// знакомый номер без начатого входа: предлагаем продолжить под прежним пользователем
	loginStarted, err := i.deps.Session.Exists(ctx, session.LoginStateKey(phone))
	if err != nil {
		return "", err
	}
	if loginStarted {
		return ReplyLoginRequired, nil
	}
	user, err := usersstore.NewInstance(i.db).FindByPhone(phone)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive {
		return ReplyLoginRequired, nil
	}
	err = i.deps.Session.Set(ctx, session.PendingConfirmationKey(phone), strconv.FormatInt(user.ID, 10), i.deps.TTLs.PendingConfirmation)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Continue as %s?\n1 - yes\n2 - log in as another user\n3 - cancel", user.GetDisplayName()), nil
}

func (i impl) handleConfirmation(ctx context.Context, phone, pending string, cmd command, msg InboundMessage) (string, error) {
	if cmd.kind == cmdLogin {
		return i.login(ctx, phone, cmd)
	}
	switch strings.TrimSpace(msg.Body) {
	case confirmContinue:
		userID, err := strconv.ParseInt(pending, 10, 64)
		if err != nil {
			return "", i.deps.Session.Delete(ctx, session.PendingConfirmationKey(phone))
		}
		user, err := usersstore.NewInstance(i.db).GetByID(userID)
		if err != nil {
			return "", err
		}
		if user == nil || !user.IsActive {
			if err = i.deps.Session.Delete(ctx, session.PendingConfirmationKey(phone)); err != nil {
				return "", err
			}
			return ReplyLoginRequired, nil
		}
		return i.startSession(ctx, phone, *user)
	case confirmRelogin:
		if err := i.deps.Session.Delete(ctx, session.PendingConfirmationKey(phone)); err != nil {
			return "", err
		}
		if err := i.deps.Session.Set(ctx, session.LoginStateKey(phone), "awaiting_credentials", i.deps.TTLs.LoginState); err != nil {
			return "", err
		}
		return ReplyLoginUsage, nil
	case confirmCancel:
		if err := i.deps.Session.Delete(ctx, session.PhoneKeys(phone)...); err != nil {
			return "", err
		}
		return ReplyLoggedOut, nil
	}
	return ReplyConfirmChoice, nil
}

func (i impl) login(ctx context.Context, phone string, cmd command) (string, error) {
	logger := i.GetLogger(phone, 0)
	if !cmd.valid {
		return ReplyInvalidCredentials, nil
	}
	user, err := usersstore.NewInstance(i.db).FindByEmail(strings.ToLower(cmd.args[0]))
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive || !authutils.CheckPassword(user.Password, cmd.args[1]) {
		logger.Info("неудачная попытка входа")
		return ReplyInvalidCredentials, nil
	}
	return i.startSession(ctx, phone, *user)
}

func (i impl) startSession(ctx context.Context, phone string, user dbmodels.User) (string, error) {
	err := i.deps.Session.Set(ctx, session.LoggedInKey(phone), strconv.FormatInt(user.ID, 10), i.deps.TTLs.LoggedIn)
	if err != nil {
		return "", err
	}
	err = i.deps.Session.Delete(ctx, session.LoginStateKey(phone), session.PendingConfirmationKey(phone))
	if err != nil {
		return "", err
	}
	if err = usersstore.NewInstance(i.db).SetLastLogin(user.ID, time.Now().UTC()); err != nil {
		// вход уже состоялся, дата последнего входа не критична
		i.GetLogger(phone, user.ID).WithError(err).Warn("не удалось сохранить дату входа")
	}
	i.GetLogger(phone, user.ID).Info("вход в чат")
	return fmt.Sprintf("Welcome, %s! Send 'show tasks' to see your tasks or Help for commands", user.GetDisplayName()), nil
}

func (i impl) logout(ctx context.Context, phone string, userID int64) (string, error) {
	keys := append(session.PhoneKeys(phone), session.TaskLockKey(userID))
	if err := i.deps.Session.Delete(ctx, keys...); err != nil {
		return "", err
	}
	return ReplyLoggedOut, nil
}
