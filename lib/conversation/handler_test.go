package conversation

import (
	"context"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	authorityhandler "farm-ops-backend/lib/authority"
	"farm-ops-backend/lib/existence"
	"farm-ops-backend/lib/session"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	authutils "farm-ops-backend/lib/utils/auth-utils"
	"farm-ops-backend/lib/utils/testutil"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "secret"

type gatewayMock struct {
	mock.Mock
}

func (m *gatewayMock) Send(ctx context.Context, recipient, text string) error {
	args := m.Called(recipient, text)
	return args.Error(0)
}

func (m *gatewayMock) FetchMedia(ctx context.Context, url string) (io.ReadCloser, string, error) {
	args := m.Called(url)
	body, _ := args.Get(0).(io.ReadCloser)
	return body, args.String(1), args.Error(2)
}

type storageMock struct {
	mock.Mock
}

func (m *storageMock) UploadMedia(ctx context.Context, companyID, taskID int64, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(companyID, taskID, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *storageMock) GetFile(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(key)
	body, _ := args.Get(0).(io.ReadCloser)
	return body, args.Error(1)
}

func (m *storageMock) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(key)
	return args.Error(0)
}

type mailerMock struct {
	mock.Mock
}

func (m *mailerMock) SendEMail(to []string, subject, message string) error {
	args := m.Called(to, subject, message)
	return args.Error(0)
}

type testEnv struct {
	t       *testing.T
	ctx     context.Context
	tx      *gorm.DB
	f       testutil.Fixture
	h       Provider
	session session.Provider
	server  *miniredis.Miniredis
	gateway *gatewayMock
	storage *storageMock
	mailer  *mailerMock
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	tx := testutil.SetupTestDB(t)
	f := testutil.NewFixture(t, tx)
	hash, err := authutils.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, tx.Model(&dbmodels.User{}).Where("id IN ?", []int64{f.Owner.ID, f.Other.ID, f.Creator.ID}).Update("password", hash).Error)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	env := &testEnv{
		t:       t,
		ctx:     context.Background(),
		tx:      tx,
		f:       f,
		session: session.NewInstance(client, ""),
		server:  server,
		gateway: &gatewayMock{},
		storage: &storageMock{},
		mailer:  &mailerMock{},
	}
	env.h = NewHandlerWithTx(tx, Deps{
		Session:   env.session,
		Gateway:   env.gateway,
		Storage:   env.storage,
		Mailer:    env.mailer,
		Authority: authorityhandler.NewHandlerWithTx(tx),
		Existence: existence.NewInstance(tx),
		TTLs:      session.DefaultTTLs(),
	})
	return env
}

func from(user dbmodels.User) string {
	return "whatsapp:" + user.PhoneNumber
}

func (e *testEnv) send(user dbmodels.User, body string) string {
	return e.h.HandleInbound(e.ctx, InboundMessage{From: from(user), Body: body})
}

func (e *testEnv) sendMedia(user dbmodels.User, url, contentType string) string {
	return e.h.HandleInbound(e.ctx, InboundMessage{From: from(user), MediaURL: url, MediaContentType: contentType})
}

func (e *testEnv) login(user dbmodels.User) {
	e.t.Helper()
	reply := e.send(user, "login "+user.Email+" "+testPassword)
	require.Contains(e.t, reply, "Welcome")
}

func (e *testEnv) get(key string) (string, bool) {
	e.t.Helper()
	value, found, err := e.session.Get(e.ctx, key)
	require.NoError(e.t, err)
	return value, found
}

func (e *testEnv) reloadTask(taskID int64) dbmodels.Task {
	e.t.Helper()
	var task dbmodels.Task
	require.NoError(e.t, e.tx.First(&task, taskID).Error)
	return task
}

func startCmd(task dbmodels.Task) string {
	return "start task " + strconv.FormatInt(task.ID, 10)
}

func switchCmd(task dbmodels.Task) string {
	return "switch to task " + strconv.FormatInt(task.ID, 10)
}

func TestLogin(t *testing.T) {
	env := setup(t)
	owner := env.f.Owner

	require.Equal(t, ReplyInvalidCredentials, env.send(owner, "login owner@farm.io wrong"))
	_, found := env.get(session.LoggedInKey(owner.PhoneNumber))
	require.False(t, found)

	require.Equal(t, ReplyInvalidCredentials, env.send(owner, "login owner@farm.io"))
	require.Equal(t, ReplyInvalidCredentials, env.send(owner, "login nobody@farm.io "+testPassword))

	reply := env.send(owner, "login OWNER@farm.io "+testPassword)
	require.Contains(t, reply, "Welcome, owner")
	value, found := env.get(session.LoggedInKey(owner.PhoneNumber))
	require.True(t, found)
	require.Equal(t, strconv.FormatInt(owner.ID, 10), value)
	require.NotNil(t, env.reloadUser(owner.ID).LastLogin)

	require.Equal(t, helpText, env.send(owner, "help"))
	require.Equal(t, ReplyInvalidInput, env.send(owner, "hello"))

	require.Equal(t, ReplyLoggedOut, env.send(owner, "logout"))
	_, found = env.get(session.LoggedInKey(owner.PhoneNumber))
	require.False(t, found)

	t.Run("inactive user", func(t *testing.T) {
		env.login(owner)
		require.NoError(t, env.tx.Model(&dbmodels.User{}).Where("id = ?", owner.ID).Update("is_active", false).Error)
		require.Equal(t, ReplyInvalidInput, env.send(owner, "hello"))
		_, found := env.get(session.LoggedInKey(owner.PhoneNumber))
		require.False(t, found)
	})
}

func (e *testEnv) reloadUser(userID int64) dbmodels.User {
	e.t.Helper()
	var user dbmodels.User
	require.NoError(e.t, e.tx.First(&user, userID).Error)
	return user
}

func TestUnauthenticated(t *testing.T) {
	t.Run("basic replies", func(t *testing.T) {
		env := setup(t)
		stranger := dbmodels.User{PhoneNumber: "+19999999999"}
		require.Equal(t, ReplyInvalidInput, env.send(stranger, "hello"))
		require.Equal(t, helpText, env.send(stranger, "help"))
		require.Equal(t, ReplyLoginRequired, env.send(stranger, "show tasks"))
		require.Equal(t, "", env.h.HandleInbound(env.ctx, InboundMessage{Body: "help"}))
	})

	t.Run("continue as known user", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		require.Contains(t, env.send(owner, "show tasks"), "Continue as owner")
		_, found := env.get(session.PendingConfirmationKey(owner.PhoneNumber))
		require.True(t, found)

		require.Equal(t, ReplyConfirmChoice, env.send(owner, "maybe"))
		require.Contains(t, env.send(owner, "1"), "Welcome, owner")
		_, found = env.get(session.LoggedInKey(owner.PhoneNumber))
		require.True(t, found)
		_, found = env.get(session.PendingConfirmationKey(owner.PhoneNumber))
		require.False(t, found)
	})

	t.Run("log in as another user", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.send(owner, "show tasks")
		require.Equal(t, ReplyLoginUsage, env.send(owner, "2"))
		_, found := env.get(session.LoginStateKey(owner.PhoneNumber))
		require.True(t, found)
		// вход уже начат, повторно не предлагаем
		require.Equal(t, ReplyLoginRequired, env.send(owner, "show tasks"))

		reply := env.send(owner, "login other@farm.io "+testPassword)
		require.Contains(t, reply, "Welcome, other")
		value, _ := env.get(session.LoggedInKey(owner.PhoneNumber))
		require.Equal(t, strconv.FormatInt(env.f.Other.ID, 10), value)
		_, found = env.get(session.LoginStateKey(owner.PhoneNumber))
		require.False(t, found)
	})

	t.Run("cancel", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.send(owner, "show tasks")
		require.Equal(t, ReplyLoggedOut, env.send(owner, "3"))
		for _, key := range session.PhoneKeys(owner.PhoneNumber) {
			_, found := env.get(key)
			require.False(t, found)
		}
	})

	t.Run("login during confirmation", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.send(owner, "show tasks")
		require.Contains(t, env.send(owner, "login owner@farm.io "+testPassword), "Welcome")
		_, found := env.get(session.PendingConfirmationKey(owner.PhoneNumber))
		require.False(t, found)
	})
}

func TestShowTasks(t *testing.T) {
	env := setup(t)
	owner := env.f.Owner
	env.login(owner)
	require.Equal(t, ReplyNoActiveTasks, env.send(owner, "show tasks"))

	active := env.f.CreateTask(t, env.tx, nil)
	env.f.CreateTask(t, env.tx, func(task *dbmodels.Task) {
		task.Title = "Old harvest"
		task.Status = models.TaskStatusCompleted
	})
	reply := env.send(owner, "show tasks")
	require.Contains(t, reply, "#"+strconv.FormatInt(active.ID, 10)+" Harvest pond A (due 2024-06-10)")
	require.NotContains(t, reply, "Old harvest")
}

func TestStartTask(t *testing.T) {
	t.Run("not active", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.login(owner)
		task := env.f.CreateTask(t, env.tx, func(task *dbmodels.Task) {
			task.Status = models.TaskStatusCompleted
		})
		require.Equal(t, ReplyTaskNotFound, env.send(owner, startCmd(task)))
		require.Equal(t, ReplyTaskNotFound, env.send(owner, "start task 9999"))
		require.Equal(t, ReplyTaskNotActive, env.send(owner, switchCmd(task)))
		_, found := env.get(session.ActiveTaskKey(owner.ID))
		require.False(t, found)
		_, found = env.get(session.TaskLockKey(owner.ID))
		require.False(t, found)
		require.Equal(t, ReplyTaskUsage, env.send(owner, "start task abc"))
	})

	t.Run("sets session", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.login(owner)
		task := env.f.CreateTask(t, env.tx, nil)

		reply := env.send(owner, startCmd(task))
		require.Contains(t, reply, "Enter the end date")
		value, found := env.get(session.ActiveTaskKey(owner.ID))
		require.True(t, found)
		require.Equal(t, strconv.FormatInt(task.ID, 10), value)
		value, _ = env.get(session.StepKey(owner.ID, task.ID))
		require.Equal(t, "end_date", value)
		require.True(t, env.server.TTL("task_active_lock:"+strconv.FormatInt(owner.ID, 10)) > 0)
		require.Equal(t, time.Duration(0), env.server.TTL("active_task:"+strconv.FormatInt(owner.ID, 10)))
	})

	t.Run("assistant allowed", func(t *testing.T) {
		env := setup(t)
		assistant := env.f.Assistant
		hash, err := authutils.HashPassword(testPassword)
		require.NoError(t, err)
		require.NoError(t, env.tx.Model(&dbmodels.User{}).Where("id = ?", assistant.ID).Update("password", hash).Error)
		env.login(assistant)
		task := env.f.CreateTask(t, env.tx, nil)
		require.Contains(t, env.send(assistant, startCmd(task)), "Enter the end date")
	})

	t.Run("other staff needs authority", func(t *testing.T) {
		env := setup(t)
		other := env.f.Other
		env.login(other)
		task := env.f.CreateTask(t, env.tx, nil)
		require.Contains(t, env.send(other, startCmd(task)), "Access denied")
		_, found := env.get(session.ActiveTaskKey(other.ID))
		require.False(t, found)

		// создатель компании проходит без уровня
		creator := env.f.Creator
		env.login(creator)
		require.Contains(t, env.send(creator, startCmd(task)), "Enter the end date")
	})

	t.Run("restart clears answers", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.login(owner)
		task := env.f.CreateTask(t, env.tx, nil)
		env.send(owner, startCmd(task))
		env.send(owner, "2024-06-01")
		// под блокировкой start task считается ответом на шаг
		require.Contains(t, env.send(owner, startCmd(task)), "Invalid number")
		env.server.FastForward(16 * time.Minute)
		require.Contains(t, env.send(owner, startCmd(task)), "Enter the end date")
		_, found := env.get(session.FieldKey(owner.ID, task.ID, "end_date"))
		require.False(t, found)
	})
}

func TestInvalidInputKeepsStep(t *testing.T) {
	env := setup(t)
	owner := env.f.Owner
	env.login(owner)
	task := env.f.CreateTask(t, env.tx, nil)
	env.send(owner, startCmd(task))

	reply := env.send(owner, "2024-13-40")
	require.True(t, strings.HasPrefix(reply, "Invalid date"), reply)
	value, _ := env.get(session.StepKey(owner.ID, task.ID))
	require.Equal(t, "end_date", value)
	_, found := env.get(session.FieldKey(owner.ID, task.ID, "end_date"))
	require.False(t, found)

	require.Contains(t, env.send(owner, "2024-02-30"), "Invalid date")
	require.Contains(t, env.send(owner, "2024-06-01"), "harvest weight")
	require.Contains(t, env.send(owner, "12kg"), "Invalid number")
	value, _ = env.get(session.StepKey(owner.ID, task.ID))
	require.Equal(t, "harvest_weight", value)
	// обязательное поле не пропускается
	require.Contains(t, env.send(owner, "skip"), "Value is required")
	value, _ = env.get(session.StepKey(owner.ID, task.ID))
	require.Equal(t, "harvest_weight", value)
}

func TestSwitchTask(t *testing.T) {
	env := setup(t)
	owner := env.f.Owner
	env.login(owner)
	first := env.f.CreateTask(t, env.tx, nil)
	second := env.f.CreateTask(t, env.tx, func(task *dbmodels.Task) {
		task.Title = "Harvest pond B"
	})

	env.send(owner, startCmd(first))
	require.Contains(t, env.send(owner, "2024-06-01"), "harvest weight")

	reply := env.send(owner, switchCmd(second))
	require.Contains(t, reply, "Harvest pond B")
	require.Contains(t, reply, "Enter the end date")

	reply = env.send(owner, switchCmd(first))
	require.Contains(t, reply, "Harvest pond A")
	require.Contains(t, reply, "harvest weight")
	value, _ := env.get(session.FieldKey(owner.ID, first.ID, "end_date"))
	require.Equal(t, "2024-06-01", value)
	value, _ = env.get(session.ActiveTaskKey(owner.ID))
	require.Equal(t, strconv.FormatInt(first.ID, 10), value)

	t.Run("unknown step starts over", func(t *testing.T) {
		require.NoError(t, env.session.Set(env.ctx, session.StepKey(owner.ID, second.ID), "gone", time.Hour))
		require.Contains(t, env.send(owner, switchCmd(second)), "Enter the end date")
		value, _ := env.get(session.StepKey(owner.ID, second.ID))
		require.Equal(t, "end_date", value)
	})
}

func TestLockAndHelp(t *testing.T) {
	env := setup(t)
	owner := env.f.Owner
	env.login(owner)
	task := env.f.CreateTask(t, env.tx, nil)
	env.send(owner, startCmd(task))

	reply := env.send(owner, "help")
	require.Contains(t, reply, "is in progress")
	require.Contains(t, reply, "Enter the end date")

	// пока задача заблокирована, команды считаются ответом
	require.Contains(t, env.send(owner, "show tasks"), "Invalid date")

	env.server.FastForward(16 * time.Minute)
	require.Contains(t, env.send(owner, "show tasks"), "Harvest pond A")
	require.Equal(t, helpText, env.send(owner, "help"))

	// без блокировки обычный ответ продолжает активную задачу и снова блокирует её
	require.Contains(t, env.send(owner, "2024-06-01"), "harvest weight")
	_, found := env.get(session.TaskLockKey(owner.ID))
	require.True(t, found)
}

func TestSubmit(t *testing.T) {
	t.Run("media skipped", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		require.NoError(t, env.tx.Model(&dbmodels.Branch{}).Where("id = ?", env.f.Branch.ID).Update("manager_id", env.f.Leader.ID).Error)
		env.mailer.On("SendEMail", []string{"leader@farm.io"}, "Task submitted", mock.Anything).Return(nil).Once()

		env.login(owner)
		task := env.f.CreateTask(t, env.tx, nil)
		env.send(owner, startCmd(task))
		env.send(owner, "2024-06-01")
		env.send(owner, "150")
		require.Contains(t, env.send(owner, "2024-06-02"), "Send a photo")
		reply := env.send(owner, "skip")
		require.Contains(t, reply, "submitted for approval")

		rec := env.reloadTask(task.ID)
		require.Equal(t, models.TaskStatusPending, rec.Status)
		require.NotNil(t, rec.CompletedByID)
		require.Equal(t, owner.ID, *rec.CompletedByID)
		require.NotNil(t, rec.CompletedDate)
		require.Equal(t, "[end_date=2024-06-01][harvest_weight=150][harvest_date=2024-06-02]", rec.CompleteDetails)

		var media []dbmodels.Media
		require.NoError(t, env.tx.Where("model_name = ? AND model_id = ?", "task", task.ID).Find(&media).Error)
		require.Len(t, media, 1)
		require.Equal(t, "", media[0].File)
		require.Equal(t, models.MediaStatusActive, media[0].Status)
		require.Equal(t, owner.ID, media[0].UploadedByID)

		// остаётся только сессия входа
		require.Equal(t, []string{session.LoggedInKey(owner.PhoneNumber)}, env.server.Keys())
		env.mailer.AssertExpectations(t)
		env.storage.AssertNotCalled(t, "UploadMedia", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("media uploaded", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.login(owner)
		task := env.f.CreateTask(t, env.tx, nil)
		env.gateway.On("FetchMedia", "https://api.example.com/media/1").
			Return(io.NopCloser(strings.NewReader("jpeg")), "image/jpeg", nil).Once()
		env.storage.On("UploadMedia", env.f.Company.ID, task.ID, int64(-1), "image/jpeg").
			Return("1/tasks/1/photo.jpg", nil).Once()

		env.send(owner, startCmd(task))
		env.send(owner, "2024-06-01")
		env.send(owner, "150")
		env.send(owner, "2024-06-02")
		require.Contains(t, env.sendMedia(owner, "https://api.example.com/media/1", "image/jpeg"), "submitted")

		var media dbmodels.Media
		require.NoError(t, env.tx.Where("model_id = ?", task.ID).First(&media).Error)
		require.Equal(t, "1/tasks/1/photo.jpg", media.File)
		require.Equal(t, string(models.AquacultureDomain), media.AppName)
		rec := env.reloadTask(task.ID)
		require.True(t, strings.HasSuffix(rec.CompleteDetails, "[media="+strconv.FormatInt(media.ID, 10)+"]"))
		env.gateway.AssertExpectations(t)
		env.storage.AssertExpectations(t)
	})

	t.Run("download failure keeps session", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.login(owner)
		task := env.f.CreateTask(t, env.tx, nil)
		env.gateway.On("FetchMedia", "https://api.example.com/media/2").
			Return(nil, "", apperrors.NewTransientGatewayError("fetch media", errors.New("timeout"))).Once()

		env.send(owner, startCmd(task))
		env.send(owner, "2024-06-01")
		env.send(owner, "150")
		env.send(owner, "2024-06-02")
		require.Equal(t, ReplyMediaDownload, env.sendMedia(owner, "https://api.example.com/media/2", "image/png"))

		require.Equal(t, models.TaskStatusActive, env.reloadTask(task.ID).Status)
		value, _ := env.get(session.StepKey(owner.ID, task.ID))
		require.Equal(t, "media", value)
		_, found := env.get(session.ActiveTaskKey(owner.ID))
		require.True(t, found)
		value, _ = env.get(session.FieldKey(owner.ID, task.ID, "end_date"))
		require.Equal(t, "2024-06-01", value)

		// повтор последнего ответа отправляет задачу
		require.Contains(t, env.send(owner, "skip"), "submitted")
		require.Equal(t, models.TaskStatusPending, env.reloadTask(task.ID).Status)
	})

	t.Run("task closed meanwhile", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.login(owner)
		task := env.f.CreateTask(t, env.tx, nil)
		env.send(owner, startCmd(task))
		env.send(owner, "2024-06-01")
		require.NoError(t, env.tx.Model(&dbmodels.Task{}).Where("id = ?", task.ID).Update("status", models.TaskStatusCancelled).Error)

		require.Equal(t, ReplyTaskNotActive, env.send(owner, "150"))
		_, found := env.get(session.ActiveTaskKey(owner.ID))
		require.False(t, found)
		_, found = env.get(session.FieldKey(owner.ID, task.ID, "end_date"))
		require.False(t, found)
	})

	t.Run("uploaded file removed when task closed during upload", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.login(owner)
		task := env.f.CreateTask(t, env.tx, nil)
		env.gateway.On("FetchMedia", "https://api.example.com/media/3").
			Return(io.NopCloser(strings.NewReader("jpeg")), "image/jpeg", nil).Once()
		env.storage.On("UploadMedia", env.f.Company.ID, task.ID, int64(-1), "image/jpeg").
			Run(func(mock.Arguments) {
				require.NoError(t, env.tx.Model(&dbmodels.Task{}).Where("id = ?", task.ID).Update("status", models.TaskStatusCancelled).Error)
			}).
			Return("1/tasks/1/late.jpg", nil).Once()
		env.storage.On("DeleteFile", "1/tasks/1/late.jpg").Return(nil).Once()

		env.send(owner, startCmd(task))
		env.send(owner, "2024-06-01")
		env.send(owner, "150")
		env.send(owner, "2024-06-02")
		require.Equal(t, ReplyTaskNotActive, env.sendMedia(owner, "https://api.example.com/media/3", "image/jpeg"))

		var count int64
		require.NoError(t, env.tx.Model(&dbmodels.Media{}).Where("model_id = ?", task.ID).Count(&count).Error)
		require.Zero(t, count)
		env.storage.AssertExpectations(t)
	})

	t.Run("earlier uploads removed when later download fails", func(t *testing.T) {
		env := setup(t)
		owner := env.f.Owner
		env.login(owner)
		task := env.f.CreateTask(t, env.tx, func(task *dbmodels.Task) {
			task.Description = &dbmodels.FormSchema{Fields: []dbmodels.FormField{
				{Name: "before", Label: "Before photo", Type: models.MediaField},
				{Name: "after", Label: "After photo", Type: models.MediaField},
			}}
		})
		env.gateway.On("FetchMedia", "https://api.example.com/media/4").
			Return(io.NopCloser(strings.NewReader("jpeg")), "image/jpeg", nil).Once()
		env.gateway.On("FetchMedia", "https://api.example.com/media/5").
			Return(nil, "", apperrors.NewTransientGatewayError("fetch media", errors.New("timeout"))).Once()
		env.storage.On("UploadMedia", env.f.Company.ID, task.ID, int64(-1), "image/jpeg").
			Return("1/tasks/1/before.jpg", nil).Once()
		env.storage.On("DeleteFile", "1/tasks/1/before.jpg").Return(nil).Once()

		require.Contains(t, env.send(owner, startCmd(task)), "Before photo")
		require.Contains(t, env.sendMedia(owner, "https://api.example.com/media/4", "image/jpeg"), "After photo")
		require.Equal(t, ReplyMediaDownload, env.sendMedia(owner, "https://api.example.com/media/5", "image/jpeg"))

		require.Equal(t, models.TaskStatusActive, env.reloadTask(task.ID).Status)
		env.gateway.AssertExpectations(t)
		env.storage.AssertExpectations(t)
	})
}

func TestDescribedTask(t *testing.T) {
	env := setup(t)
	owner := env.f.Owner
	require.NoError(t, env.tx.Create(&dbmodels.Pond{
		BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: env.f.Company.ID},
		BranchID:         env.f.Branch.ID,
		Name:             "Pond A",
		Status:           "active",
	}).Error)
	env.login(owner)
	task := env.f.CreateTask(t, env.tx, func(task *dbmodels.Task) {
		task.Description = &dbmodels.FormSchema{Fields: []dbmodels.FormField{
			{
				Name:     "pond",
				Label:    "Which pond",
				Type:     models.TextField,
				Required: true,
				ExistenceCheck: &dbmodels.ExistenceCheck{
					AppName:   "aquaculture",
					ModelName: "pond",
					Field:     "name",
				},
			},
			{Name: "feed", Label: "Feed type", Type: models.DropdownField, Required: true, Options: []string{"Pellets", "Flakes"}},
			{Name: "counts", Label: "Fish counted", Type: models.TextField, Required: true, Multiple: true},
			{Name: "note", Label: "Note", Type: models.TextField},
			{Name: "photo", Label: "Pond photo", Type: models.MediaField},
		}}
	})

	require.Contains(t, env.send(owner, startCmd(task)), "Which pond")
	reply := env.send(owner, "skip")
	require.Contains(t, reply, "Value is required")
	require.Contains(t, reply, "Which pond")
	require.Contains(t, env.send(owner, "Pond Z"), "No matching record for 'Pond Z'")
	require.Contains(t, env.send(owner, "Pond A"), "options: Pellets, Flakes")
	require.Contains(t, env.send(owner, "worms"), "Unknown option")
	require.Contains(t, env.send(owner, "pellets"), "Fish counted")
	require.Contains(t, env.send(owner, "SKIP"), "Value is required")
	require.Contains(t, env.send(owner, "done"), "At least one value is required")
	require.Contains(t, env.send(owner, "10"), "Saved")
	require.Contains(t, env.send(owner, "12"), "Saved")
	require.Contains(t, env.send(owner, "done"), "Note")
	require.Contains(t, env.send(owner, "skip"), "Send a photo for Pond photo")
	require.Contains(t, env.send(owner, "skip"), "submitted")

	rec := env.reloadTask(task.ID)
	require.Equal(t, "[pond=Pond A][feed=Pellets][counts=10][counts=12]", rec.CompleteDetails)
}

func TestRequiredStepRejectsSkip(t *testing.T) {
	required := step{name: "pond", label: "Which pond", kind: stepText, required: true}
	_, hint, ok := required.validate("skip", "", "")
	require.False(t, ok)
	require.Equal(t, "Value is required", hint)

	optional := step{name: "note", label: "Note", kind: stepText}
	value, _, ok := optional.validate(" Skip ", "", "")
	require.True(t, ok)
	require.Equal(t, skipToken, value)

	// вложение всегда можно пропустить
	photo := step{name: "photo", label: "Photo", kind: stepMedia, required: true}
	value, _, ok = photo.validate("skip", "", "")
	require.True(t, ok)
	require.Equal(t, skipToken, value)
}

func TestProcess(t *testing.T) {
	env := setup(t)
	stranger := dbmodels.User{PhoneNumber: "+19999999999"}
	env.gateway.On("Send", from(stranger), helpText).Return(nil).Once()
	require.NoError(t, env.h.Process(env.ctx, InboundMessage{From: from(stranger), Body: "help"}))

	failure := apperrors.NewTransientGatewayError("send", errors.New("unavailable"))
	env.gateway.On("Send", from(stranger), ReplyInvalidInput).Return(failure).Once()
	err := env.h.Process(env.ctx, InboundMessage{From: from(stranger), Body: "hi"})
	require.True(t, apperrors.IsTransient(err))
	env.gateway.AssertExpectations(t)
}
