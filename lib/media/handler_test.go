package mediahandler

import (
	"context"
	"io"
	"strings"
	"testing"

	authorityhandler "farm-ops-backend/lib/authority"
	apperrors "farm-ops-backend/lib/utils/app-errors"
	"farm-ops-backend/lib/utils/testutil"
	"farm-ops-backend/models"
	dbmodels "farm-ops-backend/models/db"

	"github.com/stretchr/testify/require"
)

type storageStub struct {
	keys []string
}

func (s *storageStub) UploadMedia(ctx context.Context, companyID, taskID int64, reader io.Reader, size int64, contentType string) (string, error) {
	return "", nil
}

func (s *storageStub) DeleteFile(ctx context.Context, key string) error {
	return nil
}

func (s *storageStub) GetFile(ctx context.Context, key string) (io.ReadCloser, error) {
	s.keys = append(s.keys, key)
	return io.NopCloser(strings.NewReader("jpeg")), nil
}

func TestGetFile(t *testing.T) {
	ctx := context.Background()
	tx := testutil.SetupTestDB(t)
	f := testutil.NewFixture(t, tx)
	storage := &storageStub{}
	h := NewHandlerWithTx(tx, authorityhandler.NewHandlerWithTx(tx), storage)

	media := dbmodels.Media{
		BaseCompanyModel: dbmodels.BaseCompanyModel{CompanyID: f.Company.ID},
		BranchID:         f.Branch.ID,
		AppName:          string(models.AquacultureDomain),
		ModelName:        models.TaskModel,
		File:             "tasks/photo.jpg",
		ContentType:      "image/jpeg",
		Status:           models.MediaStatusActive,
		UploadedByID:     f.Owner.ID,
	}
	require.NoError(t, tx.Create(&media).Error)

	t.Run("uploader sees own file", func(t *testing.T) {
		body, rec, err := h.GetFile(ctx, f.Owner.ID, f.Company.ID, media.ID)
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		require.Equal(t, "jpeg", string(data))
		require.Equal(t, "image/jpeg", rec.ContentType)
	})

	t.Run("company creator", func(t *testing.T) {
		body, _, err := h.GetFile(ctx, f.Creator.ID, f.Company.ID, media.ID)
		require.NoError(t, err)
		require.NoError(t, body.Close())
	})

	t.Run("not a staff member", func(t *testing.T) {
		_, _, err := h.GetFile(ctx, f.Outsider.ID, f.Company.ID, media.ID)
		require.True(t, apperrors.IsPermissionDenied(err))
	})

	t.Run("other company", func(t *testing.T) {
		_, _, err := h.GetFile(ctx, f.Owner.ID, f.Company.ID+1, media.ID)
		require.True(t, apperrors.IsNotFound(err))
	})

	t.Run("skipped media has no file", func(t *testing.T) {
		empty := media
		empty.ID = 0
		empty.File = ""
		require.NoError(t, tx.Create(&empty).Error)
		_, _, err := h.GetFile(ctx, f.Owner.ID, f.Company.ID, empty.ID)
		require.True(t, apperrors.IsNotFound(err))
	})

	require.Equal(t, []string{"tasks/photo.jpg", "tasks/photo.jpg"}, storage.keys)
}
