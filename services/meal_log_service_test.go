package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStorage struct {
	keys []string
	err  error
}

func (f *fakeStorage) Upload(_ context.Context, key string, _ []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type fakeLabels struct {
	labels []string
	err    error
}

func (f *fakeLabels) DetectLabels(context.Context, []byte) ([]string, error) {
	return f.labels, f.err
}

func newMealLogFixture(t *testing.T, storage *fakeStorage, labels LabelDetector, logs ...*models.MealLog) (*MealLogService, *complianceFixture) {
	t.Helper()
	cf := newComplianceFixture(t, logs...)
	photos := NewPhotoService(storage, labels, zap.NewNop())
	svc := NewMealLogService(cf.logs, photos, cf.svc, zap.NewNop())
	svc.now = func() time.Time { return scheduled.Add(13*time.Hour + 5*time.Minute) }
	return svc, cf
}

const jpegURI = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="

func TestUpdateStatus(t *testing.T) {
	pending := lunchLog(1)
	pending.Status = models.StatusPending
	pending.LoggedAt = nil
	pending.MealPhotoURL = nil
	svc, cf := newMealLogFixture(t, &fakeStorage{}, &fakeLabels{}, pending)
	ctx := context.Background()

	res, err := svc.UpdateStatus(ctx, 1, 1, StatusUpdate{Status: models.StatusEaten})
	require.NoError(t, err)
	assert.Equal(t, 85, *res.Score, "eaten without the required photo")
	assert.Equal(t, []string{IssueNoPhoto}, res.Issues)

	stored := cf.logs.logs[1]
	assert.Equal(t, models.StatusEaten, stored.Status)
	require.NotNil(t, stored.LoggedAt)
	assert.Equal(t, uint(3), stored.Version, "one write for the status, one for the score")

	res, err = svc.UpdateStatus(ctx, 1, 1, StatusUpdate{Status: models.StatusSubstituted, SubstituteCaloriesEst: ptr(600.0)})
	require.NoError(t, err)
	assert.Equal(t, 85, *res.Score)

	_, err = svc.UpdateStatus(ctx, 1, 1, StatusUpdate{Status: "devoured"})
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "status", FieldOf(err))
}

func TestAttachPhoto(t *testing.T) {
	l := lunchLog(1)
	l.MealPhotoURL = nil
	storage := &fakeStorage{}
	svc, cf := newMealLogFixture(t, storage, &fakeLabels{labels: []string{"Food", "Rice"}}, l)

	res, err := svc.AttachPhoto(context.Background(), 1, 1, jpegURI)
	require.NoError(t, err)

	assert.Equal(t, 100, *res.Score)
	require.Len(t, storage.keys, 1)
	assert.Regexp(t, `^meal-photos/1/1-\d+\.jpg$`, storage.keys[0])
	stored := cf.logs.logs[1]
	require.NotNil(t, stored.MealPhotoURL)
	assert.Equal(t, []string{"Food", "Rice"}, []string(stored.PhotoLabels))
}

func TestAttachPhoto_LabelFailureIsNotFatal(t *testing.T) {
	l := lunchLog(1)
	l.MealPhotoURL = nil
	svc, cf := newMealLogFixture(t, &fakeStorage{}, &fakeLabels{err: errors.New("throttled")}, l)

	_, err := svc.AttachPhoto(context.Background(), 1, 1, jpegURI)
	require.NoError(t, err)
	assert.Empty(t, cf.logs.logs[1].PhotoLabels)
}

func TestAttachPhoto_Errors(t *testing.T) {
	t.Run("BadImage", func(t *testing.T) {
		svc, _ := newMealLogFixture(t, &fakeStorage{}, nil, lunchLog(1))
		_, err := svc.AttachPhoto(context.Background(), 1, 1, "not-a-data-uri")
		require.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, "image", FieldOf(err))
	})

	t.Run("NotAnImage", func(t *testing.T) {
		svc, _ := newMealLogFixture(t, &fakeStorage{}, nil, lunchLog(1))
		uri := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi"))
		_, err := svc.AttachPhoto(context.Background(), 1, 1, uri)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("UploadFails", func(t *testing.T) {
		svc, _ := newMealLogFixture(t, &fakeStorage{err: errors.New("503")}, nil, lunchLog(1))
		_, err := svc.AttachPhoto(context.Background(), 1, 1, jpegURI)
		assert.ErrorIs(t, err, ErrDependency)
	})

	t.Run("UnknownMealLog", func(t *testing.T) {
		storage := &fakeStorage{}
		svc, _ := newMealLogFixture(t, storage, nil, lunchLog(1))
		_, err := svc.AttachPhoto(context.Background(), 1, 2, jpegURI)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Empty(t, storage.keys, "nothing uploaded")
	})
}

func TestReview(t *testing.T) {
	svc, cf := newMealLogFixture(t, &fakeStorage{}, nil, lunchLog(1))
	ctx := context.Background()

	res, err := svc.Review(ctx, 1, 1, ReviewInput{OverrideScore: ptr(30), Note: "portion was double"})
	require.NoError(t, err)
	assert.Equal(t, 30, *res.Score)
	assert.Equal(t, models.SeverityRed, *res.Color)
	assert.Contains(t, res.Issues, IssueDietitianOverride)
	assert.Equal(t, "portion was double", cf.logs.logs[1].DietitianNote)
	assert.NotNil(t, cf.logs.logs[1].ReviewedAt)

	res, err = svc.Review(ctx, 1, 1, ReviewInput{Note: "ok after all"})
	require.NoError(t, err)
	assert.Equal(t, 100, *res.Score, "clearing the override restores the computed score")

	_, err = svc.Review(ctx, 1, 1, ReviewInput{OverrideScore: ptr(101)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
