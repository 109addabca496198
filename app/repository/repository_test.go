package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelProof/app/models"
	"github.com/ManuelReschke/PixelProof/internal/pkg/database"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	return NewRepositories(db)
}

func seedEvent(t *testing.T, repos *Repositories, code string) *models.Event {
	t.Helper()
	event := &models.Event{Name: "Summer Wedding", Code: code}
	require.NoError(t, repos.Event.Create(event))
	return event
}

func TestEventRepository_CreateAndLookup(t *testing.T) {
	repos := newTestRepos(t)
	event := seedEvent(t, repos, "WED2024")
	assert.NotEmpty(t, event.UUID)

	found, err := repos.Event.GetByCode("WED2024")
	require.NoError(t, err)
	assert.Equal(t, event.ID, found.ID)

	_, err = repos.Event.GetByCode("nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	exists, err := repos.Event.CodeExists("WED2024")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEventRepository_RejectsInvalidCode(t *testing.T) {
	repos := newTestRepos(t)
	err := repos.Event.Create(&models.Event{Name: "Party", Code: "bad code!"})
	assert.Error(t, err)
	err = repos.Event.Create(&models.Event{Name: "Party", Code: "1AbC-xyz_9"})
	assert.NoError(t, err)
}

func TestEventRepository_ListWithStats(t *testing.T) {
	repos := newTestRepos(t)
	event := seedEvent(t, repos, "LIST01")
	for _, name := range []string{"a.jpg", "b.jpg"} {
		require.NoError(t, repos.Photo.Create(&models.Photo{EventID: event.ID, Name: name, ObjectKey: name, URL: "https://cdn/" + name}))
	}
	require.NoError(t, repos.Submission.Create(&models.Submission{EventID: event.ID, ClientName: "Ana", SelectedPhotoIDs: models.StringList{"x"}}))

	rows, err := repos.Event.List(0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].PhotoCount)
	assert.Equal(t, int64(1), rows[0].SubmissionCount)
}

func TestEventRepository_IncrementViewCount(t *testing.T) {
	repos := newTestRepos(t)
	event := seedEvent(t, repos, "VIEW01")
	require.NoError(t, repos.Event.IncrementViewCount(event.ID, 3))
	found, err := repos.Event.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.ViewCount)
	assert.Error(t, repos.Event.IncrementViewCount(event.ID, 0))
}

func TestPhotoRepository_Lifecycle(t *testing.T) {
	repos := newTestRepos(t)
	event := seedEvent(t, repos, "PHOTO1")
	other := seedEvent(t, repos, "PHOTO2")

	var ids []uint
	for _, name := range []string{"one.jpg", "two.jpg", "three.jpg"} {
		p := &models.Photo{EventID: event.ID, Name: name, ObjectKey: "k/" + name, URL: "u/" + name, FileSize: 100}
		require.NoError(t, repos.Photo.Create(p))
		assert.Equal(t, models.PHOTO_STATUS_PENDING, p.Status)
		ids = append(ids, p.ID)
	}
	foreign := &models.Photo{EventID: other.ID, Name: "x.jpg", ObjectKey: "k/x", URL: "u/x"}
	require.NoError(t, repos.Photo.Create(foreign))

	photos, err := repos.Photo.GetByEventID(event.ID, 2)
	require.NoError(t, err)
	assert.Len(t, photos, 2)

	require.NoError(t, repos.Photo.Rename(ids[0], "renamed.jpg"))
	renamed, err := repos.Photo.GetByID(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "renamed.jpg", renamed.Name)

	// ids of another event are ignored
	deleted, err := repos.Photo.DeleteByIDs(event.ID, []uint{ids[1], foreign.ID})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "k/two.jpg", deleted[0].ObjectKey)

	total, err := repos.Photo.TotalSize()
	require.NoError(t, err)
	assert.Equal(t, int64(200), total)

	cleared, err := repos.Photo.DeleteByEventID(event.ID)
	require.NoError(t, err)
	assert.Len(t, cleared, 2)
	count, err := repos.Photo.CountByEventID(event.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repos.Photo.Delete(ids[0])
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPhotoTimestampPrefersCaptureTime(t *testing.T) {
	uploaded := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	taken := time.Date(2024, 4, 30, 18, 30, 0, 0, time.UTC)

	p := models.Photo{CreatedAt: uploaded}
	assert.Equal(t, uploaded.UnixMilli(), p.ToGallery().Timestamp)

	p.TakenAt = &taken
	assert.Equal(t, taken.UnixMilli(), p.ToGallery().Timestamp)
}

func TestSubmissionRepository_ReferenceAndList(t *testing.T) {
	repos := newTestRepos(t)
	event := seedEvent(t, repos, "SUBM01")

	sub := &models.Submission{EventID: event.ID, ClientName: "Budi", Notes: "warm tones", SelectedPhotoIDs: models.StringList{"a", "b"}}
	require.NoError(t, repos.Submission.Create(sub))
	assert.NotEmpty(t, sub.Reference)
	assert.Equal(t, 2, sub.PhotoCount)

	list, err := repos.Submission.GetByEventID(event.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StringList{"a", "b"}, list[0].SelectedPhotoIDs)

	err = repos.Submission.Create(&models.Submission{EventID: event.ID, ClientName: "Budi"})
	assert.Error(t, err, "empty selection is rejected")
}

func TestSettingRepository_SaveAndReload(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repo := NewSettingRepository(db)

	settings := models.DefaultAppSettings()
	settings.WhatsAppNumber = "6281234567"
	settings.JobQueueWorkerCount = 4
	require.NoError(t, repo.Save(settings))

	require.NoError(t, models.LoadSettings(db))
	loaded, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, "6281234567", loaded.GetWhatsAppNumber())
	assert.Equal(t, 4, loaded.GetJobQueueWorkerCount())

	value, err := repo.GetValue("missing")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, repo.SetValue("custom", "1"))
	value, err = repo.GetValue("custom")
	require.NoError(t, err)
	assert.Equal(t, "1", value)
}
