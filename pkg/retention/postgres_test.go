package retention_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/retainer/internal/testutil"
	"mercator-hq/retainer/pkg/blobstore"
	"mercator-hq/retainer/pkg/retention"
	"mercator-hq/retainer/pkg/retention/archiver"
	"mercator-hq/retainer/pkg/retention/janitor"
	"mercator-hq/retainer/pkg/retention/restorer"
)

func TestPostgres_ArchiveAndRestore(t *testing.T) {
	store := testutil.NewPostgresStore(t)
	f := testutil.NewFixture(t, store)
	ctx := context.Background()
	now := time.Now()

	shortRealm := f.Realm("short", retention.RetentionDays(30))
	foreverRealm := f.Realm("forever", nil)
	alice := f.User(shortRealm)
	bob := f.User(foreverRealm)

	shared := f.Message(alice, testutil.DaysAgo(now, 40), alice, bob)
	expired := f.Message(alice, testutil.DaysAgo(now, 40), alice)
	f.Message(alice, testutil.DaysAgo(now, 1), alice)
	f.Attachment(alice, "uploads/1/photo.png", expired)

	opts := &retention.Options{Now: func() time.Time { return now }}
	result, err := archiver.New(store, opts).ArchiveMessages(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Rows(archiver.StepArchiveMessages))
	assert.Equal(t, int64(2), result.Rows(archiver.StepArchiveUserMessages))
	assert.Equal(t, int64(1), result.Rows(archiver.StepArchiveAttachments))
	assert.Equal(t, int64(1), result.Rows(archiver.StepArchiveAttachmentMessages))
	assert.Equal(t, int64(2), result.Rows(archiver.StepDeleteUserMessages))
	assert.Equal(t, int64(1), result.Rows(archiver.StepDeleteMessages), "shared message keeps its live row")
	assert.Equal(t, int64(1), result.Rows(archiver.StepDeleteAttachments))

	assert.Equal(t, int64(2), f.Count("messages"))
	assert.Contains(t, f.IDs("messages"), shared)
	assert.Equal(t, int64(0), f.Count("attachments"))

	result, err = restorer.New(store, opts).RestoreRealmArchivedData(ctx, shortRealm)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Rows(restorer.StepRestoreMessages), "live shared message is not copied twice")
	assert.Equal(t, int64(2), result.Rows(restorer.StepRestoreUserMessages))
	assert.Equal(t, int64(1), result.Rows(restorer.StepRestoreAttachments))
	assert.Equal(t, int64(1), result.Rows(restorer.StepRestoreAttachmentMessages))

	assert.Equal(t, int64(3), f.Count("messages"))
	assert.Equal(t, int64(4), f.Count("user_messages"))
	assert.Equal(t, int64(1), f.Count("attachments"))

	realm, err := store.GetRealm(ctx, shortRealm)
	require.NoError(t, err)
	assert.Nil(t, realm.MessageRetentionDays)

	_, err = restorer.New(store, opts).RestoreRealmArchivedData(ctx, 9999)
	assert.ErrorIs(t, err, retention.ErrRealmNotFound)
}

func TestPostgres_JanitorDeletesExpiredArchive(t *testing.T) {
	store := testutil.NewPostgresStore(t)
	f := testutil.NewFixture(t, store)
	ctx := context.Background()
	now := time.Now()

	realm := f.Realm("short", retention.RetentionDays(30))
	alice := f.User(realm)
	msg := f.Message(alice, testutil.DaysAgo(now, 40), alice)
	f.Attachment(alice, "uploads/1/report.pdf", msg)

	_, err := archiver.New(store, &retention.Options{Now: func() time.Time { return now }}).ArchiveMessages(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), f.Count("archive_attachments"))

	var mu sync.Mutex
	var deleted []string
	blobs := blobstore.DeleterFunc(func(_ context.Context, pathID string) error {
		mu.Lock()
		defer mu.Unlock()
		deleted = append(deleted, pathID)
		return nil
	})

	later := now.Add(31 * retention.Day)
	jan, err := janitor.New(store, blobs, janitor.DefaultConfig(), &retention.Options{
		Now: func() time.Time { return later },
	})
	require.NoError(t, err)

	result, err := jan.DeleteExpiredArchivedData(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Rows(janitor.StepDeleteArchiveUserMessages))
	assert.Equal(t, int64(1), result.Rows(janitor.StepDeleteArchiveMessages))
	assert.Equal(t, int64(1), result.Rows(janitor.StepDeleteArchiveAttachments))
	assert.Equal(t, []string{"uploads/1/report.pdf"}, deleted)

	for _, table := range []string{"archive_messages", "archive_user_messages", "archive_attachments", "archive_attachment_messages"} {
		assert.Equal(t, int64(0), f.Count(table), table)
	}
}

func TestPostgres_ArchiveCountsAgeFromStartOfDay(t *testing.T) {
	store := testutil.NewPostgresStore(t)
	f := testutil.NewFixture(t, store)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	realm := f.Realm("boundary", retention.RetentionDays(30))
	alice := f.User(realm)
	kept := f.Message(alice, now.Add(-30*retention.Day-2*time.Hour), alice)
	expired := f.Message(alice, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), alice)

	result, err := archiver.New(store, &retention.Options{Now: func() time.Time { return now }}).ArchiveMessages(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Rows(archiver.StepArchiveMessages))
	assert.Equal(t, []int64{kept}, f.IDs("messages"))
	assert.Equal(t, []int64{expired}, f.IDs("archive_messages"))
}
