package janitor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mercator-hq/retainer/internal/testutil"
	"mercator-hq/retainer/pkg/retention"
	"mercator-hq/retainer/pkg/retention/archiver"
	"mercator-hq/retainer/pkg/retention/janitor"
	"mercator-hq/retainer/pkg/retention/storage"
)

// fakeBlobs records DeleteBlob calls and fails for path ids in failing.
type fakeBlobs struct {
	mu      sync.Mutex
	calls   []string
	failing map[string]bool
}

func (b *fakeBlobs) DeleteBlob(_ context.Context, pathID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, pathID)
	if b.failing[pathID] {
		return errors.New("blob backend unavailable")
	}
	return nil
}

func (b *fakeBlobs) callsFor(pathID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == pathID {
			n++
		}
	}
	return n
}

// countingRecorder counts blob deletion results.
type countingRecorder struct {
	retention.NopRecorder
	mu    sync.Mutex
	blobs map[string]int
}

func (r *countingRecorder) RecordBlobDeletion(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blobs == nil {
		r.blobs = make(map[string]int)
	}
	r.blobs[result]++
}

var archiveTables = []storage.Table{
	storage.ArchiveMessages,
	storage.ArchiveUserMessages,
	storage.ArchiveAttachments,
	storage.ArchiveAttachmentMessages,
}

type world struct {
	f        *testutil.Fixture
	blobs    *fakeBlobs
	recorder *countingRecorder
	janitor  *janitor.Janitor
	now      time.Time
}

func newWorld(t *testing.T) *world {
	t.Helper()
	store := testutil.NewSQLiteStore(t)
	now := time.Now()
	w := &world{
		f:        testutil.NewFixture(t, store),
		blobs:    &fakeBlobs{failing: map[string]bool{}},
		recorder: &countingRecorder{},
		now:      now,
	}

	j, err := janitor.New(store, w.blobs, janitor.Config{ArchivedDataRetentionDays: 30}, &retention.Options{
		Now:      func() time.Time { return now },
		Recorder: w.recorder,
	})
	if err != nil {
		t.Fatalf("janitor.New() failed: %v", err)
	}
	w.janitor = j
	return w
}

func (w *world) archive(t *testing.T) {
	t.Helper()
	a := archiver.New(w.f.Store, &retention.Options{Now: func() time.Time { return w.now }})
	if _, err := a.ArchiveMessages(context.Background()); err != nil {
		t.Fatalf("ArchiveMessages() failed: %v", err)
	}
}

// age sets archived_date on every row of the given archive tables.
func (w *world) age(t *testing.T, days int, tables ...storage.Table) {
	t.Helper()
	for _, table := range tables {
		if err := w.f.Store.SetArchivedDate(context.Background(), table, testutil.DaysAgo(w.now, days)); err != nil {
			t.Fatalf("SetArchivedDate(%s) failed: %v", table.Name, err)
		}
	}
}

func (w *world) sweep(t *testing.T) *retention.Result {
	t.Helper()
	result, err := w.janitor.DeleteExpiredArchivedData(context.Background())
	if err != nil {
		t.Fatalf("DeleteExpiredArchivedData() failed: %v", err)
	}
	return result
}

func TestNew_InvalidConfig(t *testing.T) {
	store := testutil.NewSQLiteStore(t)

	if _, err := janitor.New(store, &fakeBlobs{}, janitor.Config{}, nil); err == nil {
		t.Error("Expected error for zero retention days")
	}
	if _, err := janitor.New(store, nil, janitor.DefaultConfig(), nil); err == nil {
		t.Error("Expected error for nil blob deleter")
	}
}

func TestDeleteExpiredArchivedData(t *testing.T) {
	w := newWorld(t)
	f := w.f

	realm := f.Realm("zulip", retention.RetentionDays(30))
	u1, u2 := f.User(realm), f.User(realm)
	m1 := f.Message(u1, testutil.DaysAgo(w.now, 60), u1, u2)
	m2 := f.Message(u1, testutil.DaysAgo(w.now, 60), u1)
	f.Attachment(u1, "1/aa/one.png", m1)
	f.Attachment(u1, "1/bb/two.png", m1, m2)

	w.archive(t)
	w.age(t, 31, archiveTables...)

	result := w.sweep(t)

	for _, table := range archiveTables {
		if got := f.Count(table.Name); got != 0 {
			t.Errorf("Expected empty %s, got %d rows", table.Name, got)
		}
	}
	for _, path := range []string{"1/aa/one.png", "1/bb/two.png"} {
		if got := w.blobs.callsFor(path); got != 1 {
			t.Errorf("Expected 1 DeleteBlob(%q) call, got %d", path, got)
		}
	}

	if got := result.Rows(janitor.StepDeleteArchiveUserMessages); got != 3 {
		t.Errorf("Expected 3 archive user messages deleted, got %d", got)
	}
	if got := result.Rows(janitor.StepDeleteArchiveMessages); got != 2 {
		t.Errorf("Expected 2 archive messages deleted, got %d", got)
	}
	if got := result.Rows(janitor.StepDeleteArchiveAttachments); got != 2 {
		t.Errorf("Expected 2 archive attachments deleted, got %d", got)
	}
	if w.recorder.blobs[janitor.BlobDeleted] != 2 {
		t.Errorf("Expected 2 recorded blob deletions, got %v", w.recorder.blobs)
	}
}

func TestDeleteExpiredArchivedData_WithinWindow(t *testing.T) {
	w := newWorld(t)
	f := w.f

	realm := f.Realm("zulip", retention.RetentionDays(30))
	u := f.User(realm)
	m := f.Message(u, testutil.DaysAgo(w.now, 60), u)
	f.Attachment(u, "1/aa/keep.png", m)

	w.archive(t)
	w.age(t, 29, archiveTables...)

	result := w.sweep(t)

	for _, table := range archiveTables {
		if got := f.Count(table.Name); got != 1 {
			t.Errorf("Expected 1 row kept in %s, got %d", table.Name, got)
		}
	}
	if len(w.blobs.calls) != 0 {
		t.Errorf("Expected no blob deletions, got %v", w.blobs.calls)
	}
	if result.Total() != 0 {
		t.Errorf("Expected 0 rows deleted, got %d", result.Total())
	}
}

// TestDeleteExpiredArchivedData_MessageStillReferenced keeps an old archive
// message whose archive user message is still inside the window.
func TestDeleteExpiredArchivedData_MessageStillReferenced(t *testing.T) {
	w := newWorld(t)
	f := w.f

	realm := f.Realm("zulip", retention.RetentionDays(30))
	u := f.User(realm)
	f.Message(u, testutil.DaysAgo(w.now, 60), u)

	w.archive(t)
	w.age(t, 40, storage.ArchiveMessages)

	w.sweep(t)

	if got := f.Count(storage.ArchiveMessages.Name); got != 1 {
		t.Errorf("Expected archive message kept, got %d", got)
	}
	if got := f.Count(storage.ArchiveUserMessages.Name); got != 1 {
		t.Errorf("Expected archive user message kept, got %d", got)
	}
}

func TestDeleteExpiredArchivedData_BlobFailureKeepsRow(t *testing.T) {
	w := newWorld(t)
	f := w.f

	realm := f.Realm("zulip", retention.RetentionDays(30))
	u := f.User(realm)
	m := f.Message(u, testutil.DaysAgo(w.now, 60), u)
	att := f.Attachment(u, "9/zz/broken.bin", m)

	w.archive(t)
	w.age(t, 31, archiveTables...)
	w.blobs.failing["9/zz/broken.bin"] = true

	result, err := w.janitor.DeleteExpiredArchivedData(context.Background())
	if err == nil {
		t.Fatal("Expected blob deletion error")
	}

	var blobErr *retention.BlobError
	if !errors.As(err, &blobErr) || blobErr.PathID != "9/zz/broken.bin" {
		t.Errorf("Expected BlobError for 9/zz/broken.bin, got %v", err)
	}
	var stepErr *retention.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != janitor.StepDeleteArchiveAttachments {
		t.Errorf("Expected failure at %s, got %v", janitor.StepDeleteArchiveAttachments, err)
	}
	if len(result.Steps) != 2 {
		t.Errorf("Expected the two earlier steps committed, got %v", result.Steps)
	}

	if ids := f.IDs(storage.ArchiveAttachments.Name); len(ids) != 1 || ids[0] != att {
		t.Errorf("Expected archive attachment %d kept, got %v", att, ids)
	}
	if w.recorder.blobs[janitor.BlobFailed] != 1 {
		t.Errorf("Expected 1 recorded blob failure, got %v", w.recorder.blobs)
	}

	// The next run retries and succeeds.
	w.blobs.failing = map[string]bool{}
	w.sweep(t)

	if got := f.Count(storage.ArchiveAttachments.Name); got != 0 {
		t.Errorf("Expected archive attachment deleted on retry, got %d", got)
	}
	if got := w.blobs.callsFor("9/zz/broken.bin"); got != 2 {
		t.Errorf("Expected 2 DeleteBlob calls across both runs, got %d", got)
	}
}

// TestDeleteExpiredArchivedData_LiveAttachment keeps the archive row and
// blob of an attachment that is still live through a fresh message.
func TestDeleteExpiredArchivedData_LiveAttachment(t *testing.T) {
	w := newWorld(t)
	f := w.f

	realm := f.Realm("zulip", retention.RetentionDays(30))
	u := f.User(realm)
	old := f.Message(u, testutil.DaysAgo(w.now, 60), u)
	fresh := f.Message(u, testutil.DaysAgo(w.now, 1), u)
	f.Attachment(u, "3/cc/shared.pdf", old, fresh)

	w.archive(t)
	w.age(t, 31, archiveTables...)

	w.sweep(t)

	if got := f.Count(storage.ArchiveMessages.Name); got != 0 {
		t.Errorf("Expected archive message deleted, got %d", got)
	}
	if got := f.Count(storage.ArchiveAttachmentMessages.Name); got != 0 {
		t.Errorf("Expected archive link rows deleted, got %d", got)
	}
	if got := f.Count(storage.ArchiveAttachments.Name); got != 1 {
		t.Errorf("Expected archive attachment kept while live, got %d", got)
	}
	if len(w.blobs.calls) != 0 {
		t.Errorf("Expected no blob deletions, got %v", w.blobs.calls)
	}
}

func TestDeleteArchivedDataByRealm(t *testing.T) {
	w := newWorld(t)
	f := w.f
	ctx := context.Background()

	realmA := f.Realm("a", retention.RetentionDays(30))
	realmB := f.Realm("b", retention.RetentionDays(30))
	ua, ub := f.User(realmA), f.User(realmB)

	ma := f.Message(ua, testutil.DaysAgo(w.now, 45), ua)
	f.Message(ua, testutil.DaysAgo(w.now, 45), ua)
	mb := f.Message(ub, testutil.DaysAgo(w.now, 45), ub)
	f.Attachment(ua, "a/file.txt", ma)
	f.Attachment(ub, "b/file.txt", mb)

	w.archive(t)

	result, err := w.janitor.DeleteArchivedDataByRealm(ctx, realmA)
	if err != nil {
		t.Fatalf("DeleteArchivedDataByRealm() failed: %v", err)
	}

	if got, _ := f.Store.CountRealmMessages(ctx, storage.ArchiveMessages, realmA); got != 0 {
		t.Errorf("Expected realm a archive messages deleted, got %d", got)
	}
	if got, _ := f.Store.CountRealmMessages(ctx, storage.ArchiveMessages, realmB); got != 1 {
		t.Errorf("Expected realm b archive messages kept, got %d", got)
	}
	if got := f.Count(storage.ArchiveUserMessages.Name); got != 1 {
		t.Errorf("Expected only realm b archive user message left, got %d", got)
	}
	if got := f.Count(storage.ArchiveAttachments.Name); got != 1 {
		t.Errorf("Expected only realm b archive attachment left, got %d", got)
	}
	if w.blobs.callsFor("a/file.txt") != 1 || w.blobs.callsFor("b/file.txt") != 0 {
		t.Errorf("Unexpected blob calls: %v", w.blobs.calls)
	}

	if got := result.Rows(janitor.StepDeleteRealmArchiveMessages); got != 2 {
		t.Errorf("Expected 2 archive messages deleted, got %d", got)
	}
}

// TestDeleteArchivedDataByRealm_AfterRestore purges the archive of a
// restored realm without touching the restored blob.
func TestDeleteArchivedDataByRealm_AfterRestore(t *testing.T) {
	w := newWorld(t)
	f := w.f
	ctx := context.Background()

	realm := f.Realm("zulip", retention.RetentionDays(30))
	u := f.User(realm)
	m := f.Message(u, testutil.DaysAgo(w.now, 45), u)
	f.Attachment(u, "r/kept.png", m)

	w.archive(t)

	// Restore by copying the attachment back to live by hand.
	if _, err := f.Store.ExecTx(ctx, storage.Statement{
		Name:  "restore_attachment",
		Query: `INSERT INTO attachments SELECT id, file_name, path_id, owner_id, realm_id, is_realm_public, create_time FROM archive_attachments`,
	}); err != nil {
		t.Fatalf("ExecTx() failed: %v", err)
	}

	if _, err := w.janitor.DeleteArchivedDataByRealm(ctx, realm); err != nil {
		t.Fatalf("DeleteArchivedDataByRealm() failed: %v", err)
	}

	if got := f.Count(storage.ArchiveAttachments.Name); got != 0 {
		t.Errorf("Expected archive attachment deleted, got %d", got)
	}
	if len(w.blobs.calls) != 0 {
		t.Errorf("Expected the live attachment's blob kept, got calls %v", w.blobs.calls)
	}
}

func TestDeleteArchivedDataByRealm_UnknownRealm(t *testing.T) {
	w := newWorld(t)

	_, err := w.janitor.DeleteArchivedDataByRealm(context.Background(), 404)
	if !errors.Is(err, retention.ErrRealmNotFound) {
		t.Errorf("Expected ErrRealmNotFound, got %v", err)
	}
}

func TestCutoff(t *testing.T) {
	w := newWorld(t)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	want := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	if got := w.janitor.Cutoff(now); !got.Equal(want) {
		t.Errorf("Cutoff() = %v, want %v", got, want)
	}
}
