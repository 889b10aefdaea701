package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsApply(t *testing.T) {
	s := newTestStore(t)

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		t.Fatalf("querying schema_version: %v", err)
	}
	if count == 0 {
		t.Error("expected at least one applied migration")
	}
}

func TestSetAndGetAnswers(t *testing.T) {
	s := newTestStore(t)

	answers := map[string]int{"ocean_1": 7, "ocean_2": 3}
	if err := s.SetAnswers("user-1", "big_five", answers); err != nil {
		t.Fatalf("SetAnswers failed: %v", err)
	}

	got, err := s.GetAnswers("user-1", "big_five")
	if err != nil {
		t.Fatalf("GetAnswers failed: %v", err)
	}
	if got["ocean_1"] != 7 || got["ocean_2"] != 3 {
		t.Errorf("unexpected answers: %v", got)
	}
}

func TestSetAnswersUpsertMerges(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetAnswers("user-1", "big_five", map[string]int{"ocean_1": 2, "ocean_2": 5}); err != nil {
		t.Fatalf("first SetAnswers failed: %v", err)
	}
	if err := s.SetAnswers("user-1", "big_five", map[string]int{"ocean_1": 6}); err != nil {
		t.Fatalf("second SetAnswers failed: %v", err)
	}

	got, err := s.GetAnswers("user-1", "big_five")
	if err != nil {
		t.Fatalf("GetAnswers failed: %v", err)
	}
	if got["ocean_1"] != 6 {
		t.Errorf("ocean_1 = %d, want 6 after upsert", got["ocean_1"])
	}
	if got["ocean_2"] != 5 {
		t.Errorf("ocean_2 = %d, want 5 preserved from first write", got["ocean_2"])
	}
}

func TestGetAllAnswersGroupsByInstrument(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetAnswers("user-1", "big_five", map[string]int{"ocean_1": 7}); err != nil {
		t.Fatalf("SetAnswers big_five: %v", err)
	}
	if err := s.SetAnswers("user-1", "disc_profile", map[string]int{"disc_1": 4}); err != nil {
		t.Fatalf("SetAnswers disc_profile: %v", err)
	}
	if err := s.SetAnswers("user-2", "big_five", map[string]int{"ocean_1": 1}); err != nil {
		t.Fatalf("SetAnswers other user: %v", err)
	}

	all, err := s.GetAllAnswers("user-1")
	if err != nil {
		t.Fatalf("GetAllAnswers failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 instruments, got %d", len(all))
	}
	if all["big_five"]["ocean_1"] != 7 {
		t.Errorf("big_five ocean_1 = %d, want 7", all["big_five"]["ocean_1"])
	}
	if all["disc_profile"]["disc_1"] != 4 {
		t.Errorf("disc_profile disc_1 = %d, want 4", all["disc_profile"]["disc_1"])
	}
}

func TestSaveAndGetTwin(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	rec := TwinRecord{
		ID:          uuid.New().String(),
		UserID:      "user-1",
		Name:        "My Twin",
		DossierJSON: `{"summary":"x"}`,
		ToneJSON:    `{"formality":50}`,
		StylesJSON:  `["stephen-king"]`,
		Completion:  42,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.SaveTwin(rec); err != nil {
		t.Fatalf("SaveTwin failed: %v", err)
	}

	got, err := s.GetTwin(rec.ID)
	if err != nil {
		t.Fatalf("GetTwin failed: %v", err)
	}
	if got.Name != "My Twin" || got.Completion != 42 {
		t.Errorf("unexpected twin: %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
}

func TestLatestTwinOrdering(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, name := range []string{"old", "new"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		rec := TwinRecord{
			ID: uuid.New().String(), UserID: "user-1", Name: name,
			DossierJSON: "{}", ToneJSON: "{}", StylesJSON: "[]",
			CreatedAt: ts, UpdatedAt: ts,
		}
		if err := s.SaveTwin(rec); err != nil {
			t.Fatalf("SaveTwin %s failed: %v", name, err)
		}
	}

	got, err := s.LatestTwin("user-1")
	if err != nil {
		t.Fatalf("LatestTwin failed: %v", err)
	}
	if got.Name != "new" {
		t.Errorf("LatestTwin name = %q, want %q", got.Name, "new")
	}
}

func TestGetTwinNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetTwin("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.LatestTwin("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for LatestTwin, got %v", err)
	}
}

func TestWritingSamples(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		ws := WritingSample{
			ID:        uuid.New().String(),
			UserID:    "user-1",
			Title:     "Sample",
			Content:   "some prose",
			Source:    "api",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveWritingSample(ws); err != nil {
			t.Fatalf("SaveWritingSample failed: %v", err)
		}
	}

	got, err := s.ListWritingSamples("user-1", 2)
	if err != nil {
		t.Fatalf("ListWritingSamples failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples with limit, got %d", len(got))
	}
	if got[0].CreatedAt.Before(got[1].CreatedAt) {
		t.Error("samples not ordered newest first")
	}
}

func TestBookLifecycle(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	book := Book{
		ID:        uuid.New().String(),
		UserID:    "user-1",
		Title:     "A Field Guide",
		Genre:     "non-fiction",
		StyleID:   "william-zinsser",
		Status:    BookStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateBook(book); err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}

	if err := s.UpdateBookStatus(book.ID, BookStatusDrafting); err != nil {
		t.Fatalf("UpdateBookStatus failed: %v", err)
	}
	got, err := s.GetBook(book.ID)
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if got.Status != BookStatusDrafting {
		t.Errorf("status = %q, want %q", got.Status, BookStatusDrafting)
	}

	if err := s.SetBookPublication(book.ID, "user-1-a-field-guide", "https://user-1.github.io/a-field-guide/"); err != nil {
		t.Fatalf("SetBookPublication failed: %v", err)
	}
	got, err = s.GetBook(book.ID)
	if err != nil {
		t.Fatalf("GetBook after publication failed: %v", err)
	}
	if got.Status != BookStatusPublished {
		t.Errorf("status = %q, want %q", got.Status, BookStatusPublished)
	}
	if got.RepoName == "" || got.SiteURL == "" {
		t.Errorf("publication fields not stored: %+v", got)
	}

	books, err := s.ListBooks("user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if len(books) != 1 {
		t.Errorf("expected 1 book, got %d", len(books))
	}

	if err := s.UpdateBookStatus("missing", BookStatusDraft); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing book, got %v", err)
	}
}

func TestChapterOrderingAndDraft(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	bookID := uuid.New().String()
	book := Book{ID: bookID, UserID: "user-1", Title: "Book", Status: BookStatusDraft, CreatedAt: now, UpdatedAt: now}
	if err := s.CreateBook(book); err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}

	// Insert out of order to make sure listing sorts by position.
	for _, pos := range []int{2, 1, 3} {
		c := Chapter{
			ID: uuid.New().String(), BookID: bookID, Position: pos,
			Title: "Chapter", Status: ChapterStatusPending,
			CreatedAt: now, UpdatedAt: now,
		}
		if err := s.CreateChapter(c); err != nil {
			t.Fatalf("CreateChapter %d failed: %v", pos, err)
		}
	}

	chapters, err := s.ListChapters(bookID)
	if err != nil {
		t.Fatalf("ListChapters failed: %v", err)
	}
	if len(chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(chapters))
	}
	for i, c := range chapters {
		if c.Position != i+1 {
			t.Errorf("chapter %d has position %d", i, c.Position)
		}
	}

	target := chapters[0]
	if err := s.UpdateChapterDraft(target.ID, "drafted prose", ChapterStatusDrafted); err != nil {
		t.Fatalf("UpdateChapterDraft failed: %v", err)
	}
	got, err := s.GetChapter(target.ID)
	if err != nil {
		t.Fatalf("GetChapter failed: %v", err)
	}
	if got.Content != "drafted prose" || got.Status != ChapterStatusDrafted {
		t.Errorf("unexpected chapter after draft: %+v", got)
	}

	if err := s.UpdateChapterStatus(target.ID, ChapterStatusFailed); err != nil {
		t.Fatalf("UpdateChapterStatus failed: %v", err)
	}
	got, err = s.GetChapter(target.ID)
	if err != nil {
		t.Fatalf("GetChapter after status update failed: %v", err)
	}
	if got.Status != ChapterStatusFailed {
		t.Errorf("status = %q, want %q", got.Status, ChapterStatusFailed)
	}
	if got.Content != "drafted prose" {
		t.Errorf("status update must not touch content, got %q", got.Content)
	}
}

func TestJobQueueClaimAndComplete(t *testing.T) {
	s := newTestStore(t)

	job := Job{ID: uuid.New().String(), Type: JobTypeChapterDraft, PayloadJSON: `{"chapter_id":"c1"}`}
	if err := s.EnqueueJob(job); err != nil {
		t.Fatalf("EnqueueJob failed: %v", err)
	}

	claimed, err := s.ClaimNextJob([]string{JobTypeChapterDraft})
	if err != nil {
		t.Fatalf("ClaimNextJob failed: %v", err)
	}
	if claimed == nil {
		t.Fatal("expected a claimed job")
	}
	if claimed.ID != job.ID || claimed.Status != "running" {
		t.Errorf("unexpected claimed job: %+v", claimed)
	}

	// Job is running now, so a second claim finds nothing.
	again, err := s.ClaimNextJob([]string{JobTypeChapterDraft})
	if err != nil {
		t.Fatalf("second ClaimNextJob failed: %v", err)
	}
	if again != nil {
		t.Errorf("expected no claimable job, got %+v", again)
	}

	if err := s.CompleteJob(claimed.ID); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}
}

func TestJobQueueTypeFilter(t *testing.T) {
	s := newTestStore(t)

	job := Job{ID: uuid.New().String(), Type: JobTypeBookPublish, PayloadJSON: "{}"}
	if err := s.EnqueueJob(job); err != nil {
		t.Fatalf("EnqueueJob failed: %v", err)
	}

	claimed, err := s.ClaimNextJob([]string{JobTypeChapterDraft})
	if err != nil {
		t.Fatalf("ClaimNextJob failed: %v", err)
	}
	if claimed != nil {
		t.Errorf("claimed job of wrong type: %+v", claimed)
	}

	claimed, err = s.ClaimNextJob([]string{JobTypeChapterDraft, JobTypeBookPublish})
	if err != nil {
		t.Fatalf("ClaimNextJob with both types failed: %v", err)
	}
	if claimed == nil || claimed.Type != JobTypeBookPublish {
		t.Errorf("expected publish job, got %+v", claimed)
	}
}

func TestFailJobBacksOffThenFails(t *testing.T) {
	s := newTestStore(t)

	job := Job{ID: uuid.New().String(), Type: JobTypeChapterDraft, PayloadJSON: "{}", MaxAttempts: 2}
	if err := s.EnqueueJob(job); err != nil {
		t.Fatalf("EnqueueJob failed: %v", err)
	}

	claimed, err := s.ClaimNextJob([]string{JobTypeChapterDraft})
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNextJob failed: %v, job=%v", err, claimed)
	}

	if err := s.FailJob(claimed.ID, "model timeout"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	// First failure reschedules into the future, so nothing is claimable yet.
	again, err := s.ClaimNextJob([]string{JobTypeChapterDraft})
	if err != nil {
		t.Fatalf("ClaimNextJob after failure failed: %v", err)
	}
	if again != nil {
		t.Errorf("expected job in backoff, got %+v", again)
	}

	var status string
	var attempts int
	if err := s.db.QueryRow("SELECT status, attempts FROM jobs WHERE id = ?", claimed.ID).Scan(&status, &attempts); err != nil {
		t.Fatalf("querying job: %v", err)
	}
	if status != "pending" || attempts != 1 {
		t.Errorf("after first failure status=%q attempts=%d, want pending/1", status, attempts)
	}

	// Second failure exhausts the attempt budget.
	if err := s.FailJob(claimed.ID, "model timeout"); err != nil {
		t.Fatalf("second FailJob failed: %v", err)
	}
	var lastError string
	if err := s.db.QueryRow("SELECT status, attempts, last_error FROM jobs WHERE id = ?", claimed.ID).Scan(&status, &attempts, &lastError); err != nil {
		t.Fatalf("querying job: %v", err)
	}
	if status != "failed" || attempts != 2 {
		t.Errorf("after second failure status=%q attempts=%d, want failed/2", status, attempts)
	}
	if lastError != "model timeout" {
		t.Errorf("last_error = %q", lastError)
	}
}
