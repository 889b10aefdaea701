// Package draft runs the background worker that turns queued jobs into
// generated chapter prose and published books.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/liquidbooks/liquidbooks/internal/publish"
	"github.com/liquidbooks/liquidbooks/internal/storage"
)

// JobStore abstracts the queue and book storage the worker needs.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
	GetBook(id string) (storage.Book, error)
	GetChapter(id string) (storage.Chapter, error)
	ListChapters(bookID string) ([]storage.Chapter, error)
	UpdateChapterDraft(id, content, status string) error
	UpdateChapterStatus(id, status string) error
	UpdateBookStatus(id, status string) error
	SetBookPublication(id, repoName, siteURL string) error
}

// Prompter supplies the compiled voice prompt for a user.
type Prompter interface {
	Prompt(userID string) (string, error)
}

// Generator produces prose from a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Pusher abstracts the GitHub side of publishing.
type Pusher interface {
	EnsureRepo(ctx context.Context, name, description string) error
	PushFiles(ctx context.Context, repo string, files []publish.File, message string) error
	PagesURL(repo string) string
}

// Worker processes chapter_draft and book_publish jobs from the job queue.
type Worker struct {
	store     JobStore
	prompter  Prompter
	generator Generator
	pusher    Pusher
	poll      time.Duration
	logger    *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, prompter Prompter, generator Generator, pusher Pusher, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:     store,
		prompter:  prompter,
		generator: generator,
		pusher:    pusher,
		poll:      pollInterval,
		logger:    slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{storage.JobTypeChapterDraft, storage.JobTypeBookPublish})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "type", job.Type, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		if job.Attempts+1 >= job.MaxAttempts {
			w.markExhausted(job)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

type draftPayload struct {
	ChapterID string `json:"chapter_id"`
}

type publishPayload struct {
	BookID string `json:"book_id"`
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	switch job.Type {
	case storage.JobTypeChapterDraft:
		return w.draftChapter(ctx, job)
	case storage.JobTypeBookPublish:
		return w.publishBook(ctx, job)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

func (w *Worker) draftChapter(ctx context.Context, job *storage.Job) error {
	var payload draftPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	chapter, err := w.store.GetChapter(payload.ChapterID)
	if err != nil {
		return fmt.Errorf("loading chapter %s: %w", payload.ChapterID, err)
	}

	book, err := w.store.GetBook(chapter.BookID)
	if err != nil {
		return fmt.Errorf("loading book %s: %w", chapter.BookID, err)
	}

	voice, err := w.prompter.Prompt(book.UserID)
	if err != nil {
		return fmt.Errorf("building voice prompt: %w", err)
	}

	content, err := w.generator.Generate(ctx, voice, chapterBrief(book, chapter))
	if err != nil {
		return fmt.Errorf("generating chapter: %w", err)
	}

	if err := w.store.UpdateChapterDraft(chapter.ID, content, storage.ChapterStatusDrafted); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}

	// When the last chapter lands, the book is ready to publish again.
	if done, err := w.allChaptersDrafted(book.ID); err != nil {
		w.logger.Warn("checking book progress", "book_id", book.ID, "error", err)
	} else if done {
		if err := w.store.UpdateBookStatus(book.ID, storage.BookStatusDraft); err != nil {
			w.logger.Warn("resetting book status", "book_id", book.ID, "error", err)
		}
	}

	return nil
}

func (w *Worker) allChaptersDrafted(bookID string) (bool, error) {
	chapters, err := w.store.ListChapters(bookID)
	if err != nil {
		return false, err
	}
	for _, c := range chapters {
		if c.Status != storage.ChapterStatusDrafted {
			return false, nil
		}
	}
	return len(chapters) > 0, nil
}

// chapterBrief assembles the user-turn instructions for one chapter.
func chapterBrief(book storage.Book, chapter storage.Chapter) string {
	brief := fmt.Sprintf(
		"Write chapter %d, %q, of the book %q.",
		chapter.Position, chapter.Title, book.Title,
	)
	if book.Genre != "" {
		brief += fmt.Sprintf(" The book's genre is %s.", book.Genre)
	}
	if book.Description != "" {
		brief += fmt.Sprintf(" Book premise: %s", book.Description)
	}
	if chapter.Summary != "" {
		brief += fmt.Sprintf(" This chapter covers: %s", chapter.Summary)
	}
	brief += " Respond with the chapter prose only, no preamble."
	return brief
}

func (w *Worker) publishBook(ctx context.Context, job *storage.Job) error {
	var payload publishPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	book, err := w.store.GetBook(payload.BookID)
	if err != nil {
		return fmt.Errorf("loading book %s: %w", payload.BookID, err)
	}

	chapters, err := w.store.ListChapters(book.ID)
	if err != nil {
		return fmt.Errorf("loading chapters: %w", err)
	}
	if len(chapters) == 0 {
		return fmt.Errorf("book %s has no chapters", book.ID)
	}
	for _, c := range chapters {
		if c.Status != storage.ChapterStatusDrafted {
			return fmt.Errorf("chapter %d is not drafted yet", c.Position)
		}
	}

	repo := book.RepoName
	if repo == "" {
		repo = publish.RepoName(book.Title)
	}

	if err := w.pusher.EnsureRepo(ctx, repo, book.Description); err != nil {
		return fmt.Errorf("ensuring repository: %w", err)
	}

	files := publish.RenderBook(book, chapters)
	message := fmt.Sprintf("Publish %s", book.Title)
	if err := w.pusher.PushFiles(ctx, repo, files, message); err != nil {
		return fmt.Errorf("pushing files: %w", err)
	}

	if err := w.store.SetBookPublication(book.ID, repo, w.pusher.PagesURL(repo)); err != nil {
		return fmt.Errorf("recording publication: %w", err)
	}

	return nil
}

// markExhausted downgrades the affected record once a job is out of retries.
func (w *Worker) markExhausted(job *storage.Job) {
	switch job.Type {
	case storage.JobTypeChapterDraft:
		var payload draftPayload
		if json.Unmarshal([]byte(job.PayloadJSON), &payload) == nil && payload.ChapterID != "" {
			if err := w.store.UpdateChapterStatus(payload.ChapterID, storage.ChapterStatusFailed); err != nil {
				w.logger.Error("marking chapter failed", "chapter_id", payload.ChapterID, "error", err)
			}
		}
	case storage.JobTypeBookPublish:
		var payload publishPayload
		if json.Unmarshal([]byte(job.PayloadJSON), &payload) == nil && payload.BookID != "" {
			if err := w.store.UpdateBookStatus(payload.BookID, storage.BookStatusDraft); err != nil {
				w.logger.Error("resetting book status", "book_id", payload.BookID, "error", err)
			}
		}
	}
}
