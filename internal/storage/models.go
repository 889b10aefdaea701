package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TwinRecord is a persisted digital-twin snapshot. The dossier, tone profile,
// and style recommendations are stored as JSON text; the storage layer does
// not interpret them.
type TwinRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	DossierJSON string    `json:"dossier"`
	ToneJSON    string    `json:"tone_profile"`
	StylesJSON  string    `json:"recommended_styles"`
	Completion  int       `json:"completion_percentage"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WritingSample is a free-text sample of the user's writing, kept as
// contextual material alongside the scored questionnaire.
type WritingSample struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source"` // "api", "cli", "url", "pdf"
	CreatedAt time.Time `json:"created_at"`
}

// Book statuses.
const (
	BookStatusDraft      = "draft"
	BookStatusDrafting   = "drafting"
	BookStatusPublishing = "publishing"
	BookStatusPublished  = "published"
)

type Book struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Genre       string    `json:"genre"`
	StyleID     string    `json:"style_id"`
	Status      string    `json:"status"`
	RepoName    string    `json:"repo_name,omitempty"`
	SiteURL     string    `json:"site_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chapter statuses.
const (
	ChapterStatusPending = "pending"
	ChapterStatusDrafted = "drafted"
	ChapterStatusFailed  = "failed"
)

type Chapter struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	Position  int       `json:"position"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Job types processed by the draft worker.
const (
	JobTypeChapterDraft = "chapter_draft"
	JobTypeBookPublish  = "book_publish"
)

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
