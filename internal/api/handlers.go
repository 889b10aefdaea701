// Package api exposes the questionnaire, twin, and book workflows over a
// bearer-authenticated REST API plus an MCP server for agent access.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/liquidbooks/liquidbooks/internal/psych"
	"github.com/liquidbooks/liquidbooks/internal/sample"
	"github.com/liquidbooks/liquidbooks/internal/storage"
	"github.com/liquidbooks/liquidbooks/internal/styles"
	"github.com/liquidbooks/liquidbooks/internal/twin"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxSampleBodySize = 10 << 20 // 10MB, pdf uploads are base64-encoded
const maxURLFetchSize = 5 << 20    // 5MB
const defaultUserID = "default"

type AppDeps struct {
	Store      *storage.Store
	Twins      *twin.Manager
	Token      string
	HTTPClient *http.Client
}

func (d AppDeps) httpClient() *http.Client {
	if d.HTTPClient != nil {
		return d.HTTPClient
	}
	return http.DefaultClient
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/answers", handleGetAnswers(deps))
		r.Patch("/answers/{instrument}", handlePatchAnswers(deps))

		r.Get("/twin", handleGetTwin(deps))
		r.Post("/twin/rebuild", handleRebuildTwin(deps))
		r.Get("/voice-prompt", handleVoicePrompt(deps))

		r.Get("/styles", handleListStyles)
		r.Get("/styles/{id}", handleGetStyle)

		r.Post("/samples", handleCreateSample(deps))
		r.Get("/samples", handleListSamples(deps))

		r.Post("/books", handleCreateBook(deps))
		r.Get("/books", handleListBooks(deps))
		r.Get("/books/{id}", handleGetBook(deps))
		r.Post("/books/{id}/draft", handleDraftBook(deps))
		r.Post("/books/{id}/publish", handlePublishBook(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// userID resolves the acting user. The server is single-tenant by default;
// multi-user callers pass X-User-ID.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return defaultUserID
}

func handleGetAnswers(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		answers, err := deps.Store.GetAllAnswers(userID(r))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load answers: %v", err)
			return
		}
		if answers == nil {
			answers = map[string]map[string]int{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(answers)
	}
}

func handlePatchAnswers(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		instrument := chi.URLParam(r, "instrument")

		var answers map[string]int
		if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(answers) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one answer is required")
			return
		}
		for id, v := range answers {
			if v < psych.ScaleMin || v > psych.ScaleMax {
				httpError(w, http.StatusBadRequest, "invalid_request_error",
					"answer %s is %d, must be between %d and %d", id, v, psych.ScaleMin, psych.ScaleMax)
				return
			}
		}

		if err := deps.Twins.SetAnswers(userID(r), instrument, answers); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save answers: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}
}

func handleGetTwin(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := deps.Store.LatestTwin(userID(r))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "no twin built yet")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load twin: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(twinResponse(rec))
	}
}

type rebuildRequest struct {
	Name string `json:"name"`
}

func handleRebuildTwin(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req rebuildRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		t, err := deps.Twins.Rebuild(userID(r), req.Name)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to rebuild twin: %v", err)
			return
		}

		rec, err := twinRecord(t)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to encode twin: %v", err)
			return
		}
		if err := deps.Store.SaveTwin(rec); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save twin: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t)
	}
}

// twinRecord flattens a twin into its persisted row.
func twinRecord(t twin.Twin) (storage.TwinRecord, error) {
	dossierJSON, err := json.Marshal(t.Dossier)
	if err != nil {
		return storage.TwinRecord{}, fmt.Errorf("marshaling dossier: %w", err)
	}
	toneJSON, err := json.Marshal(t.Tone)
	if err != nil {
		return storage.TwinRecord{}, fmt.Errorf("marshaling tone: %w", err)
	}
	stylesJSON, err := json.Marshal(t.RecommendedStyles)
	if err != nil {
		return storage.TwinRecord{}, fmt.Errorf("marshaling styles: %w", err)
	}
	return storage.TwinRecord{
		ID:          t.ID,
		UserID:      t.UserID,
		Name:        t.Name,
		DossierJSON: string(dossierJSON),
		ToneJSON:    string(toneJSON),
		StylesJSON:  string(stylesJSON),
		Completion:  t.Completion,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}, nil
}

// twinResponse rehydrates a stored row for API consumers. The JSON columns
// are embedded raw rather than re-parsed.
func twinResponse(rec storage.TwinRecord) map[string]any {
	return map[string]any{
		"id":                   rec.ID,
		"userId":               rec.UserID,
		"name":                 rec.Name,
		"dossier":              json.RawMessage(rec.DossierJSON),
		"toneProfile":          json.RawMessage(rec.ToneJSON),
		"recommendedStyles":    json.RawMessage(rec.StylesJSON),
		"completionPercentage": rec.Completion,
		"createdAt":            rec.CreatedAt,
		"updatedAt":            rec.UpdatedAt,
	}
}

func handleVoicePrompt(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prompt, err := deps.Twins.Prompt(userID(r))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to compile prompt: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"prompt": prompt})
	}
}

func handleListStyles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(styles.All())
}

func handleGetStyle(w http.ResponseWriter, r *http.Request) {
	author, ok := styles.Lookup(chi.URLParam(r, "id"))
	if !ok {
		httpError(w, http.StatusNotFound, "not_found", "unknown style")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(author)
}

type sampleRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Encoding string `json:"encoding"` // "base64" for binary uploads
}

func handleCreateSample(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSampleBodySize)

		var req sampleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Content == "" && req.URL == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content or url is required")
			return
		}

		var data []byte
		var format sample.Format
		source := ""

		switch {
		case req.URL != "":
			ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
			defer cancel()

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid url: %v", err)
				return
			}
			resp, err := deps.httpClient().Do(httpReq)
			if err != nil {
				httpError(w, http.StatusBadGateway, "api_error", "failed to fetch url: %v", err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				httpError(w, http.StatusBadGateway, "api_error", "url returned status %d", resp.StatusCode)
				return
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxURLFetchSize))
			if err != nil {
				httpError(w, http.StatusBadGateway, "api_error", "failed to read url response: %v", err)
				return
			}
			data = body
			format = sample.FormatHTML
			source = "url"
			if req.Title == "" {
				req.Title = req.URL
			}

		case req.Encoding == "base64":
			decoded, err := base64.StdEncoding.DecodeString(req.Content)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid base64 content")
				return
			}
			data = decoded
			format = sample.DetectFormat(req.Filename)
			source = string(format)

		default:
			data = []byte(req.Content)
			format = sample.DetectFormat(req.Filename)
			source = string(format)
		}

		text, err := sample.Extract(data, format)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to extract text: %v", err)
			return
		}

		ws := storage.WritingSample{
			ID:        uuid.New().String(),
			UserID:    userID(r),
			Title:     req.Title,
			Content:   text,
			Source:    source,
			CreatedAt: time.Now().UTC(),
		}
		if err := deps.Store.SaveWritingSample(ws); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save sample: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ws)
	}
}

func handleListSamples(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)

		samples, err := deps.Store.ListWritingSamples(userID(r), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list samples: %v", err)
			return
		}
		if samples == nil {
			samples = []storage.WritingSample{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(samples)
	}
}

type chapterRequest struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

type bookRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Genre       string           `json:"genre"`
	StyleID     string           `json:"styleId"`
	Chapters    []chapterRequest `json:"chapters"`
}

type bookResponse struct {
	storage.Book
	Chapters []storage.Chapter `json:"chapters"`
}

func handleCreateBook(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req bookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title is required")
			return
		}
		if len(req.Chapters) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one chapter is required")
			return
		}
		if req.StyleID != "" {
			if _, ok := styles.Lookup(req.StyleID); !ok {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown style %q", req.StyleID)
				return
			}
		}
		for i, c := range req.Chapters {
			if c.Title == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "chapter %d is missing a title", i+1)
				return
			}
		}

		now := time.Now().UTC()
		book := storage.Book{
			ID:          uuid.New().String(),
			UserID:      userID(r),
			Title:       req.Title,
			Description: req.Description,
			Genre:       req.Genre,
			StyleID:     req.StyleID,
			Status:      storage.BookStatusDraft,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := deps.Store.CreateBook(book); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create book: %v", err)
			return
		}

		chapters := make([]storage.Chapter, 0, len(req.Chapters))
		for i, c := range req.Chapters {
			chapter := storage.Chapter{
				ID:        uuid.New().String(),
				BookID:    book.ID,
				Position:  i + 1,
				Title:     c.Title,
				Summary:   c.Summary,
				Status:    storage.ChapterStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := deps.Store.CreateChapter(chapter); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to create chapter: %v", err)
				return
			}
			chapters = append(chapters, chapter)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(bookResponse{Book: book, Chapters: chapters})
	}
}

func handleListBooks(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		books, err := deps.Store.ListBooks(userID(r), limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list books: %v", err)
			return
		}
		if books == nil {
			books = []storage.Book{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(books)
	}
}

// loadUserBook fetches a book and rejects access across users.
func loadUserBook(deps AppDeps, w http.ResponseWriter, r *http.Request) (storage.Book, bool) {
	book, err := deps.Store.GetBook(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) || (err == nil && book.UserID != userID(r)) {
		httpError(w, http.StatusNotFound, "not_found", "book not found")
		return storage.Book{}, false
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "failed to load book: %v", err)
		return storage.Book{}, false
	}
	return book, true
}

func handleGetBook(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		book, ok := loadUserBook(deps, w, r)
		if !ok {
			return
		}

		chapters, err := deps.Store.ListChapters(book.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load chapters: %v", err)
			return
		}
		if chapters == nil {
			chapters = []storage.Chapter{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(bookResponse{Book: book, Chapters: chapters})
	}
}

func handleDraftBook(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		book, ok := loadUserBook(deps, w, r)
		if !ok {
			return
		}
		if book.Status == storage.BookStatusPublishing {
			httpError(w, http.StatusConflict, "invalid_request_error", "book is being published")
			return
		}

		chapters, err := deps.Store.ListChapters(book.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load chapters: %v", err)
			return
		}

		queued := 0
		for _, c := range chapters {
			if c.Status == storage.ChapterStatusDrafted {
				continue
			}
			payload, err := json.Marshal(map[string]string{"chapter_id": c.ID})
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to create job payload: %v", err)
				return
			}
			job := storage.Job{
				ID:          uuid.New().String(),
				Type:        storage.JobTypeChapterDraft,
				PayloadJSON: string(payload),
			}
			if err := deps.Store.EnqueueJob(job); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue chapter: %v", err)
				return
			}
			queued++
		}

		if queued == 0 {
			httpError(w, http.StatusConflict, "invalid_request_error", "all chapters are already drafted")
			return
		}

		if err := deps.Store.UpdateBookStatus(book.ID, storage.BookStatusDrafting); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update book status: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]any{
			"status":         storage.BookStatusDrafting,
			"chaptersQueued": queued,
		})
	}
}

func handlePublishBook(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		book, ok := loadUserBook(deps, w, r)
		if !ok {
			return
		}

		chapters, err := deps.Store.ListChapters(book.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load chapters: %v", err)
			return
		}
		if len(chapters) == 0 {
			httpError(w, http.StatusConflict, "invalid_request_error", "book has no chapters")
			return
		}
		for _, c := range chapters {
			if c.Status != storage.ChapterStatusDrafted {
				httpError(w, http.StatusConflict, "invalid_request_error", "chapter %d is not drafted yet", c.Position)
				return
			}
		}

		payload, err := json.Marshal(map[string]string{"book_id": book.ID})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create job payload: %v", err)
			return
		}
		job := storage.Job{
			ID:          uuid.New().String(),
			Type:        storage.JobTypeBookPublish,
			PayloadJSON: string(payload),
		}
		if err := deps.Store.EnqueueJob(job); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue publish: %v", err)
			return
		}

		if err := deps.Store.UpdateBookStatus(book.ID, storage.BookStatusPublishing); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update book status: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": storage.BookStatusPublishing})
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
