package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/liquidbooks/liquidbooks/internal/psych"
	"github.com/liquidbooks/liquidbooks/internal/storage"
	"github.com/liquidbooks/liquidbooks/internal/twin"
)

const testToken = "test-token"

func newTestHandler(t *testing.T) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	deps := AppDeps{
		Store: store,
		Twins: twin.NewManager(store),
		Token: testToken,
	}
	return NewAppHandler(deps), store
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthIsPublic(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, auth := range []string{"", "Bearer wrong-token", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/answers", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("auth %q: status = %d, want 401", auth, rec.Code)
		}
	}
}

func TestPatchAndGetAnswers(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPatch, "/answers/big_five", map[string]int{"ocean_1": 7, "ocean_2": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/answers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	answers := decode[map[string]map[string]int](t, rec)
	if answers["big_five"]["ocean_1"] != 7 {
		t.Errorf("answers = %v", answers)
	}
}

func TestPatchAnswersValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name string
		body any
	}{
		{"empty", map[string]int{}},
		{"below scale", map[string]int{"ocean_1": 0}},
		{"above scale", map[string]int{"ocean_1": 8}},
		{"not numbers", map[string]string{"ocean_1": "seven"}},
	}
	for _, tc := range cases {
		rec := doRequest(t, h, http.MethodPatch, "/answers/big_five", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestTwinRebuildAndGet(t *testing.T) {
	h, _ := newTestHandler(t)

	// No twin yet.
	rec := doRequest(t, h, http.MethodGet, "/twin", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get before rebuild: status = %d", rec.Code)
	}

	answers := map[string]int{}
	for i := 1; i <= 35; i++ {
		answers[fmt.Sprintf("ocean_%d", i)] = 6
	}
	doRequest(t, h, http.MethodPatch, "/answers/"+psych.InstrumentBigFive, answers)

	rec = doRequest(t, h, http.MethodPost, "/twin/rebuild", map[string]string{"name": "My Voice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rebuild status = %d: %s", rec.Code, rec.Body.String())
	}
	built := decode[map[string]any](t, rec)
	if built["name"] != "My Voice" {
		t.Errorf("name = %v", built["name"])
	}
	if built["completionPercentage"].(float64) <= 0 {
		t.Errorf("completion = %v", built["completionPercentage"])
	}

	rec = doRequest(t, h, http.MethodGet, "/twin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get after rebuild: status = %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	if got["id"] != built["id"] {
		t.Errorf("persisted twin id = %v, want %v", got["id"], built["id"])
	}
	if _, ok := got["dossier"].(map[string]any); !ok {
		t.Errorf("dossier not embedded as object: %T", got["dossier"])
	}
}

func TestVoicePrompt(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/voice-prompt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[map[string]string](t, rec)
	if !strings.Contains(resp["prompt"], "# Author Identity") {
		t.Errorf("prompt = %q", resp["prompt"])
	}
}

func TestStylesEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/styles", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	authors := decode[[]map[string]any](t, rec)
	if len(authors) == 0 {
		t.Fatal("expected a non-empty catalog")
	}

	rec = doRequest(t, h, http.MethodGet, "/styles/stephen-king", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/styles/unknown-author", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown style status = %d", rec.Code)
	}
}

func TestCreateAndListSamples(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/samples", map[string]string{
		"title":    "An essay",
		"filename": "essay.txt",
		"content":  "  I write   short sentences. ",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	if created["content"] != "I write short sentences." {
		t.Errorf("content = %v", created["content"])
	}
	if created["source"] != "text" {
		t.Errorf("source = %v", created["source"])
	}

	rec = doRequest(t, h, http.MethodGet, "/samples", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	samples := decode[[]map[string]any](t, rec)
	if len(samples) != 1 {
		t.Errorf("expected 1 sample, got %d", len(samples))
	}
}

func TestCreateSampleRejectsMissingContent(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/samples", map[string]string{"title": "empty"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateSampleFromURL(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head><title>T</title></head><body><p>Fetched   prose.</p><script>x()</script></body></html>"))
	}))
	defer src.Close()

	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/samples", map[string]string{"url": src.URL})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[map[string]any](t, rec)
	if created["content"] != "Fetched prose." {
		t.Errorf("content = %v", created["content"])
	}
	if created["source"] != "url" {
		t.Errorf("source = %v", created["source"])
	}
	if created["title"] != src.URL {
		t.Errorf("title = %v, want the url", created["title"])
	}
}

func TestCreateSampleFromURL_BadUpstream(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer src.Close()

	h, _ := newTestHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/samples", map[string]string{"url": src.URL})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func createTestBook(t *testing.T, h http.Handler) map[string]any {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/books", map[string]any{
		"title":       "Tide Lines",
		"description": "A coastal memoir.",
		"genre":       "memoir",
		"chapters": []map[string]string{
			{"title": "Low Water", "summary": "The flats at dawn."},
			{"title": "Springs"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create book status = %d: %s", rec.Code, rec.Body.String())
	}
	return decode[map[string]any](t, rec)
}

func TestCreateBookWithChapters(t *testing.T) {
	h, _ := newTestHandler(t)
	book := createTestBook(t, h)

	if book["status"] != storage.BookStatusDraft {
		t.Errorf("status = %v", book["status"])
	}
	chapters := book["chapters"].([]any)
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
	first := chapters[0].(map[string]any)
	if first["position"].(float64) != 1 || first["status"] != storage.ChapterStatusPending {
		t.Errorf("first chapter = %v", first)
	}

	rec := doRequest(t, h, http.MethodGet, "/books", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	books := decode[[]map[string]any](t, rec)
	if len(books) != 1 {
		t.Errorf("expected 1 book, got %d", len(books))
	}

	rec = doRequest(t, h, http.MethodGet, "/books/"+book["id"].(string), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
}

func TestCreateBookValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"chapters": []map[string]string{{"title": "One"}}}},
		{"no chapters", map[string]any{"title": "Empty"}},
		{"unknown style", map[string]any{"title": "X", "styleId": "nobody", "chapters": []map[string]string{{"title": "One"}}}},
		{"untitled chapter", map[string]any{"title": "X", "chapters": []map[string]string{{"summary": "no title"}}}},
	}
	for _, tc := range cases {
		rec := doRequest(t, h, http.MethodPost, "/books", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestDraftBookQueuesJobs(t *testing.T) {
	h, store := newTestHandler(t)
	book := createTestBook(t, h)

	rec := doRequest(t, h, http.MethodPost, "/books/"+book["id"].(string)+"/draft", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("draft status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[map[string]any](t, rec)
	if resp["chaptersQueued"].(float64) != 2 {
		t.Errorf("chaptersQueued = %v", resp["chaptersQueued"])
	}

	got, err := store.GetBook(book["id"].(string))
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Status != storage.BookStatusDrafting {
		t.Errorf("book status = %q", got.Status)
	}

	var jobs int
	if err := store.DB().QueryRow("SELECT COUNT(*) FROM jobs WHERE type = ?", storage.JobTypeChapterDraft).Scan(&jobs); err != nil {
		t.Fatalf("counting jobs: %v", err)
	}
	if jobs != 2 {
		t.Errorf("jobs = %d, want 2", jobs)
	}
}

func TestPublishBookRequiresDraftedChapters(t *testing.T) {
	h, store := newTestHandler(t)
	book := createTestBook(t, h)
	bookID := book["id"].(string)

	rec := doRequest(t, h, http.MethodPost, "/books/"+bookID+"/publish", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("publish with pending chapters: status = %d", rec.Code)
	}

	chapters, err := store.ListChapters(bookID)
	if err != nil {
		t.Fatalf("ListChapters: %v", err)
	}
	for _, c := range chapters {
		if err := store.UpdateChapterDraft(c.ID, "prose", storage.ChapterStatusDrafted); err != nil {
			t.Fatalf("UpdateChapterDraft: %v", err)
		}
	}

	rec = doRequest(t, h, http.MethodPost, "/books/"+bookID+"/publish", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("publish status = %d: %s", rec.Code, rec.Body.String())
	}

	got, err := store.GetBook(bookID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Status != storage.BookStatusPublishing {
		t.Errorf("book status = %q", got.Status)
	}

	var jobs int
	if err := store.DB().QueryRow("SELECT COUNT(*) FROM jobs WHERE type = ?", storage.JobTypeBookPublish).Scan(&jobs); err != nil {
		t.Fatalf("counting jobs: %v", err)
	}
	if jobs != 1 {
		t.Errorf("jobs = %d, want 1", jobs)
	}
}

func TestBooksAreScopedToUser(t *testing.T) {
	h, _ := newTestHandler(t)
	book := createTestBook(t, h)

	req := httptest.NewRequest(http.MethodGet, "/books/"+book["id"].(string), nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("X-User-ID", "someone-else")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user access: status = %d, want 404", rec.Code)
	}
}
