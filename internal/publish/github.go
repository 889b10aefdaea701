// Package publish pushes rendered book files to a GitHub repository so the
// book can be served through GitHub Pages.
package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultAPIURL  = "https://api.github.com"
	defaultTimeout = 30 * time.Second
)

// Publisher talks to the GitHub REST API on behalf of one account.
type Publisher struct {
	token      string
	owner      string
	apiURL     string
	httpClient *http.Client
}

// NewPublisher creates a publisher for the given account.
func NewPublisher(token, owner string) *Publisher {
	return &Publisher{
		token:  token,
		owner:  owner,
		apiURL: defaultAPIURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewPublisherWithAPIURL creates a publisher pointing at a custom API URL (for testing).
func NewPublisherWithAPIURL(token, owner, apiURL string) *Publisher {
	p := NewPublisher(token, owner)
	p.apiURL = strings.TrimRight(apiURL, "/")
	return p
}

// File is one path/content pair to push.
type File struct {
	Path    string
	Content []byte
}

// EnsureRepo creates the repository if it does not exist yet. An existing
// repository with the same name is not an error.
func (p *Publisher) EnsureRepo(ctx context.Context, name, description string) error {
	body, err := json.Marshal(map[string]any{
		"name":        name,
		"description": description,
		"has_issues":  false,
		"has_wiki":    false,
		"auto_init":   true,
	})
	if err != nil {
		return fmt.Errorf("marshaling repo request: %w", err)
	}

	resp, err := p.do(ctx, http.MethodPost, "/user/repos", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return nil
	case http.StatusUnprocessableEntity:
		// Name already taken on this account.
		return nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("creating repository %s: status %d: %s", name, resp.StatusCode, string(respBody))
	}
}

// PutFile creates or updates a single file on the default branch.
func (p *Publisher) PutFile(ctx context.Context, repo, path string, content []byte, message string) error {
	contentPath := fmt.Sprintf("/repos/%s/%s/contents/%s", p.owner, repo, path)

	// An update needs the blob SHA of the existing file.
	sha, err := p.fileSHA(ctx, contentPath)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
	}
	if sha != "" {
		payload["sha"] = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling file request: %w", err)
	}

	resp, err := p.do(ctx, http.MethodPut, contentPath, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("putting %s: status %d: %s", path, resp.StatusCode, string(respBody))
	}
	return nil
}

func (p *Publisher) fileSHA(ctx context.Context, contentPath string) (string, error) {
	resp, err := p.do(ctx, http.MethodGet, contentPath, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checking existing file: status %d", resp.StatusCode)
	}

	var existing struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&existing); err != nil {
		return "", fmt.Errorf("decoding existing file: %w", err)
	}
	return existing.SHA, nil
}

// PushFiles uploads every file to the repository, a few at a time.
func (p *Publisher) PushFiles(ctx context.Context, repo string, files []File, message string) error {
	// Stable order keeps commit history readable when files race.
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4) // Bound concurrency to stay under GitHub abuse limits.

	for _, f := range sorted {
		f := f
		g.Go(func() error {
			return p.PutFile(gCtx, repo, f.Path, f.Content, message)
		})
	}

	return g.Wait()
}

// PagesURL returns the GitHub Pages URL for a repository.
func (p *Publisher) PagesURL(repo string) string {
	return fmt.Sprintf("https://%s.github.io/%s/", p.owner, repo)
}

func (p *Publisher) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.apiURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}
