package publish

import (
	"fmt"
	"strings"

	"github.com/liquidbooks/liquidbooks/internal/storage"
)

// RenderBook lays a book out as a set of markdown files: an index page with a
// table of contents plus one file per chapter.
func RenderBook(book storage.Book, chapters []storage.Chapter) []File {
	var index strings.Builder
	fmt.Fprintf(&index, "# %s\n\n", book.Title)
	if book.Description != "" {
		fmt.Fprintf(&index, "%s\n\n", book.Description)
	}
	index.WriteString("## Contents\n\n")

	files := make([]File, 0, len(chapters)+1)
	for _, c := range chapters {
		name := chapterFilename(c)
		fmt.Fprintf(&index, "%d. [%s](%s)\n", c.Position, c.Title, name)

		var body strings.Builder
		fmt.Fprintf(&body, "# %s\n\n", c.Title)
		body.WriteString(c.Content)
		if !strings.HasSuffix(c.Content, "\n") {
			body.WriteString("\n")
		}
		files = append(files, File{Path: name, Content: []byte(body.String())})
	}

	files = append(files, File{Path: "index.md", Content: []byte(index.String())})
	return files
}

func chapterFilename(c storage.Chapter) string {
	return fmt.Sprintf("chapter-%02d.md", c.Position)
}

// RepoName derives a GitHub-safe repository name from a book title.
func RepoName(title string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	name := strings.Trim(sb.String(), "-")
	if name == "" {
		name = "untitled-book"
	}
	return name
}
