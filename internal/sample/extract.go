// Package sample extracts plain text from user-submitted writing samples
// so they can be stored alongside the questionnaire profile.
package sample

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// Format identifies the shape of an uploaded sample.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// DetectFormat guesses the sample format from a filename extension.
// Unknown extensions are treated as plain text.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatText
	}
}

// Extract returns the plain-text content of a sample in the given format.
func Extract(data []byte, format Format) (string, error) {
	switch format {
	case FormatPDF:
		return extractPDF(data)
	case FormatHTML:
		return extractHTML(data)
	case FormatText:
		return normalize(string(data)), nil
	default:
		return "", fmt.Errorf("unsupported sample format %q", format)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var sb strings.Builder
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("copying pdf text: %w", err)
	}

	text := normalize(sb.String())
	if text == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return text, nil
}

// skipElements are HTML elements whose text is never prose.
var skipElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"nav":    true,
	"footer": true,
}

func extractHTML(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return normalize(sb.String()), nil
}

// normalize collapses runs of whitespace into single spaces and trims.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
