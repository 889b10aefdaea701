package sample

import (
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		filename string
		want     Format
	}{
		{"essay.pdf", FormatPDF},
		{"Essay.PDF", FormatPDF},
		{"page.html", FormatHTML},
		{"page.htm", FormatHTML},
		{"notes.txt", FormatText},
		{"notes.md", FormatText},
		{"noextension", FormatText},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.filename); got != tc.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestExtractPlainText(t *testing.T) {
	got, err := Extract([]byte("  hello\n\n  world \t again "), FormatText)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got != "hello world again" {
		t.Errorf("Extract = %q, want normalized text", got)
	}
}

func TestExtractHTML(t *testing.T) {
	const page = `<html><head><title>Ignore</title><style>body{}</style></head>
		<body><nav>menu</nav><p>First paragraph.</p>
		<script>var x = 1;</script>
		<p>Second <em>paragraph</em>.</p><footer>copyright</footer></body></html>`

	got, err := Extract([]byte(page), FormatHTML)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.Contains(got, "First paragraph.") {
		t.Errorf("missing body text: %q", got)
	}
	if !strings.Contains(got, "Second paragraph .") && !strings.Contains(got, "Second paragraph") {
		t.Errorf("missing inline element text: %q", got)
	}
	for _, banned := range []string{"Ignore", "var x", "menu", "copyright", "body{}"} {
		if strings.Contains(got, banned) {
			t.Errorf("extracted text contains non-prose %q: %q", banned, got)
		}
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	if _, err := Extract([]byte("x"), Format("docx")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	if _, err := Extract([]byte("not a pdf at all"), FormatPDF); err == nil {
		t.Error("expected error for invalid pdf data")
	}
}
