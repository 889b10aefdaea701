package composer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/liquidbooks/liquidbooks/internal/dossier"
	"github.com/liquidbooks/liquidbooks/internal/psych"
	"github.com/liquidbooks/liquidbooks/internal/tone"
)

func fillAnswers(prefix string, n, v int) psych.AnswerMap {
	m := make(psych.AnswerMap, n)
	for i := 1; i <= n; i++ {
		m[fmt.Sprintf("%s_%d", prefix, i)] = v
	}
	return m
}

func compileFor(p psych.Profile) string {
	return Compile(p, dossier.Generate(p))
}

func TestCompile_SectionOrder(t *testing.T) {
	out := compileFor(psych.Profile{})

	headers := []string{
		"# Author Identity",
		"## Voice",
		"## Tone Calibration",
		"## Strengths",
		"## Quirks",
		"## Writing Instructions",
	}
	last := -1
	for _, h := range headers {
		idx := strings.Index(out, h)
		if idx < 0 {
			t.Fatalf("missing section header %q", h)
		}
		if idx < last {
			t.Errorf("section %q out of order", h)
		}
		last = idx
	}
}

func TestCompile_InterpolatesDossierVerbatim(t *testing.T) {
	p := psych.Profile{
		psych.InstrumentBigFive: fillAnswers("ocean", 35, 6),
		psych.InstrumentDISC:    fillAnswers("disc", 8, 5),
	}
	d := dossier.Generate(p)
	out := Compile(p, d)

	for _, field := range []string{d.Summary, d.WritingVoice, d.CommunicationStyle, d.ThinkingStyle} {
		if !strings.Contains(out, field) {
			t.Errorf("prompt missing verbatim dossier field %q", field)
		}
	}
	for _, tr := range d.CoreTraits {
		if !strings.Contains(out, "- "+tr) {
			t.Errorf("prompt missing core trait %q", tr)
		}
	}
}

func TestCompile_ToneLabels(t *testing.T) {
	cases := []struct {
		formality int
		want      string
	}{
		{90, "highly formal"},
		{60, "moderately formal"},
		{30, "casual"},
	}
	for _, c := range cases {
		axes := toneAxes(tone.Profile{Formality: c.formality})
		if axes[0].label != c.want {
			t.Errorf("formality %d → label %q, want %q", c.formality, axes[0].label, c.want)
		}
	}
}

func TestCompile_AllAxesListed(t *testing.T) {
	out := compileFor(psych.Profile{})
	for _, name := range []string{
		"Formality", "Warmth", "Humor", "Authority", "Empathy",
		"Directness", "Complexity", "Creativity", "Emotionality", "Assertiveness",
	} {
		if !strings.Contains(out, "- "+name+": ") {
			t.Errorf("tone calibration missing axis %s", name)
		}
	}
}

func TestCompile_NumberedInstructions(t *testing.T) {
	out := compileFor(psych.Profile{})
	if !strings.Contains(out, "1. Write every passage in the voice described above") {
		t.Error("first instruction missing or unnumbered")
	}
	// Neutral profile: no threshold-driven instructions, three fixed ones.
	if !strings.Contains(out, "3. Stay consistent with this profile") {
		t.Errorf("closing instruction misnumbered:\n%s", out)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	p := psych.Profile{
		psych.InstrumentBigFive:      fillAnswers("ocean", 35, 7),
		psych.InstrumentWritingPrefs: fillAnswers("wp", 17, 6),
	}
	if a, b := compileFor(p), compileFor(p); a != b {
		t.Error("same inputs produced different prompts")
	}
}
