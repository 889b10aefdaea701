// Package composer serializes a dossier and tone profile into the single
// instruction block that steers downstream chapter generation.
//
// Section order is a contract: consumers may parse the output by heading, so
// identity must precede voice, voice precede tone calibration, and so on.
package composer

import (
	"fmt"
	"strings"

	"github.com/liquidbooks/liquidbooks/internal/dossier"
	"github.com/liquidbooks/liquidbooks/internal/psych"
	"github.com/liquidbooks/liquidbooks/internal/tone"
)

// promptMidThreshold is the middle tier for the prompt's qualitative axis
// labels. It sits below the dossier's moderate threshold.
const promptMidThreshold = 40

// Compile renders the dossier into the long-form system prompt. Pure string
// templating: fixed headers, dossier fields interpolated verbatim, per-axis
// labels chosen by threshold. Output is deterministic for identical inputs.
func Compile(p psych.Profile, d dossier.Dossier) string {
	var sb strings.Builder

	sb.WriteString("# Author Identity\n\n")
	sb.WriteString(d.Summary)
	sb.WriteString("\n\nCore traits:\n")
	for _, t := range d.CoreTraits {
		fmt.Fprintf(&sb, "- %s\n", t)
	}

	sb.WriteString("\n## Voice\n\n")
	fmt.Fprintf(&sb, "Writing voice: %s\n", d.WritingVoice)
	fmt.Fprintf(&sb, "Communication style: %s\n", d.CommunicationStyle)
	fmt.Fprintf(&sb, "Thinking style: %s\n", d.ThinkingStyle)
	fmt.Fprintf(&sb, "Emotional profile: %s\n", d.EmotionalProfile)
	fmt.Fprintf(&sb, "Values: %s\n", d.ValuesAndMotivations)
	fmt.Fprintf(&sb, "Creative tendencies: %s\n", d.CreativeTendencies)

	sb.WriteString("\n## Tone Calibration\n\n")
	for _, ax := range toneAxes(d.Tone) {
		fmt.Fprintf(&sb, "- %s: %d/100 (%s)\n", ax.name, ax.score, ax.label)
	}

	sb.WriteString("\n## Strengths\n\n")
	for _, s := range d.StrengthsAsWriter {
		fmt.Fprintf(&sb, "- %s\n", s)
	}

	sb.WriteString("\n## Quirks\n\n")
	if len(d.UniqueQuirks) == 0 {
		sb.WriteString("- None noted\n")
	}
	for _, q := range d.UniqueQuirks {
		fmt.Fprintf(&sb, "- %s\n", q)
	}

	sb.WriteString("\n## Writing Instructions\n\n")
	for i, inst := range instructions(d.Tone) {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, inst)
	}

	return sb.String()
}

type axis struct {
	name  string
	score int
	label string
}

func toneAxes(t tone.Profile) []axis {
	mk := func(name string, score int, high, mid, low string) axis {
		label := low
		switch {
		case score > psych.HighThreshold:
			label = high
		case score > promptMidThreshold:
			label = mid
		}
		return axis{name: name, score: score, label: label}
	}
	return []axis{
		mk("Formality", t.Formality, "highly formal", "moderately formal", "casual"),
		mk("Warmth", t.Warmth, "very warm", "moderately warm", "cool and detached"),
		mk("Humor", t.Humor, "frequently humorous", "occasionally humorous", "serious"),
		mk("Authority", t.Authority, "commanding", "confident", "tentative"),
		mk("Empathy", t.Empathy, "deeply empathetic", "understanding", "objective"),
		mk("Directness", t.Directness, "blunt", "straightforward", "diplomatic"),
		mk("Complexity", t.Complexity, "intellectually dense", "layered", "simple and clear"),
		mk("Creativity", t.Creativity, "highly inventive", "imaginative", "conventional"),
		mk("Emotionality", t.Emotionality, "emotionally charged", "emotionally present", "even-keeled"),
		mk("Assertiveness", t.Assertiveness, "forceful", "self-assured", "gentle"),
	}
}

// instructions builds the numbered closing directives. The first and last
// entries are fixed; the middle entries are threshold-driven so the list
// always reflects the profile's strongest signals.
func instructions(t tone.Profile) []string {
	out := []string{
		"Write every passage in the voice described above; never drift into a generic register.",
	}
	if t.Formality > psych.HighThreshold {
		out = append(out, "Maintain a polished, formal register; avoid slang and contractions.")
	} else if t.Formality <= promptMidThreshold {
		out = append(out, "Keep the register relaxed and conversational; contractions are welcome.")
	}
	if t.Humor > psych.HighThreshold {
		out = append(out, "Let humor surface naturally; favor wit over jokes.")
	}
	if t.Directness > psych.HighThreshold {
		out = append(out, "State things plainly; do not hedge or pad.")
	}
	if t.Complexity > psych.HighThreshold {
		out = append(out, "Trust the reader with layered ideas, but resolve each thread.")
	} else if t.Complexity <= promptMidThreshold {
		out = append(out, "Keep sentences and arguments simple; one idea at a time.")
	}
	if t.Emotionality > psych.HighThreshold {
		out = append(out, "Lead with feeling; let emotion drive scene and rhythm.")
	}
	out = append(out,
		"Match the tone calibration table when choosing vocabulary, sentence length, and pacing.",
		"Stay consistent with this profile across chapters; the voice is the product.",
	)
	return out
}
