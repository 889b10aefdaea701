// Package dossier renders trait scores and a tone profile into the
// natural-language personality report shown to the author.
//
// All prose is threshold-driven template selection: ordered rule tables
// evaluated against trait and tone scores, no free generation. The same
// inputs always produce the same dossier, byte for byte.
package dossier

import (
	"fmt"
	"strings"

	"github.com/liquidbooks/liquidbooks/internal/psych"
	"github.com/liquidbooks/liquidbooks/internal/tone"
)

// Dossier is the generated personality/writing-voice report. Built fresh on
// every call; never partially updated.
type Dossier struct {
	Summary              string       `json:"summary"`
	CoreTraits           []string     `json:"coreTraits"`
	ThinkingStyle        string       `json:"thinkingStyle"`
	CommunicationStyle   string       `json:"communicationStyle"`
	EmotionalProfile     string       `json:"emotionalProfile"`
	ValuesAndMotivations string       `json:"valuesAndMotivations"`
	CreativeTendencies   string       `json:"creativeTendencies"`
	WritingVoice         string       `json:"writingVoice"`
	StrengthsAsWriter    []string     `json:"strengthsAsWriter"`
	UniqueQuirks         []string     `json:"uniqueQuirks"`
	RecommendedGenres    []string     `json:"recommendedGenres"`
	Tone                 tone.Profile `json:"toneProfile"`
}

const maxGenres = 6

// emptyProfileSummary is used when none of the summary's source instruments
// are present at all.
const emptyProfileSummary = "Your writing profile is still being built. " +
	"Complete the questionnaire to unlock a full portrait of your authorial voice."

// Generate builds the dossier from a psychometric profile. It is total: every
// branch has a default arm, so even an empty profile yields a fully populated
// dossier.
func Generate(p psych.Profile) Dossier {
	b5 := psych.ComputeBigFive(p)
	disc := psych.ComputeDISC(p)
	eq := psych.ComputeEQ(p)
	wp := psych.ComputeWritingPrefs(p)
	t := tone.FromAnswers(p)

	return Dossier{
		Summary:              summary(p, b5, disc, eq),
		CoreTraits:           coreTraits(b5),
		ThinkingStyle:        thinkingStyle(p),
		CommunicationStyle:   discStyles[disc.Primary],
		EmotionalProfile:     emotionalProfile(eq),
		ValuesAndMotivations: valuesAndMotivations(b5, disc),
		CreativeTendencies:   creativeTendencies(t),
		WritingVoice:         writingVoice(wp, t),
		StrengthsAsWriter:    strengthsAsWriter(b5, eq, t),
		UniqueQuirks:         uniqueQuirks(b5, eq, wp, t),
		RecommendedGenres:    recommendedGenres(t),
		Tone:                 t,
	}
}

// textRule pairs an already-evaluated predicate with the text it contributes.
// Rules run in declaration order so list output is stable.
type textRule struct {
	ok   bool
	text string
}

func collect(rules []textRule) []string {
	var out []string
	for _, r := range rules {
		if r.ok {
			out = append(out, r.text)
		}
	}
	return out
}

func summary(p psych.Profile, b5 psych.BigFive, disc psych.DISC, eq psych.EQ) string {
	if p[psych.InstrumentBigFive] == nil && p[psych.InstrumentDISC] == nil && p[psych.InstrumentEQ] == nil {
		return emptyProfileSummary
	}
	article := "A"
	if startsWithVowel(b5.Dominant()) {
		article = "An"
	}
	s := fmt.Sprintf("%s %s, %s writer", article, b5.Dominant(), discAdjectives[disc.Primary])
	if eq.Overall > 60 {
		s += " with strong emotional intelligence"
	}
	return s + "."
}

func startsWithVowel(s string) bool {
	return s != "" && strings.ContainsRune("aeiou", rune(s[0]))
}

// tiered picks one of three phrases by the high/moderate thresholds.
func tiered(score int, high, moderate, low string) string {
	switch {
	case score > psych.HighThreshold:
		return high
	case score > psych.ModerateThreshold:
		return moderate
	default:
		return low
	}
}

func coreTraits(b5 psych.BigFive) []string {
	return []string{
		tiered(b5.Openness,
			"Highly creative and imaginative",
			"Open to new ideas",
			"Practical and grounded"),
		tiered(b5.Conscientiousness,
			"Exceptionally organized and disciplined",
			"Reliable and structured",
			"Flexible and spontaneous"),
		tiered(b5.Extraversion,
			"Energetic and outgoing",
			"Socially comfortable",
			"Reflective and reserved"),
		tiered(b5.Agreeableness,
			"Deeply compassionate and cooperative",
			"Warm and considerate",
			"Direct and independent-minded"),
		tiered(b5.Neuroticism,
			"Emotionally intense and sensitive",
			"Emotionally responsive",
			"Calm and emotionally steady"),
	}
}

const defaultThinkingStyle = "A balanced thinker who adapts their approach to the problem at hand."

func thinkingStyle(p psych.Profile) string {
	cs := p[psych.InstrumentCognitiveStyle]
	if len(cs) == 0 {
		return defaultThinkingStyle
	}

	var sb strings.Builder
	sb.WriteString("Approaches problems ")
	if cs.Answer("cog_1") > psych.ScaleMidpoint {
		sb.WriteString("analytically, breaking them into parts")
	} else {
		sb.WriteString("intuitively, trusting pattern and instinct")
	}
	if cs.Answer("cog_2") > psych.ScaleMidpoint {
		sb.WriteString(", seeing the big picture before the details")
	} else {
		sb.WriteString(", building from concrete details toward the whole")
	}
	if cs.Answer("cog_3") > psych.ScaleMidpoint {
		sb.WriteString(", often thinking in images and spatial relationships")
	}
	if cs.Answer("cog_8") > psych.ScaleMidpoint {
		sb.WriteString(", and preferring to reflect before responding")
	}
	sb.WriteString(".")
	return sb.String()
}

// discStyles maps the primary DISC letter to a communication paragraph.
var discStyles = map[string]string{
	"D": "Direct and results-oriented. Communicates with confidence, gets to the point quickly, and values brevity over ceremony.",
	"I": "Enthusiastic and persuasive. Communicates with energy and warmth, telling stories and building rapport naturally.",
	"S": "Patient and supportive. Communicates steadily and thoughtfully, listening carefully and seeking common ground.",
	"C": "Precise and analytical. Communicates with attention to accuracy, detail, and logical structure.",
}

// discAdjectives maps the primary DISC letter to the summary adjective.
var discAdjectives = map[string]string{
	"D": "decisive",
	"I": "expressive",
	"S": "steady",
	"C": "precise",
}

func emotionalProfile(eq psych.EQ) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Emotional intelligence score: %d%%.", eq.Overall)
	if eq.SelfAwareness > psych.HighThreshold {
		sb.WriteString(" Highly self-aware, writing with an honest understanding of their own inner life.")
	}
	if eq.Empathy > psych.HighThreshold {
		sb.WriteString(" Deeply empathetic, able to inhabit other perspectives with ease.")
	}
	if eq.SelfRegulation > psych.HighThreshold {
		sb.WriteString(" Emotionally disciplined, keeping a steady voice even in charged material.")
	}
	if eq.SocialSkills > psych.HighThreshold {
		sb.WriteString(" Socially attuned, with a natural ear for dialogue and interpersonal dynamics.")
	}
	return sb.String()
}

func valuesAndMotivations(b5 psych.BigFive, disc psych.DISC) string {
	parts := collect([]textRule{
		{b5.Conscientiousness > psych.HighThreshold, "mastery and the satisfaction of work done properly"},
		{b5.Agreeableness > psych.HighThreshold, "connection and being of use to others"},
		{b5.Openness > psych.HighThreshold, "novelty, ideas, and creative exploration"},
		{disc.Dominance > psych.HighThreshold, "ambition and the drive to leave a mark"},
	})
	if len(parts) == 0 {
		return "Motivated by a balance of curiosity, craft, and connection."
	}
	return "Motivated by " + joinPhrases(parts) + "."
}

func joinPhrases(parts []string) string {
	switch len(parts) {
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}

func creativeTendencies(t tone.Profile) string {
	return tiered(t.Creativity,
		"A strongly original creative voice that reaches for unexpected angles and fresh imagery.",
		"A creative voice that balances invention with familiar, reliable forms.",
		"A craft-first voice that favors clarity and convention over experimentation.")
}

func writingVoice(wp psych.WritingPrefs, t tone.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Writes in %s sentences with %s vocabulary.", wp.SentenceLength, wp.VocabularyLevel)
	if wp.UsesMetaphors {
		sb.WriteString(" Leans on metaphor and imagery to carry meaning.")
	}
	sb.WriteString(" ")
	sb.WriteString(tiered(t.Formality,
		"The register is polished and formal.",
		"The register is professional but approachable.",
		"The register is relaxed and conversational."))
	return sb.String()
}

func strengthsAsWriter(b5 psych.BigFive, eq psych.EQ, t tone.Profile) []string {
	out := collect([]textRule{
		{b5.Openness > psych.HighThreshold, "Vivid imagination and original ideas"},
		{b5.Conscientiousness > psych.HighThreshold, "Disciplined drafting and consistent structure"},
		{eq.Empathy > psych.HighThreshold, "Emotionally resonant characters"},
		{t.Humor > psych.HighThreshold, "A natural sense of comic timing"},
		{t.Complexity > psych.HighThreshold, "Comfort with layered, nuanced arguments"},
		{t.Directness > psych.HighThreshold, "Clean, unambiguous prose"},
		{t.Creativity > psych.HighThreshold, "Striking metaphors and imagery"},
	})
	if len(out) == 0 {
		out = []string{"A distinctive personal voice still taking shape"}
	}
	return out
}

func uniqueQuirks(b5 psych.BigFive, eq psych.EQ, wp psych.WritingPrefs, t tone.Profile) []string {
	return collect([]textRule{
		{wp.UsesMetaphors, "Reaches for metaphor even in expository passages"},
		{t.Humor > psych.HighThreshold && t.Formality > psych.HighThreshold, "Deadpan wit delivered in a formal register"},
		{b5.Neuroticism > psych.HighThreshold, "Writes with restless, searching energy"},
		{t.Directness > psych.HighThreshold && eq.Empathy > psych.HighThreshold, "Blunt honesty softened by genuine warmth"},
		{wp.SentenceLength == psych.SentenceShort && t.Complexity > psych.HighThreshold, "Compresses complex ideas into very short sentences"},
	})
}

func recommendedGenres(t tone.Profile) []string {
	candidates := collect([]textRule{
		{t.Creativity > psych.HighThreshold, "speculative fiction"},
		{t.Creativity > psych.HighThreshold, "magical realism"},
		{t.Complexity > psych.HighThreshold, "literary fiction"},
		{t.Humor > psych.HighThreshold, "comedic essays"},
		{t.Humor > psych.HighThreshold, "satire"},
		{t.Authority > psych.HighThreshold, "narrative nonfiction"},
		{t.Empathy > psych.HighThreshold, "literary fiction"},
		{t.Empathy > psych.HighThreshold, "memoir"},
		{t.Emotionality > psych.HighThreshold, "memoir"},
		{t.Emotionality > psych.HighThreshold, "poetry"},
		{t.Directness > psych.HighThreshold, "thrillers"},
		{t.Warmth > psych.HighThreshold, "contemporary romance"},
	})
	if len(candidates) == 0 {
		candidates = []string{"general fiction", "personal essays"}
	}
	// Dedup preserving encounter order, then cap.
	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, g := range candidates {
		if seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
		if len(out) == maxGenres {
			break
		}
	}
	return out
}
