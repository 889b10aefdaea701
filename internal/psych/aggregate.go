package psych

import "fmt"

// BigFive holds the five OCEAN trait scores on a 0–100 scale.
type BigFive struct {
	Openness          int `json:"openness"`
	Conscientiousness int `json:"conscientiousness"`
	Extraversion      int `json:"extraversion"`
	Agreeableness     int `json:"agreeableness"`
	Neuroticism       int `json:"neuroticism"`
}

// oceanBlock returns the seven question ids for one Big Five trait.
// ocean_1..35 is partitioned into five contiguous blocks of seven:
// Openness 1..7, Conscientiousness 8..14, Extraversion 15..21,
// Agreeableness 22..28, Neuroticism 29..35.
func oceanBlock(start int) []string {
	ids := make([]string, 7)
	for i := range ids {
		ids[i] = fmt.Sprintf("ocean_%d", start+i)
	}
	return ids
}

// ComputeBigFive aggregates the big_five instrument. A missing instrument or
// missing answers resolve to the neutral score of 50.
func ComputeBigFive(p Profile) BigFive {
	m := p[InstrumentBigFive]
	return BigFive{
		Openness:          scaledAverage(m, oceanBlock(1)),
		Conscientiousness: scaledAverage(m, oceanBlock(8)),
		Extraversion:      scaledAverage(m, oceanBlock(15)),
		Agreeableness:     scaledAverage(m, oceanBlock(22)),
		Neuroticism:       scaledAverage(m, oceanBlock(29)),
	}
}

// Dominant returns the label of the highest-scoring trait. Ties resolve to
// the first trait in O, C, E, A, N order.
func (b BigFive) Dominant() string {
	traits := []struct {
		label string
		score int
	}{
		{"imaginative", b.Openness},
		{"disciplined", b.Conscientiousness},
		{"energetic", b.Extraversion},
		{"warm", b.Agreeableness},
		{"emotionally intense", b.Neuroticism},
	}
	best := traits[0]
	for _, t := range traits[1:] {
		if t.score > best.score {
			best = t
		}
	}
	return best.label
}

// DISC holds the four DISC axis scores plus the single-letter primary style.
type DISC struct {
	Dominance         int    `json:"dominance"`
	Influence         int    `json:"influence"`
	Steadiness        int    `json:"steadiness"`
	Conscientiousness int    `json:"conscientiousness"`
	Primary           string `json:"primary"`
}

// ComputeDISC aggregates the disc_profile instrument: two questions per axis.
// Primary is the first axis holding the maximum, tested in D, I, S, C order.
func ComputeDISC(p Profile) DISC {
	m := p[InstrumentDISC]
	d := DISC{
		Dominance:         scaledAverage(m, []string{"disc_1", "disc_2"}),
		Influence:         scaledAverage(m, []string{"disc_3", "disc_4"}),
		Steadiness:        scaledAverage(m, []string{"disc_5", "disc_6"}),
		Conscientiousness: scaledAverage(m, []string{"disc_7", "disc_8"}),
	}
	d.Primary = "D"
	max := d.Dominance
	if d.Influence > max {
		d.Primary, max = "I", d.Influence
	}
	if d.Steadiness > max {
		d.Primary, max = "S", d.Steadiness
	}
	if d.Conscientiousness > max {
		d.Primary = "C"
	}
	return d
}

// EQ holds the emotional-intelligence sub-scores and their unweighted mean.
type EQ struct {
	SelfAwareness  int `json:"selfAwareness"`
	SelfRegulation int `json:"selfRegulation"`
	Empathy        int `json:"empathy"`
	SocialSkills   int `json:"socialSkills"`
	Overall        int `json:"overall"`
}

// ComputeEQ aggregates the emotional_intelligence instrument.
func ComputeEQ(p Profile) EQ {
	m := p[InstrumentEQ]
	eq := EQ{
		SelfAwareness:  scaledAverage(m, []string{"eq_4", "eq_8", "eq_13"}),
		SelfRegulation: scaledAverage(m, []string{"eq_2", "eq_5", "eq_7", "eq_10"}),
		Empathy:        scaledAverage(m, []string{"eq_1", "eq_6", "eq_9", "eq_14"}),
		SocialSkills:   scaledAverage(m, []string{"eq_3", "eq_12", "eq_15"}),
	}
	eq.Overall = roundedMean(eq.SelfAwareness, eq.SelfRegulation, eq.Empathy, eq.SocialSkills)
	return eq
}

func roundedMean(vs ...int) int {
	sum := 0
	for _, v := range vs {
		sum += v
	}
	// Round half away from zero; all inputs are non-negative here.
	return (sum*2 + len(vs)) / (2 * len(vs))
}

// Sentence-length and vocabulary categories for writing preferences.
const (
	SentenceShort   = "short and punchy"
	SentenceFlowing = "flowing and complex"
	VocabSophisticated = "sophisticated"
	VocabAccessible    = "accessible"
)

// WritingPrefs holds the writing_preferences instrument broken out into
// categorical and numeric style markers rather than a single score.
type WritingPrefs struct {
	SentenceLength      string `json:"sentenceLength"`
	VocabularyLevel     string `json:"vocabularyLevel"`
	Formality           int    `json:"formality"`
	DescriptiveLevel    int    `json:"descriptiveLevel"`
	UsesMetaphors       bool   `json:"usesMetaphors"`
	DetailOriented      bool   `json:"detailOriented"`
	UsesHumor           bool   `json:"usesHumor"`
	EmotionalExpression bool   `json:"emotionalExpression"`
	WarmTone            bool   `json:"warmTone"`
}

// ComputeWritingPrefs aggregates the writing_preferences instrument. Boolean
// flags use an "above midpoint" threshold; a missing instrument yields every
// flag false (midpoint is not above midpoint) and neutral numeric fields.
func ComputeWritingPrefs(p Profile) WritingPrefs {
	m := p[InstrumentWritingPrefs]
	wp := WritingPrefs{
		Formality:           ScaleAnswer(m.Answer("wp_3")),
		DescriptiveLevel:    ScaleAnswer(m.Answer("wp_16")),
		UsesMetaphors:       m.Answer("wp_4") > ScaleMidpoint,
		DetailOriented:      m.Answer("wp_5") > ScaleMidpoint,
		UsesHumor:           m.Answer("wp_6") > ScaleMidpoint,
		EmotionalExpression: m.Answer("wp_7") > ScaleMidpoint,
		WarmTone:            m.Answer("wp_8") > ScaleMidpoint,
	}
	if m.Answer("wp_1") > ScaleMidpoint {
		wp.SentenceLength = SentenceShort
	} else {
		wp.SentenceLength = SentenceFlowing
	}
	if m.Answer("wp_2") > ScaleMidpoint {
		wp.VocabularyLevel = VocabSophisticated
	} else {
		wp.VocabularyLevel = VocabAccessible
	}
	return wp
}

// CreativityMean is the rescaled mean of every raw creativity_profile answer.
// Unlike the other aggregates it consumes the whole instrument without named
// sub-traits; the tone synthesizer depends on this exact behavior. Absent or
// empty instruments resolve to the neutral score.
func CreativityMean(p Profile) int {
	m := p[InstrumentCreativity]
	if len(m) == 0 {
		return NeutralScore
	}
	sum := 0
	for _, v := range m {
		sum += v
	}
	return Rescale(float64(sum) / float64(len(m)))
}
