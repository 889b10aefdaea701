// Package psych turns raw questionnaire answers into named trait scores.
//
// Every aggregation here is a pure function of an answer map: no I/O, no
// state, no failure modes. Missing answers default to the scale midpoint and
// missing instruments degrade to neutral scores, so even an empty profile
// produces a well-defined result.
package psych

import "math"

// Likert answers live on a 1–7 scale. An unanswered question counts as the
// midpoint so partial questionnaires don't skew scores toward an extreme.
const (
	ScaleMin      = 1
	ScaleMax      = 7
	ScaleMidpoint = 4
)

// NeutralScore is the 0–100 score an entirely absent instrument resolves to.
// It equals the rescaled midpoint: ((4-1)/6)*100 = 50.
const NeutralScore = 50

// Shared score thresholds used by the dossier templates. Recalibration
// happens here, in one place.
const (
	HighThreshold     = 70
	ModerateThreshold = 50
)

// Instrument names as they appear in profile keys. Several free-text
// instruments (writing samples, life context) also live under a profile but
// are not consumed numerically by this package.
const (
	InstrumentBigFive        = "big_five"
	InstrumentCognitiveStyle = "cognitive_style"
	InstrumentEQ             = "emotional_intelligence"
	InstrumentDISC           = "disc_profile"
	InstrumentValues         = "values_motivations"
	InstrumentStrengths      = "character_strengths"
	InstrumentEnneagram      = "enneagram"
	InstrumentCreativity     = "creativity_profile"
	InstrumentThinkingStyle  = "thinking_style"
	InstrumentWritingPrefs   = "writing_preferences"
	InstrumentReasoning      = "reasoning_patterns"
)

// AnswerMap holds one instrument's responses, keyed by question id
// (e.g. "ocean_14", "wp_6").
type AnswerMap map[string]int

// Answer returns the response for a question id, defaulting missing keys to
// the scale midpoint. Safe on a nil map.
func (m AnswerMap) Answer(id string) int {
	if v, ok := m[id]; ok {
		return v
	}
	return ScaleMidpoint
}

// Profile maps instrument name to that instrument's answers. It is handed to
// the aggregators as a read-only snapshot; nothing here mutates it.
type Profile map[string]AnswerMap

// Answer looks up one question across the profile, applying both levels of
// defaulting: a missing instrument behaves like an empty answer map.
func (p Profile) Answer(instrument, id string) int {
	return p[instrument].Answer(id)
}

// Rescale maps a [1,7] average onto [0,100], rounding half away from zero.
func Rescale(avg float64) int {
	return int(math.Round((avg - 1) / 6 * 100))
}

// ScaleAnswer rescales a single raw answer onto [0,100].
func ScaleAnswer(v int) int {
	return Rescale(float64(v))
}

// ScaledAnswer is ScaleAnswer applied through the profile's default-fill.
func (p Profile) ScaledAnswer(instrument, id string) int {
	return ScaleAnswer(p.Answer(instrument, id))
}

func average(m AnswerMap, ids []string) float64 {
	sum := 0
	for _, id := range ids {
		sum += m.Answer(id)
	}
	return float64(sum) / float64(len(ids))
}

// scaledAverage default-fills, averages, and rescales a question subset.
func scaledAverage(m AnswerMap, ids []string) int {
	return Rescale(average(m, ids))
}
