// Package tone projects trait scores into the ten-axis tone profile that
// drives writing-voice calibration.
//
// The axis weights are a fixed contract: downstream genre and author-style
// thresholds were tuned against them, so changing a weight is a breaking
// change to every consumer of the profile.
package tone

import (
	"math"

	"github.com/liquidbooks/liquidbooks/internal/psych"
)

// Profile is the ten-axis tone summary, each axis on a 0–100 scale. The field
// set is a stable contract; do not add or remove axes without a version bump.
type Profile struct {
	Formality     int `json:"formality"`
	Warmth        int `json:"warmth"`
	Humor         int `json:"humor"`
	Authority     int `json:"authority"`
	Empathy       int `json:"empathy"`
	Directness    int `json:"directness"`
	Complexity    int `json:"complexity"`
	Creativity    int `json:"creativity"`
	Emotionality  int `json:"emotionality"`
	Assertiveness int `json:"assertiveness"`
}

// FromAnswers synthesizes the tone profile from a psychometric profile.
//
// Each axis is a fixed weighted sum of trait scores. Instruments absent from
// the profile contribute the neutral score of 50 through the aggregators'
// default-fill, so partial profiles degrade toward the midpoint instead of
// collapsing to zero.
func FromAnswers(p psych.Profile) Profile {
	b5 := psych.ComputeBigFive(p)
	disc := psych.ComputeDISC(p)
	eq := psych.ComputeEQ(p)
	wp := psych.ComputeWritingPrefs(p)

	// Single writing-preference answers feed several axes directly,
	// rescaled from the raw 1–7 response.
	scaled := func(id string) float64 {
		return float64(p.ScaledAnswer(psych.InstrumentWritingPrefs, id))
	}

	return Profile{
		Formality:     mix(0.6, float64(wp.Formality), 0.4, float64(b5.Conscientiousness)),
		Warmth:        mix3(0.4, float64(b5.Agreeableness), 0.4, float64(eq.Empathy), 0.2, scaled("wp_8")),
		Humor:         mix3(0.6, scaled("wp_6"), 0.2, float64(b5.Openness), 0.2, float64(b5.Extraversion)),
		Authority:     mix3(0.5, float64(disc.Dominance), 0.3, float64(b5.Conscientiousness), 0.2, scaled("wp_17")),
		Empathy:       mix3(0.5, float64(eq.Empathy), 0.3, float64(b5.Agreeableness), 0.2, float64(eq.SocialSkills)),
		Directness:    mix3(0.4, float64(disc.Dominance), 0.3, scaled("wp_1"), 0.3, float64(100-b5.Agreeableness)),
		Complexity:    mix3(0.4, scaled("wp_2"), 0.3, scaled("wp_12"), 0.3, float64(b5.Openness)),
		Creativity:    mix(0.5, float64(psych.CreativityMean(p)), 0.5, float64(b5.Openness)),
		Emotionality:  mix3(0.3, float64(b5.Neuroticism), 0.3, float64(eq.SelfAwareness), 0.4, scaled("wp_16")),
		Assertiveness: mix3(0.4, float64(b5.Extraversion), 0.4, float64(disc.Dominance), 0.2, float64(disc.Influence)),
	}
}

func mix(w1, v1, w2, v2 float64) int {
	return int(math.Round(w1*v1 + w2*v2))
}

func mix3(w1, v1, w2, v2, w3, v3 float64) int {
	return int(math.Round(w1*v1 + w2*v2 + w3*v3))
}
