// Package twin assembles the digital twin: the persisted aggregate of a
// user's dossier, tone profile, and recommended author styles.
package twin

import (
	"time"

	"github.com/google/uuid"

	"github.com/liquidbooks/liquidbooks/internal/composer"
	"github.com/liquidbooks/liquidbooks/internal/dossier"
	"github.com/liquidbooks/liquidbooks/internal/psych"
	"github.com/liquidbooks/liquidbooks/internal/styles"
	"github.com/liquidbooks/liquidbooks/internal/tone"
)

// Twin is one complete snapshot of a user's writing voice. It is regenerated
// wholesale from the psychometric profile; there is no incremental update
// path, so two builds from the same profile differ only in ID and timestamps.
type Twin struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Name              string          `json:"name"`
	Dossier           dossier.Dossier `json:"dossier"`
	Tone              tone.Profile    `json:"toneProfile"`
	RecommendedStyles []string        `json:"recommendedStyles"`
	Completion        int             `json:"completionPercentage"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Build composes the aggregators, synthesizer, dossier generator, and style
// recommender into a fresh twin. The completion percentage is supplied by the
// caller; Build computes nothing from it.
func Build(userID, name string, p psych.Profile, completion int) Twin {
	d := dossier.Generate(p)
	now := time.Now().UTC()
	return Twin{
		ID:                uuid.New().String(),
		UserID:            userID,
		Name:              name,
		Dossier:           d,
		Tone:              d.Tone,
		RecommendedStyles: styles.Recommend(d.Tone),
		Completion:        completion,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// VoicePrompt compiles the twin's generation prompt from a profile snapshot.
func VoicePrompt(p psych.Profile) string {
	return composer.Compile(p, dossier.Generate(p))
}
