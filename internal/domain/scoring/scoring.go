// Package scoring holds the study effectiveness weights.
//
// Each subject earns a fixed amount of effectiveness per hour studied. The
// weights are part of the model, not configuration.
package scoring

import "github.com/okian/studyplan/internal/domain/model"

// Per-hour effectiveness of each subject.
const (
	PhysicsWeight   = 2
	ChemistryWeight = 3
	BiologyWeight   = 2
	MathWeight      = 4
)

// Weights returns the per-hour weights indexed by subject.
func Weights() model.Hours {
	return model.Hours{PhysicsWeight, ChemistryWeight, BiologyWeight, MathWeight}
}

// Weight returns the per-hour weight of s.
func Weight(s model.Subject) float64 {
	return Weights().Of(s)
}

// Effectiveness returns the weighted sum of hours.
func Effectiveness(h model.Hours) float64 {
	w := Weights()
	var score float64
	for _, s := range model.Subjects() {
		score += w.Of(s) * h.Of(s)
	}
	return score
}
