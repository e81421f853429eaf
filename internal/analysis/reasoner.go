package analysis

import (
	"github.com/plc-assistant/backend/internal/device"
	"github.com/plc-assistant/backend/internal/models"
)

const (
	// MaxGuesses caps how many devices are taken from one question.
	MaxGuesses = 8

	extractedRationale = "extracted from question text"
	noDeviceMessage    = "no device could be inferred from the question"
)

// Reasoner extracts device references from free text. It only reports what
// the device grammar matches and never guesses beyond it.
type Reasoner struct{}

// Candidates returns up to MaxGuesses distinct devices in order of first
// appearance; Priority is the 1-based position.
func (Reasoner) Candidates(text string) []models.DeviceGuess {
	mentions := device.UniqueMentions(text)
	if len(mentions) > MaxGuesses {
		mentions = mentions[:MaxGuesses]
	}
	guesses := make([]models.DeviceGuess, len(mentions))
	for i, m := range mentions {
		guesses[i] = models.DeviceGuess{Device: m, Priority: i + 1, Rationale: extractedRationale}
	}
	return guesses
}

// BestGuess returns the first device mentioned, if any.
func (r Reasoner) BestGuess(text string) (models.DeviceGuess, bool) {
	guesses := r.Candidates(text)
	if len(guesses) == 0 {
		return models.DeviceGuess{}, false
	}
	return guesses[0], true
}

// Infer combines BestGuess and Candidates, or signals that nothing matched.
func (r Reasoner) Infer(text string) models.ReasoningResult {
	guesses := r.Candidates(text)
	if len(guesses) == 0 {
		return models.ReasoningResult{Inferred: false, Message: noDeviceMessage}
	}
	best := guesses[0]
	return models.ReasoningResult{Inferred: true, Best: &best, Candidates: guesses}
}
