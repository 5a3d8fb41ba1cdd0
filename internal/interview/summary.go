package interview

import (
	"math"

	"github.com/spigell/interview-trainer/internal/storage"
)

// Averages are mean scores over the responses of a session, rounded to one
// decimal place.
type Averages struct {
	Overall      float64 `json:"overall"`
	Speech       float64 `json:"speech"`
	Content      float64 `json:"content"`
	Confidence   float64 `json:"confidence"`
	BodyLanguage float64 `json:"body_language"`
}

type Summary struct {
	Session   storage.Session `json:"session"`
	Responses int             `json:"responses"`
	Averages  Averages        `json:"averages"`
}

// Summarize averages the scores of responses. No responses yield zeros.
func Summarize(responses []storage.Response) *Summary {
	summary := &Summary{Responses: len(responses)}
	if len(responses) == 0 {
		return summary
	}

	var total Averages
	for _, r := range responses {
		ev := r.Evaluation
		total.Overall += float64(ev.OverallScore)
		total.Speech += float64(ev.SpeechScore)
		total.Content += float64(ev.ContentScore)
		total.Confidence += float64(ev.ConfidenceScore)
		total.BodyLanguage += float64(ev.BodyLanguageScore)
	}

	n := float64(len(responses))
	summary.Averages = Averages{
		Overall:      round1(total.Overall / n),
		Speech:       round1(total.Speech / n),
		Content:      round1(total.Content / n),
		Confidence:   round1(total.Confidence / n),
		BodyLanguage: round1(total.BodyLanguage / n),
	}
	return summary
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
