package flow

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/BTreeMap/PulseBot/internal/models"
)

// Question ids the closing summary quotes.
const (
	HighlightQuestionID   = "favorite"
	ImprovementQuestionID = "improve"
)

const (
	summaryPreamble        = "All done — thanks for your time! Here’s a quick summary:"
	summaryClosing         = "If you’d like to add anything else, just type it here."
	noRatingPlaceholder    = "N/A"
	noHighlightPlaceholder = "(no highlight shared)"
	noImprovePlaceholder   = "(no improvement shared)"
)

// Progress reports answered questions against the questionnaire length.
func Progress(s *models.Session, q *models.Questionnaire) models.Progress {
	total := q.Len()
	answered := min(s.QuestionIndex, total)
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(answered) / float64(total) * 100))
	}
	return models.Progress{Answered: answered, Total: total, Percent: percent}
}

// AverageRating returns the mean of all rating responses rounded to one
// decimal place, or false when there are none.
func AverageRating(responses []models.Response) (float64, bool) {
	var ratings stats.Float64Data
	for _, r := range responses {
		if v, ok := r.Rating(); ok {
			ratings = append(ratings, v)
		}
	}
	if len(ratings) == 0 {
		return 0, false
	}
	mean, err := stats.Mean(ratings)
	if err != nil {
		return 0, false
	}
	rounded, err := stats.Round(mean, 1)
	if err != nil {
		return 0, false
	}
	return rounded, true
}

// Summary renders the closing message for a completed session.
func Summary(responses []models.Response) string {
	average := noRatingPlaceholder
	if avg, ok := AverageRating(responses); ok {
		average = formatNumber(avg)
	}
	highlight := firstAnswer(responses, HighlightQuestionID, noHighlightPlaceholder)
	improvement := firstAnswer(responses, ImprovementQuestionID, noImprovePlaceholder)

	var b strings.Builder
	b.WriteString(summaryPreamble + "\n")
	fmt.Fprintf(&b, "• Average rating: %s\n", average)
	fmt.Fprintf(&b, "• Highlight: %s\n", highlight)
	fmt.Fprintf(&b, "• Improvement: %s\n\n", improvement)
	b.WriteString(summaryClosing)
	return b.String()
}

func firstAnswer(responses []models.Response, id, placeholder string) string {
	for _, r := range responses {
		if r.ID != id {
			continue
		}
		if s, ok := r.Text(); ok {
			if s == "" {
				return placeholder
			}
			return s
		}
		if r.Value != nil {
			return fmt.Sprint(r.Value)
		}
		return placeholder
	}
	return placeholder
}

// formatNumber prints v without trailing zeros: 9 -> "9", 7.5 -> "7.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
