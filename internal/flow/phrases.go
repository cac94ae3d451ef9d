package flow

// Reply text used by the dialogue engine.
const (
	MsgEmptyAnswer     = "Could you share a response so I can keep going?"
	MsgEmptyFollowUp   = "Could you share a quick detail for the follow-up?"
	MsgAlreadyDone     = "We already wrapped up the survey. If you’d like to add more feedback, just share it now."
	MsgRatingRange     = "Please enter a number between %d and %d."
	MsgChoiceOptions   = "Please pick one of the options: %s."
	FollowUpLowRating  = "Sorry to hear that. Could you share a quick detail on what influenced your rating?"
	FollowUpMidRating  = "Thanks! What would make it a bit better for you?"
	FollowUpHighRating = "Great to hear! What stands out as working well?"
)

// Rating buckets: values up to LowRatingMax get the low prompt, up to
// MidRatingMax the mid prompt, anything higher the high prompt.
const (
	LowRatingMax = 6
	MidRatingMax = 8
)

// Encouragements prefix the next question after an accepted answer.
var Encouragements = []string{
	"Appreciate it!",
	"Thanks, that helps.",
	"Got it — thank you!",
	"Thanks for sharing.",
	"Helpful insight, thank you!",
}

// followUpPrompt picks the elaboration prompt for a rating value.
func followUpPrompt(value float64) string {
	switch {
	case value <= LowRatingMax:
		return FollowUpLowRating
	case value <= MidRatingMax:
		return FollowUpMidRating
	default:
		return FollowUpHighRating
	}
}
