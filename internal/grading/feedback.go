package grading

const (
	MissingInputFeedback = "Please provide both reference and student answers."
	NoRelationFeedback   = "No relation detected."
)

var feedback = map[Grade]string{
	5: "Excellent — highly relevant and complete.",
	4: "Very good — mostly relevant.",
	3: "Good — some relevant points present.",
	2: "Fair — partial relevance.",
	1: "Poor — minimally relevant.",
	0: NoRelationFeedback,
}

// FeedbackFor returns the fixed feedback line for grade, or "" for a grade
// outside 0..5.
func FeedbackFor(grade Grade) string {
	return feedback[grade]
}
