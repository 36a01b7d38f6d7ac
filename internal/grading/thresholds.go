package grading

// Grade is an integer score from 0 to 5.
type Grade int

const (
	MinGrade Grade = 0
	MaxGrade Grade = 5
)

// Threshold maps a minimum score to the grade it earns.
type Threshold struct {
	Min   float64
	Grade Grade
}

// ThresholdTable is evaluated highest to lowest; the first entry whose Min
// is satisfied wins. Scores below every entry earn MinGrade.
type ThresholdTable []Threshold

// Grade returns the grade for score.
func (t ThresholdTable) Grade(score float64) Grade {
	for _, th := range t {
		if score >= th.Min {
			return th.Grade
		}
	}
	return MinGrade
}

var (
	// LexicalThresholds grade the fraction of reference tokens found in the
	// student answer.
	LexicalThresholds = ThresholdTable{
		{Min: 0.90, Grade: 5},
		{Min: 0.66, Grade: 4},
		{Min: 0.50, Grade: 3},
		{Min: 0.33, Grade: 2},
		{Min: 0.15, Grade: 1},
		{Min: 0.0, Grade: 0},
	}

	// SemanticThresholds grade the sentence similarity used when there is no
	// lexical overlap at all.
	SemanticThresholds = ThresholdTable{
		{Min: 0.80, Grade: 5},
		{Min: 0.65, Grade: 4},
		{Min: 0.50, Grade: 3},
		{Min: 0.35, Grade: 2},
		{Min: 0.20, Grade: 1},
		{Min: 0.0, Grade: 0},
	}
)

// LexicalGrade maps an overlap ratio to a grade.
func LexicalGrade(ratio float64) Grade {
	return LexicalThresholds.Grade(ratio)
}

// SemanticGrade maps a similarity in [0,1] to a grade.
func SemanticGrade(sim float64) Grade {
	return SemanticThresholds.Grade(sim)
}
