package grading

// OverlapRatio returns the fraction of reference tokens that also appear in
// the student answer. The denominator is the reference token count including
// repeats, so repeated key terms must all be matched to reach 1.
func OverlapRatio(reference, student string) float64 {
	refTokens := Normalize(reference)
	if len(refTokens) == 0 {
		return 0
	}
	studTokens := Normalize(student)
	if len(studTokens) == 0 {
		return 0
	}

	studSet := toSet(studTokens)
	inter := make(map[string]struct{}, len(refTokens))
	for _, t := range refTokens {
		if _, ok := studSet[t]; ok {
			inter[t] = struct{}{}
		}
	}
	return float64(len(inter)) / float64(len(refTokens))
}

func toSet(tokens []string) map[string]struct{} {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
