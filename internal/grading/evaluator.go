// Package grading scores a free-text student answer against a reference
// answer.
//
// Scoring is lexical first: the fraction of reference tokens found in the
// student answer is mapped to a grade. Only when the two answers share no
// token at all is a semantic comparator consulted, and its similarity is
// mapped through a separate threshold table.
package grading

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/23skdu/miniviva/internal/logger"
	"github.com/23skdu/miniviva/internal/metrics"
)

// Method names the rule that produced a Result.
type Method string

const (
	MethodEmpty       Method = "empty"
	MethodExact       Method = "exact"
	MethodLexical     Method = "lexical"
	MethodSemantic    Method = "semantic"
	MethodUnavailable Method = "unavailable"
)

// Input is one grading request.
type Input struct {
	Reference string `json:"reference_answer"`
	Student   string `json:"student_answer"`
}

// Result is the outcome of grading one answer.
type Result struct {
	Grade             Grade   `json:"score"`
	Feedback          string  `json:"feedback"`
	SimilarityPercent float64 `json:"similarity"`
	Method            Method  `json:"method"`
}

// Option configures an Evaluator.
type Option func(*config)

type config struct {
	cache   SimilarityCache
	timeout time.Duration
}

// WithCache replaces the default in-memory similarity cache.
func WithCache(c SimilarityCache) Option { return func(cfg *config) { cfg.cache = c } }

// WithTimeout bounds each comparator call.
func WithTimeout(d time.Duration) Option { return func(cfg *config) { cfg.timeout = d } }

// Evaluator grades answers. One instance is meant to be shared by the whole
// process so that its similarity cache is reused across requests.
type Evaluator struct {
	semantic *SemanticScorer
}

// NewEvaluator returns an Evaluator that falls back to c when there is no
// lexical overlap. c may be nil.
func NewEvaluator(c Comparator, opts ...Option) *Evaluator {
	cfg := &config{timeout: DefaultTimeout}
	for _, o := range opts {
		o(cfg)
	}
	return &Evaluator{semantic: NewSemanticScorer(c, cfg.cache, cfg.timeout)}
}

// Semantic exposes the fallback scorer.
func (e *Evaluator) Semantic() *SemanticScorer { return e.semantic }

// Evaluate grades student against reference. It never fails: every input
// produces a Result with a grade in 0..5 and a similarity in [0,100].
func (e *Evaluator) Evaluate(ctx context.Context, student, reference string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("evaluation panicked", "panic", r)
			res = Result{Grade: 0, Feedback: NoRelationFeedback, Method: MethodUnavailable}
		}
		metrics.RecordEvaluation(string(res.Method), int(res.Grade))
	}()

	s := strings.TrimSpace(student)
	r := strings.TrimSpace(reference)
	if s == "" || r == "" {
		return Result{Grade: 0, Feedback: MissingInputFeedback, Method: MethodEmpty}
	}

	if lower(s) == lower(r) {
		return Result{Grade: MaxGrade, Feedback: FeedbackFor(MaxGrade), SimilarityPercent: 100, Method: MethodExact}
	}

	if overlap := OverlapRatio(reference, student); overlap > 0 {
		g := LexicalGrade(overlap)
		logger.Log.Debug("lexical overlap", "ratio", overlap, "grade", int(g))
		return Result{Grade: g, Feedback: FeedbackFor(g), SimilarityPercent: percent(overlap), Method: MethodLexical}
	}

	sim, ok := e.semantic.Similarity(ctx, student, reference)
	if !ok {
		return Result{Grade: 0, Feedback: FeedbackFor(0), Method: MethodUnavailable}
	}
	g := SemanticGrade(sim)
	logger.Log.Debug("semantic similarity", "similarity", sim, "grade", int(g))
	return Result{Grade: g, Feedback: FeedbackFor(g), SimilarityPercent: percent(sim), Method: MethodSemantic}
}

// percent scales a [0,1] score to a percentage rounded to two decimals.
func percent(x float64) float64 {
	return math.Round(x*100*100) / 100
}
