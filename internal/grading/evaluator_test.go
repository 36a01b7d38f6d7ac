package grading

import (
	"context"
	"errors"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		student   string
		reference string
		semantic  float64
		semErr    error
		want      Result
	}{
		{
			name:      "empty student",
			student:   "   ",
			reference: "Paris",
			want:      Result{Grade: 0, Feedback: MissingInputFeedback, Method: MethodEmpty},
		},
		{
			name:      "empty reference",
			student:   "Paris",
			reference: "",
			want:      Result{Grade: 0, Feedback: MissingInputFeedback, Method: MethodEmpty},
		},
		{
			name:      "exact match ignores case and outer space",
			student:   "  the Capital is PARIS ",
			reference: "The capital is Paris",
			want:      Result{Grade: 5, Feedback: FeedbackFor(5), SimilarityPercent: 100, Method: MethodExact},
		},
		{
			name:      "full lexical overlap",
			student:   "Paris is the capital.",
			reference: "The capital is Paris",
			want:      Result{Grade: 5, Feedback: FeedbackFor(5), SimilarityPercent: 100, Method: MethodLexical},
		},
		{
			name:      "partial lexical overlap",
			student:   "light energy",
			reference: "Photosynthesis converts light energy into chemical energy",
			want:      Result{Grade: 1, Feedback: FeedbackFor(1), SimilarityPercent: 28.57, Method: MethodLexical},
		},
		{
			name:      "two of five reference tokens",
			student:   "water boils",
			reference: "water boils at sea level",
			want:      Result{Grade: 2, Feedback: FeedbackFor(2), SimilarityPercent: 40, Method: MethodLexical},
		},
		{
			name:      "low overlap still lexical",
			student:   "a",
			reference: "a b c d e f g h i j k",
			want:      Result{Grade: 0, Feedback: NoRelationFeedback, SimilarityPercent: 9.09, Method: MethodLexical},
		},
		{
			name:      "semantic fallback",
			student:   "cells make ATP",
			reference: "mitochondria produce energy",
			semantic:  0.7,
			want:      Result{Grade: 4, Feedback: FeedbackFor(4), SimilarityPercent: 70, Method: MethodSemantic},
		},
		{
			name:      "semantic zero",
			student:   "bananas",
			reference: "gravity",
			semantic:  0.05,
			want:      Result{Grade: 0, Feedback: NoRelationFeedback, SimilarityPercent: 5, Method: MethodSemantic},
		},
		{
			name:      "semantic failure",
			student:   "bananas",
			reference: "gravity",
			semErr:    errors.New("offline"),
			want:      Result{Grade: 0, Feedback: NoRelationFeedback, Method: MethodUnavailable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake(tt.semantic)
			fake.err = tt.semErr
			got := NewEvaluator(fake).Evaluate(context.Background(), tt.student, tt.reference)
			if got != tt.want {
				t.Errorf("Evaluate(%q, %q) = %+v, want %+v", tt.student, tt.reference, got, tt.want)
			}
		})
	}
}

func TestEvaluateReferenceScenarios(t *testing.T) {
	const (
		mito    = "The mitochondria is the powerhouse of the cell"
		fruit   = "apple banana cherry date"
		quantum = "quantum entanglement theory"
		unrel   = "xyz unrelated words"
	)
	tests := []struct {
		name      string
		reference string
		student   string
		semantic  float64
		semErr    error
		wantGrade Grade
		wantSim   float64
		wantFB    string
	}{
		{"identical answers", mito, mito, 0, nil, 5, 100.0, FeedbackFor(5)},
		{"half the reference tokens", fruit, "apple banana", 0, nil, 3, 50.0, FeedbackFor(3)},
		{"empty student", fruit, "", 0, nil, 0, 0.0, MissingInputFeedback},
		{"semantic fallback", quantum, unrel, 0.75, nil, 4, 75.0, FeedbackFor(4)},
		{"comparator unreachable", quantum, unrel, 0, errors.New("dial tcp: connection refused"), 0, 0.0, NoRelationFeedback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake(tt.semantic)
			fake.err = tt.semErr
			got := NewEvaluator(fake).Evaluate(context.Background(), tt.student, tt.reference)
			if got.Grade != tt.wantGrade || got.SimilarityPercent != tt.wantSim || got.Feedback != tt.wantFB {
				t.Errorf("got %+v, want grade %d similarity %v feedback %q", got, tt.wantGrade, tt.wantSim, tt.wantFB)
			}
		})
	}
}

func TestEvaluateRepeatedSemanticUsesCache(t *testing.T) {
	fake := newFake(0.75)
	e := NewEvaluator(fake)

	first := e.Evaluate(context.Background(), "xyz unrelated words", "quantum entanglement theory")
	second := e.Evaluate(context.Background(), "xyz unrelated words", "quantum entanglement theory")
	if first != second {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
	if fake.total() != 1 {
		t.Errorf("second call should be served from the cache, got %d comparator calls", fake.total())
	}
}

func TestEvaluateSkipsComparatorWhenLexical(t *testing.T) {
	fake := newFake(0.99)
	e := NewEvaluator(fake)

	e.Evaluate(context.Background(), "Paris", "paris")
	e.Evaluate(context.Background(), "light energy", "light and heat energy")
	e.Evaluate(context.Background(), "", "x")

	if fake.total() != 0 {
		t.Errorf("comparator should not run, got %d calls", fake.total())
	}
}

func TestEvaluateNoComparator(t *testing.T) {
	got := NewEvaluator(nil).Evaluate(context.Background(), "bananas", "gravity")
	want := Result{Grade: 0, Feedback: NoRelationFeedback, Method: MethodUnavailable}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestEvaluateReusesCache(t *testing.T) {
	fake := newFake(0.55)
	cache := NewMemoryCache()
	e := NewEvaluator(fake, WithCache(cache))

	first := e.Evaluate(context.Background(), "bananas", "gravity")
	second := e.Evaluate(context.Background(), "bananas", "gravity")
	if first != second {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
	if fake.total() != 1 {
		t.Errorf("expected a single comparator call, got %d", fake.total())
	}
	if v, ok := cache.Get(Key{Student: "bananas", Reference: "gravity"}); !ok || v != 0.55 {
		t.Errorf("cache entry = %v, %v", v, ok)
	}
}

func TestEvaluateComparatorPanic(t *testing.T) {
	c := funcComparator(func(context.Context, string, string) (float64, error) {
		panic("boom")
	})
	got := NewEvaluator(c).Evaluate(context.Background(), "bananas", "gravity")
	if got.Method != MethodUnavailable || got.Grade != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestEvaluateBounds(t *testing.T) {
	inputs := [][2]string{
		{"x", "x y"},
		{"!!!", "???"},
		{"ünïcödé", "unicode"},
		{"1 2 3", "1 2 3 4"},
	}
	e := NewEvaluator(newFake(3.5))
	for _, in := range inputs {
		r := e.Evaluate(context.Background(), in[0], in[1])
		if r.Grade < MinGrade || r.Grade > MaxGrade {
			t.Errorf("%q: grade %d out of range", in, r.Grade)
		}
		if r.SimilarityPercent < 0 || r.SimilarityPercent > 100 {
			t.Errorf("%q: similarity %v out of range", in, r.SimilarityPercent)
		}
		if r.Feedback == "" {
			t.Errorf("%q: empty feedback", in)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := map[float64]float64{
		0:        0,
		1:        100,
		2.0 / 7:  28.57,
		0.123456: 12.35,
		0.7:      70,
	}
	for in, want := range tests {
		if got := percent(in); got != want {
			t.Errorf("percent(%v) = %v, want %v", in, got, want)
		}
	}
}
