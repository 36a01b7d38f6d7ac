package grading

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"only punctuation", "?!...", []string{}},
		{"lowercases", "The Cat SAT", []string{"the", "cat", "sat"}},
		{"punctuation splits", "cell-wall,membrane.", []string{"cell", "wall", "membrane"}},
		{"digits kept", "H2O boils at 100C", []string{"h2o", "boils", "at", "100c"}},
		{"apostrophe splits", "it's", []string{"it", "s"}},
		{"tabs and newlines", "a\tb\nc", []string{"a", "b", "c"}},
		{"non ascii letters split", "café au lait", []string{"caf", "au", "lait"}},
		{"repeats kept", "dog dog", []string{"dog", "dog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
