// Command grade scores one student answer against a reference answer.
//
//	grade -reference "The capital of France is Paris" -student "Paris"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/23skdu/miniviva/internal/config"
	"github.com/23skdu/miniviva/internal/logger"
	"github.com/23skdu/miniviva/internal/similarity/backend"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("grade", flag.ContinueOnError)
	fs.SetOutput(stderr)
	reference := fs.String("reference", "", "Reference answer")
	student := fs.String("student", "", "Student answer")
	asJSON := fs.Bool("json", false, "Print the result as JSON")
	envFile := fs.String("env", "", "Path to a .env file (default .env)")
	comparator := fs.String("comparator", "", "Semantic backend: hf, local, flight or none (overrides COMPARATOR)")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.FromEnv(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *comparator != "" {
		cfg.Comparator = config.ComparatorKind(strings.ToLower(*comparator))
	}
	logger.Log = logger.New(stderr, *logLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	evaluator, closeComparator, err := backend.NewEvaluator(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeComparator()

	res := evaluator.Evaluate(ctx, *student, *reference)

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stdout, "Score:      %d/5\n", res.Grade)
	fmt.Fprintf(stdout, "Feedback:   %s\n", res.Feedback)
	fmt.Fprintf(stdout, "Similarity: %.2f%%\n", res.SimilarityPercent)
	fmt.Fprintf(stdout, "Method:     %s\n", res.Method)
	return 0
}
