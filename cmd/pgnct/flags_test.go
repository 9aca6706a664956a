package main

import (
	"strings"
	"testing"
)

func TestYesFlagParsing(t *testing.T) {
	root := newRootCmd()
	if err := root.ParseFlags([]string{"-y"}); err != nil {
		t.Fatalf("root -y parse failed: %v", err)
	}
	if yes, _ := root.Flags().GetBool("yes"); !yes {
		t.Fatalf("root -y did not set yes")
	}

	root = newRootCmd()
	if err := root.ParseFlags([]string{"--yes"}); err != nil {
		t.Fatalf("root --yes parse failed: %v", err)
	}
	if yes, _ := root.Flags().GetBool("yes"); !yes {
		t.Fatalf("root --yes did not set yes")
	}

	translate := newTranslateCmd()
	if err := translate.ParseFlags([]string{"-y"}); err != nil {
		t.Fatalf("translate -y parse failed: %v", err)
	}
	if yes, _ := translate.Flags().GetBool("yes"); !yes {
		t.Fatalf("translate -y did not set yes")
	}
}

func TestBackendSelectionFlagsAreExclusive(t *testing.T) {
	cases := [][]string{
		{"translate", "in.pgn", "out.pgn", "--offline", "--web"},
		{"test-connection", "--offline", "--api-url", "http://localhost:5000"},
		{"in.pgn", "out.pgn", "--web", "--api-url", "http://localhost:5000"},
	}
	for _, args := range cases {
		_, err := executeCommand(t, args...)
		if err == nil || !strings.Contains(err.Error(), "none of the others can be") {
			t.Fatalf("%v: expected mutual exclusion error, got %v", args, err)
		}
	}
}

func TestRootWithFlagsButNoFiles(t *testing.T) {
	_, err := executeCommand(t, "--yes")
	if err == nil || !strings.Contains(err.Error(), "input and output files are required") {
		t.Fatalf("expected missing files error, got %v", err)
	}
}

func TestTestConnectionRejectsFiles(t *testing.T) {
	_, err := executeCommand(t, "--test-connection", "in.pgn")
	if err == nil || !strings.Contains(err.Error(), "takes no file arguments") {
		t.Fatalf("expected argument error, got %v", err)
	}
}

func TestInvalidTimeoutFlag(t *testing.T) {
	isolateConfig(t)
	_, err := executeCommand(t, "test-connection", "--timeout", "0", "--api-url", "http://127.0.0.1:1")
	if err == nil || !strings.Contains(err.Error(), "--timeout must be a positive number") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}
