package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crimson-sun/timber/internal/config"
	"github.com/crimson-sun/timber/internal/engine/testdata"
	"github.com/crimson-sun/timber/internal/model"
)

// writeTraining stores the weather corpus in a temp file.
func writeTraining(t *testing.T) string {
	t.Helper()
	data, err := io.ReadAll(testdata.Weather())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "weather.data")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResults(t *testing.T, s string) []model.Result {
	t.Helper()
	var results []model.Result
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		var r model.Result
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("invalid NDJSON line %q: %v", line, err)
		}
		results = append(results, r)
	}
	return results
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "timber "+config.Version+"\n") {
		t.Fatalf("unexpected version output:\n%s", out)
	}
}

func TestClassifyStdin(t *testing.T) {
	train := writeTraining(t)
	in := "sunny hot high weak\novercast cool normal strong\nbroken\n"

	out, err := execute(t, in, "classify", "--train", train, "--workers", "2", "--log-level", "error")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	results := decodeResults(t, out)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3:\n%s", len(results), out)
	}
	bySeq := make(map[int]model.Result)
	for _, r := range results {
		bySeq[r.Seq] = r
	}
	if bySeq[0].Label != "no" || bySeq[1].Label != "yes" {
		t.Fatalf("labels = %q, %q", bySeq[0].Label, bySeq[1].Label)
	}
	if bySeq[2].Error == "" {
		t.Fatal("malformed line should produce an error result")
	}
	if bySeq[0].Line == "" {
		t.Fatal("standard verbosity should keep the input line")
	}
}

func TestClassifyInputFileToTee(t *testing.T) {
	train := writeTraining(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "queries.txt")
	if err := os.WriteFile(input, []byte("rain mild high strong\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "results.jsonl")

	out, err := execute(t, "", "classify",
		"--train", train,
		"--input", input,
		"--output", "tee",
		"--output-path", outPath,
		"--verbosity", "minimal",
		"--log-level", "error",
	)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	stdoutResults := decodeResults(t, out)
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	fileResults := decodeResults(t, string(data))
	if len(stdoutResults) != 1 || len(fileResults) != 1 {
		t.Fatalf("stdout=%d file=%d results, want 1 each", len(stdoutResults), len(fileResults))
	}
	if fileResults[0].Label != "no" || fileResults[0].Line != "" {
		t.Fatalf("file result = %+v", fileResults[0])
	}
}

func TestClassifyRequiresTraining(t *testing.T) {
	_, err := execute(t, "", "classify")
	if !errors.Is(err, errNoTrainingData) {
		t.Fatalf("classify without --train = %v", err)
	}
}

func TestClassifyInvalidConfig(t *testing.T) {
	train := writeTraining(t)
	_, err := execute(t, "", "classify", "--train", train, "--workers", "0", "--threshold", "2")
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"workers", "threshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestClassifyBadEngineOptions(t *testing.T) {
	train := writeTraining(t)
	_, err := execute(t, "", "classify", "--train", train, "--options=-k zero")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("classify with bad options = %v", err)
	}
}

func TestShowOptions(t *testing.T) {
	out, err := execute(t, "", "show", "options", "--options=-k 3 -d ID")
	if err != nil {
		t.Fatalf("show options: %v", err)
	}
	if out != "-k 3 -w 2 -d ID -F Columns\n" {
		t.Fatalf("show options = %q", out)
	}
}

func TestShowSettingsAndWeights(t *testing.T) {
	train := writeTraining(t)

	out, err := execute(t, "", "show", "settings", "--train", train)
	if err != nil {
		t.Fatalf("show settings: %v", err)
	}
	if !strings.Contains(out, "features: 4") {
		t.Fatalf("settings missing feature count:\n%s", out)
	}

	out, err = execute(t, "", "show", "weights", "--train", train)
	if err != nil {
		t.Fatalf("show weights: %v", err)
	}
	if out == "" {
		t.Fatal("weights output is empty")
	}

	if _, err := execute(t, "", "show", "weights"); !errors.Is(err, errNoTrainingData) {
		t.Fatalf("show weights without training = %v", err)
	}
}

func TestConfigFile(t *testing.T) {
	train := writeTraining(t)
	cfgPath := filepath.Join(t.TempDir(), "timber.yaml")
	yaml := "engine:\n  options: \"-k 2 -w 1\"\n  train_path: " + train + "\nlog:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "--config", cfgPath, "show", "options")
	if err != nil {
		t.Fatalf("show options: %v", err)
	}
	if out != "-k 2 -w 1 -d Z -F Columns\n" {
		t.Fatalf("show options = %q", out)
	}
}
