// Package validate checks deck files before they are served.
//
// It reports everything engine.ValidateGameConfig rejects, warns about
// optional messages a deck leaves empty, and prints a short summary of
// each deck that passes.
package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/memorygame/game/engine"
)

// Result holds the outcome of checking a single deck file.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Summary  *Summary
}

// Summary describes the board a valid deck produces.
type Summary struct {
	Name           string
	Pairs          int
	Tiles          int
	FixedLayout    bool
	ConcealDelayMs int64
}

// File reads and checks one deck file.
func File(path string) Result {
	result := Result{File: filepath.Base(path), Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	optional := []struct {
		field string
		value string
	}{
		{"match", config.Messages.Match},
		{"mismatch", config.Messages.Mismatch},
		{"locked", config.Messages.Locked},
		{"already_solved", config.Messages.AlreadySolved},
	}
	for _, msg := range optional {
		if msg.value == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("messages.%s is empty", msg.field))
		}
	}
	if config.ConcealDelayMs == 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("conceal_delay_ms not set, using %dms", engine.DefaultConcealDelay.Milliseconds()))
	}

	result.Summary = &Summary{
		Name:           config.Name,
		Pairs:          len(config.Kinds),
		Tiles:          2 * len(config.Kinds),
		FixedLayout:    len(config.Layout) > 0,
		ConcealDelayMs: config.ConcealDelay().Milliseconds(),
	}
	return result
}

// Dir checks every *.json file in dir, sorted by name.
func Dir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("finding config files: %w", err)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// Report prints results and returns true when every deck is valid.
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if !result.Valid {
			allValid = false
			fmt.Fprintln(w, "❌ INVALID")
			for _, e := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+e)
			}
			continue
		}

		fmt.Fprintln(w, "✅ VALID")
		if s := result.Summary; s != nil {
			layout := "shuffled"
			if s.FixedLayout {
				layout = "fixed layout"
			}
			fmt.Fprintf(w, "  ✓ %s: %d pairs, %d tiles, %s, conceal delay %dms\n",
				s.Name, s.Pairs, s.Tiles, layout, s.ConcealDelayMs)
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No configurations found")
	case allValid:
		fmt.Fprintln(w, "✅ All configurations are valid!")
	default:
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
