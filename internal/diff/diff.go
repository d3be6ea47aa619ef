// Package diff computes audit diffs between original and healed test code
// using the sergi/go-diff library.
package diff

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// EntryKind tags a changed line as an addition or a removal.
type EntryKind string

const (
	Added   EntryKind = "added"
	Removed EntryKind = "removed"
)

// Entry is a single changed line. Context lines, hunk headers, and file
// identity lines are never emitted; the list exists for human audit only.
// Kind serializes as "type" to match the healing result wire contract.
type Entry struct {
	Kind EntryKind `json:"type"`
	Line string    `json:"line"`
}

// Engine provides diff computation with caching for repeated input pairs.
type Engine struct {
	dmp   *diffmatchpatch.DiffMatchPatch
	cache sync.Map
}

type cacheKey struct {
	beforeHash uint64
	afterHash  uint64
}

// NewEngine creates a diff engine tuned for code.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // Disable timeout for accuracy
	return &Engine{dmp: dmp}
}

// DefaultEngine is a singleton engine for general use.
var DefaultEngine = NewEngine()

// Changes returns the ordered added/removed lines between before and after.
// Equal inputs return an empty list.
// Uses a line-level reduction to avoid newline boundary artifacts when
// converting character diffs to line entries.
func (e *Engine) Changes(before, after string) []Entry {
	if before == after {
		return nil
	}

	key := cacheKey{hash(before), hash(after)}
	if cached, ok := e.cache.Load(key); ok {
		if entries, ok := cached.([]Entry); ok {
			return append([]Entry(nil), entries...)
		}
	}

	a, b, lineArray := e.dmp.DiffLinesToChars(before, after)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	entries := toEntries(diffs)
	e.cache.Store(key, entries)
	return append([]Entry(nil), entries...)
}

// Changes is a convenience function using the default engine.
func Changes(before, after string) []Entry {
	return DefaultEngine.Changes(before, after)
}

// toEntries flattens diffmatchpatch diffs into per-line entries, skipping
// unchanged regions.
func toEntries(diffs []diffmatchpatch.Diff) []Entry {
	var entries []Entry
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}

		lines := strings.Split(d.Text, "\n")
		// Remove trailing empty line from split
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		kind := Added
		if d.Type == diffmatchpatch.DiffDelete {
			kind = Removed
		}
		for _, line := range lines {
			entries = append(entries, Entry{Kind: kind, Line: line})
		}
	}
	return entries
}

// Ratio reports the normalized similarity of two strings in [0,1], computed
// as 1 - levenshtein/longest over the character diff. The field-rename rule
// uses this to resolve renamed response keys.
func (e *Engine) Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	diffs := e.dmp.DiffMain(a, b, false)
	distance := e.dmp.DiffLevenshtein(diffs)

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	return 1 - float64(distance)/float64(longest)
}

// Ratio is a convenience function using the default engine.
func Ratio(a, b string) float64 {
	return DefaultEngine.Ratio(a, b)
}

// ClearCache clears the diff cache.
func (e *Engine) ClearCache() {
	e.cache = sync.Map{}
}

// hash computes a simple hash for caching (FNV-1a algorithm)
func hash(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	hash := uint64(offset64)
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}
	return hash
}
