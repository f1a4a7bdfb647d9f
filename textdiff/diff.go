// Package textdiff computes structured edit scripts between two text
// versions, used to audit and render machine-proposed revisions.
package textdiff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Operation identifies a diff segment kind.
type Operation string

const (
	OpEqual  Operation = "equal"
	OpInsert Operation = "insert"
	OpDelete Operation = "delete"
)

// mergeThreshold folds common runs shorter than this between two edits into
// the edit, so rendered diffs are not visually fragmented.
const mergeThreshold = 4

// Segment is one unit of the edit script. Concatenating equal+delete
// segments reconstructs the original text; equal+insert reconstructs the
// revised text.
type Segment struct {
	Operation Operation `json:"operation"`
	Text      string    `json:"text"`
}

// Stats aggregates character counts per segment kind.
type Stats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Result is the edit script plus aggregated change statistics.
type Result struct {
	Segments []Segment `json:"segments"`
	Stats    Stats     `json:"stats"`
}

// Diff computes a minimal edit script between original and revised, with a
// semantic cleanup pass that merges fragmented edits into coherent blocks.
// Segment order always matches original document order. Empty inputs are
// valid and yield a single segment or an empty sequence.
func Diff(original, revised string) Result {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, revised, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := mergeShortRuns(convert(diffs))

	var stats Stats
	for _, seg := range segments {
		switch seg.Operation {
		case OpInsert:
			stats.Added += len(seg.Text)
		case OpDelete:
			stats.Removed += len(seg.Text)
		case OpEqual:
			stats.Unchanged += len(seg.Text)
		}
	}

	return Result{Segments: segments, Stats: stats}
}

// Original reconstructs the original text from the segments.
func (r Result) Original() string {
	var b strings.Builder
	for _, seg := range r.Segments {
		if seg.Operation == OpEqual || seg.Operation == OpDelete {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

// Revised reconstructs the revised text from the segments.
func (r Result) Revised() string {
	var b strings.Builder
	for _, seg := range r.Segments {
		if seg.Operation == OpEqual || seg.Operation == OpInsert {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func convert(diffs []diffmatchpatch.Diff) []Segment {
	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		var op Operation
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		default:
			op = OpEqual
		}
		segments = append(segments, Segment{Operation: op, Text: d.Text})
	}
	return segments
}

// mergeShortRuns folds equal runs shorter than mergeThreshold that sit
// between two edits into both sides of the surrounding edit block. The fold
// adds the common text to the delete and insert streams alike, so both
// reconstructions stay exact.
func mergeShortRuns(segments []Segment) []Segment {
	var out []Segment
	var delBuf, insBuf strings.Builder

	flush := func() {
		if delBuf.Len() > 0 {
			out = append(out, Segment{Operation: OpDelete, Text: delBuf.String()})
			delBuf.Reset()
		}
		if insBuf.Len() > 0 {
			out = append(out, Segment{Operation: OpInsert, Text: insBuf.String()})
			insBuf.Reset()
		}
	}

	for i, seg := range segments {
		switch seg.Operation {
		case OpDelete:
			delBuf.WriteString(seg.Text)
		case OpInsert:
			insBuf.WriteString(seg.Text)
		case OpEqual:
			inEdit := delBuf.Len() > 0 || insBuf.Len() > 0
			followedByEdit := i < len(segments)-1
			if len(seg.Text) < mergeThreshold && inEdit && followedByEdit {
				delBuf.WriteString(seg.Text)
				insBuf.WriteString(seg.Text)
				continue
			}
			flush()
			out = append(out, seg)
		}
	}
	flush()

	return out
}
