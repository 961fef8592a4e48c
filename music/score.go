package music

import (
	"errors"
	"fmt"
	"strings"

	"github.com/QEStudios/ProceduralAudio/sound"
)

// NumTracks is the fixed number of parallel tracks in every part.
const NumTracks = 5

// A Score is a parsed piece of music: reusable parts and the order in
// which they are played.
type Score struct {
	Parts []Part

	// Spec lists part indices in playback order.
	Spec []int
	// LoopPoint is the Spec index playback returns to after the last entry.
	LoopPoint int
}

// A Part holds the parallel tracks of one section of the score.
type Part struct {
	Name   byte // 'A'..'Z'
	Tracks [NumTracks]Track
}

// A Track is the note sequence played by one voice within a part.
type Track struct {
	Notes []Note
}

// Validate checks the score invariants the synth relies on.
func (s *Score) Validate() error {
	if len(s.Spec) == 0 {
		return errors.New("score has an empty spec")
	}
	for i, idx := range s.Spec {
		if idx < 0 || idx >= len(s.Parts) {
			return fmt.Errorf("spec entry %d refers to part %d, score only has %d parts", i, idx, len(s.Parts))
		}
	}
	if s.LoopPoint < 0 || s.LoopPoint >= len(s.Spec) {
		return fmt.Errorf("loop point %d out of range 0..%d", s.LoopPoint, len(s.Spec)-1)
	}
	return nil
}

// Duration returns the length of the track in seconds.
func (t *Track) Duration() float64 {
	var total float64
	for _, n := range t.Notes {
		total += n.Length()
	}
	return total
}

// Duration returns the length of the longest track, which is how long the
// part plays before the score moves on.
func (p *Part) Duration() float64 {
	var longest float64
	for i := range p.Tracks {
		longest = max(longest, p.Tracks[i].Duration())
	}
	return longest
}

// Duration returns the playing time of one pass through the whole spec.
func (s *Score) Duration() float64 {
	var total float64
	for _, idx := range s.Spec {
		total += s.Parts[idx].Duration()
	}
	return total
}

// Drums returns every drum sound the score references, in first-use order.
func (s *Score) Drums() []*sound.Data {
	var out []*sound.Data
	seen := make(map[*sound.Data]bool)
	for _, p := range s.Parts {
		for _, t := range p.Tracks {
			for _, n := range t.Notes {
				if d, ok := n.(Drum); ok && !seen[d.Sound] {
					seen[d.Sound] = true
					out = append(out, d.Sound)
				}
			}
		}
	}
	return out
}

// formatNotesByTrack formats a part's notes into a table with one column
// per track.
func formatNotesByTrack(p *Part, indent int) string {
	widths := make([]int, NumTracks)
	maxRows := 0
	for i := range NumTracks {
		widths[i] = len(fmt.Sprintf("Track %d", i+1))
		for _, n := range p.Tracks[i].Notes {
			widths[i] = max(widths[i], len(n.String()))
		}
		widths[i] = max(widths[i], 14)
		maxRows = max(maxRows, len(p.Tracks[i].Notes))
	}

	padRight := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}
	separator := func(b *strings.Builder) {
		b.WriteString(strings.Repeat(" ", indent))
		for i := range NumTracks {
			b.WriteString("+")
			b.WriteString(strings.Repeat("-", widths[i]+2))
		}
		b.WriteString("+\n")
	}

	var b strings.Builder
	separator(&b)
	b.WriteString(strings.Repeat(" ", indent))
	for i := range NumTracks {
		b.WriteString("| ")
		b.WriteString(padRight(fmt.Sprintf("Track %d", i+1), widths[i]))
		b.WriteString(" ")
	}
	b.WriteString("|\n")
	separator(&b)

	for row := range maxRows {
		b.WriteString(strings.Repeat(" ", indent))
		for i := range NumTracks {
			cell := ""
			if row < len(p.Tracks[i].Notes) {
				cell = p.Tracks[i].Notes[row].String()
			}
			b.WriteString("| ")
			b.WriteString(padRight(cell, widths[i]))
			b.WriteString(" ")
		}
		b.WriteString("|\n")
	}
	separator(&b)
	return b.String()
}

// Pretty-print
func (s *Score) String() string {
	var b strings.Builder
	b.WriteString("Score:\n")

	b.WriteString("- Spec: ")
	for i, idx := range s.Spec {
		if i == s.LoopPoint {
			b.WriteString("|")
		}
		if idx >= 0 && idx < len(s.Parts) {
			b.WriteByte(s.Parts[idx].Name)
		} else {
			b.WriteString("?")
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Loop point: %d\n", s.LoopPoint)
	b.WriteString("- Parts:\n")

	for i := range s.Parts {
		p := &s.Parts[i]
		fmt.Fprintf(&b, "\n  - Part %c:\n", p.Name)
		b.WriteString(formatNotesByTrack(p, 6))
		fmt.Fprintf(&b, "    [Duration: %.3fs]\n", p.Duration())
	}
	return b.String()
}
