// Package score holds the leaderboard data model: entries, input validation,
// the merge policy used to reconcile two score arrays, and board ranking.
package score

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeLayout matches the ISO timestamps written by the browser widget.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Entry is a single leaderboard row.
// Delta and Updated are client-side display hints and never persisted.
type Entry struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Timestamp string  `json:"timestamp,omitempty"`

	Delta   float64 `json:"-"`
	Updated bool    `json:"-"`
}

// UnmarshalJSON accepts a score encoded either as a JSON number or a numeric string.
// Entries with a non-string name or an unparsable score decode with an empty
// name or a NaN score so that Sanitize can drop them.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name      json.RawMessage `json:"name"`
		Score     json.RawMessage `json:"score"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{Score: math.NaN()}
	_ = json.Unmarshal(raw.Name, &e.Name)
	_ = json.Unmarshal(raw.Timestamp, &e.Timestamp)
	e.Score = parseScore(raw.Score)
	return nil
}

func parseScore(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return math.NaN()
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

// Valid reports whether the entry can take part in a merge.
func (e Entry) Valid() bool {
	return Key(e.Name) != "" && !math.IsNaN(e.Score) && !math.IsInf(e.Score, 0)
}

// Clone returns a deep copy of entries.
func Clone(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Sanitize drops invalid entries and normalises names, preserving order.
func Sanitize(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Valid() {
			continue
		}
		e.Name = Key(e.Name)
		out = append(out, e)
	}
	return out
}

// Decode parses a JSON array of entries. A non-array document yields an empty slice.
func Decode(data []byte) ([]Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []Entry{}, nil
	}
	if data[0] != '[' {
		var probe any
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, err
		}
		return []Entry{}, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return Sanitize(entries), nil
}

// Encode renders entries as a JSON array; nil encodes as [].
func Encode(entries []Entry, indent bool) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	if indent {
		return json.MarshalIndent(entries, "", "  ")
	}
	return json.Marshal(entries)
}

// Now formats t the way stored timestamps are written.
func Now(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
