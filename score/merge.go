package score

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Mode selects how incoming scores are reconciled with stored ones.
type Mode string

const (
	ModeMerge     Mode = "merge"
	ModeOverwrite Mode = "overwrite"
)

// ParseMode maps anything but "overwrite" to ModeMerge.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeOverwrite)) {
		return ModeOverwrite
	}
	return ModeMerge
}

// Merge keeps the highest score per name across existing then incoming.
// On equal scores the first seen entry wins, so stored rows are stable.
// Entries without a timestamp are stamped with now.
func Merge(existing, incoming []Entry, now time.Time) []Entry {
	stamp := Now(now)
	index := map[string]int{}
	out := make([]Entry, 0, len(existing)+len(incoming))
	for _, list := range [][]Entry{existing, incoming} {
		for _, e := range list {
			if !e.Valid() {
				continue
			}
			key := Key(e.Name)
			ts := e.Timestamp
			if ts == "" {
				ts = stamp
			}
			kept := Entry{Name: key, Score: e.Score, Timestamp: ts}
			i, ok := index[key]
			if !ok {
				index[key] = len(out)
				out = append(out, kept)
				continue
			}
			if e.Score > out[i].Score {
				out[i] = kept
			}
		}
	}
	Sort(out)
	return out
}

// Overwrite returns the sanitised incoming array with timestamps filled in.
func Overwrite(incoming []Entry, now time.Time) []Entry {
	stamp := Now(now)
	out := Sanitize(incoming)
	for i := range out {
		out[i].Delta, out[i].Updated = 0, false
		if out[i].Timestamp == "" {
			out[i].Timestamp = stamp
		}
	}
	return out
}

// Apply reconciles incoming with existing according to mode.
func Apply(mode Mode, existing, incoming []Entry, now time.Time) []Entry {
	if mode == ModeOverwrite {
		return Overwrite(incoming, now)
	}
	return Merge(existing, incoming, now)
}

// Sort orders entries by score descending; equal scores keep their order.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

// Sorted returns a sorted copy.
func Sorted(entries []Entry) []Entry {
	out := Clone(entries)
	if out == nil {
		out = []Entry{}
	}
	Sort(out)
	return out
}

// Submit records a local score submission.
// A known name only changes when the new score is higher; Delta carries the gain.
func Submit(entries []Entry, name string, value float64) []Entry {
	out := Clone(entries)
	key := Key(name)
	for i := range out {
		if Key(out[i].Name) != key {
			continue
		}
		if value > out[i].Score {
			out[i].Delta = round1(value - out[i].Score)
			out[i].Score = value
			out[i].Updated = true
		} else {
			out[i].Delta = 0
		}
		return out
	}
	return append(out, Entry{Name: key, Score: value, Updated: true})
}

// Diff flags entries of next that are new or whose score changed relative to prev.
func Diff(prev, next []Entry) []Entry {
	old := make(map[string]float64, len(prev))
	for _, e := range prev {
		old[e.Name] = e.Score
	}
	out := Clone(next)
	for i := range out {
		if v, ok := old[out[i].Name]; !ok || v != out[i].Score {
			out[i].Updated = true
		}
	}
	return out
}

// Leader returns the name of the first entry.
func Leader(entries []Entry) (string, bool) {
	if len(entries) == 0 {
		return "", false
	}
	return entries[0].Name, true
}

func round1(v float64) float64 {
	if v == math.Trunc(v) {
		return v
	}
	return math.Round(v*10) / 10
}
