package score

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// DefaultTopN is the number of rows shown when the board is collapsed.
const DefaultTopN = 10

// BoardOptions controls board projection.
type BoardOptions struct {
	TopN    int
	ShowAll bool
	Me      string
}

// Row is a ranked, display-ready entry.
type Row struct {
	Entry
	Rank      int    `json:"rank"`
	Label     string `json:"label"`
	Tie       bool   `json:"tie,omitempty"`
	Me        bool   `json:"me,omitempty"`
	First     bool   `json:"first,omitempty"`
	Initials  string `json:"initials"`
	Color     string `json:"color"`
	ScoreText string `json:"scoreText"`
	DeltaText string `json:"deltaText,omitempty"`
}

// Board is a ranked projection of entries.
type Board struct {
	Rows []Row `json:"rows"`
	// Total is the number of entries before the TopN cut.
	Total int `json:"total"`
	// Toggle reports whether a show-all/collapse control is needed.
	Toggle  bool `json:"toggle"`
	ShowAll bool `json:"showAll"`
}

// NewBoard sorts entries and builds ranked rows.
func NewBoard(entries []Entry, opts BoardOptions) *Board {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	sorted := Sorted(entries)
	ties := map[string]bool{}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Score == sorted[i-1].Score {
			ties[sorted[i].Name] = true
			ties[sorted[i-1].Name] = true
		}
	}
	limit := len(sorted)
	if !opts.ShowAll && topN < limit {
		limit = topN
	}
	board := &Board{Total: len(sorted), Toggle: len(sorted) > topN, ShowAll: opts.ShowAll, Rows: make([]Row, 0, limit)}
	for i, e := range sorted[:limit] {
		row := Row{
			Entry:     e,
			Rank:      i + 1,
			Label:     RankLabel(i + 1),
			Tie:       ties[e.Name],
			Me:        opts.Me != "" && e.Name == opts.Me,
			First:     i == 0,
			Initials:  Initials(e.Name),
			Color:     Color(e.Name),
			ScoreText: Format(e.Score),
		}
		if e.Delta > 0 {
			row.DeltaText = "+" + Format(e.Delta)
		}
		board.Rows = append(board.Rows, row)
	}
	return board
}

// RankLabel returns a medal for the podium and #n otherwise.
func RankLabel(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return "#" + strconv.Itoa(rank)
}

// Format renders whole scores without decimals and others with one.
func Format(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Initials returns up to two upper-cased word initials.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		if n == 2 {
			break
		}
		r := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(r))
		n++
	}
	return b.String()
}

// Color derives a stable avatar colour from name using the classic 32-bit
// shift hash over UTF-16 code units. The hue keeps its sign.
func Color(name string) string {
	var h int64
	for _, c := range utf16.Encode([]rune(name)) {
		h = int64(c) + (int64(int32(h)<<5) - h)
	}
	return fmt.Sprintf("hsl(%d,70%%,70%%)", h%360)
}
