package score

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	var testCases = []struct {
		name, score string
		expectName  string
		expectScore float64
		expectErr   bool
	}{
		{name: " ann ", score: "12", expectName: "ann", expectScore: 12},
		{name: "ann", score: "1999.5", expectName: "ann", expectScore: 1999.5},
		{name: "ann", score: "2000", expectName: "ann", expectScore: 2000},
		{name: "ann", score: "0", expectName: "ann", expectScore: 0},
		{name: "ann", score: "2000.1", expectErr: true},
		{name: "ann", score: "12345", expectErr: true},
		{name: "ann", score: "1.25", expectErr: true},
		{name: "ann", score: "-1", expectErr: true},
		{name: "ann", score: "abc", expectErr: true},
		{name: "  ", score: "10", expectErr: true},
		{name: "ann", score: "", expectErr: true},
	}
	for _, testCase := range testCases {
		name, value, err := ParseInput(testCase.name, testCase.score)
		if testCase.expectErr {
			assert.True(t, errors.Is(err, ErrInvalidInput), "%q/%q", testCase.name, testCase.score)
			continue
		}
		require.NoError(t, err, "%q/%q", testCase.name, testCase.score)
		assert.Equal(t, testCase.expectName, name)
		assert.EqualValues(t, testCase.expectScore, value)
	}
}

func TestInRange(t *testing.T) {
	out := InRange(DefaultLimits, []Entry{{Name: "a", Score: -1}, {Name: "b", Score: 5}, {Name: "c", Score: 2001}})
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Name)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12", Format(12))
	assert.Equal(t, "12.5", Format(12.5))
	assert.Equal(t, "0", Format(0))
	assert.Equal(t, "1.3", Format(1.25000001))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "AL", Initials("ada lovelace byron"))
	assert.Equal(t, "B", Initials("bob"))
	assert.Equal(t, "", Initials("   "))
}

func TestColor(t *testing.T) {
	assert.Equal(t, "hsl(97,70%,70%)", Color("a"))
	assert.Equal(t, "hsl(225,70%,70%)", Color("ab"))
	assert.Equal(t, Color("some long player name"), Color("some long player name"))
}

func TestRankLabel(t *testing.T) {
	assert.Equal(t, "🥇", RankLabel(1))
	assert.Equal(t, "🥈", RankLabel(2))
	assert.Equal(t, "🥉", RankLabel(3))
	assert.Equal(t, "#4", RankLabel(4))
}

func TestNewBoard(t *testing.T) {
	var entries []Entry
	for i := 0; i < 12; i++ {
		entries = append(entries, Entry{Name: fmt.Sprintf("p%02d", i), Score: float64(i)})
	}
	entries = append(entries, Entry{Name: "twin", Score: 11, Delta: 1.5})

	board := NewBoard(entries, BoardOptions{Me: "p05"})
	assert.Equal(t, 13, board.Total)
	assert.True(t, board.Toggle)
	require.Len(t, board.Rows, DefaultTopN)
	assert.Equal(t, "p11", board.Rows[0].Name)
	assert.True(t, board.Rows[0].First)
	assert.True(t, board.Rows[0].Tie)
	assert.Equal(t, "twin", board.Rows[1].Name)
	assert.True(t, board.Rows[1].Tie)
	assert.Equal(t, "+1.5", board.Rows[1].DeltaText)
	assert.False(t, board.Rows[2].Tie)
	assert.Equal(t, "#4", board.Rows[3].Label)

	all := NewBoard(entries, BoardOptions{ShowAll: true, Me: "p05"})
	require.Len(t, all.Rows, 13)
	var me *Row
	for i := range all.Rows {
		if all.Rows[i].Me {
			me = &all.Rows[i]
		}
	}
	require.NotNil(t, me)
	assert.Equal(t, "p05", me.Name)
}

func TestNewBoard_SmallListHasNoToggle(t *testing.T) {
	board := NewBoard([]Entry{{Name: "a", Score: 1}}, BoardOptions{TopN: 3})
	assert.False(t, board.Toggle)
	assert.Len(t, board.Rows, 1)
}

func TestDecode(t *testing.T) {
	entries, err := Decode([]byte(`[{"name":"ann","score":"12.5"},{"name":"bob","score":3,"timestamp":"t"},{"name":7,"score":1},{"name":"cy","score":"x"}]`))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "ann", Score: 12.5}, {Name: "bob", Score: 3, Timestamp: "t"}}, entries)

	empty, err := Decode([]byte(`{"scores":[]}`))
	require.NoError(t, err)
	assert.Empty(t, empty)

	blank, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, blank)

	_, err = Decode([]byte(`[{`))
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	data, err := Encode(nil, false)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = Encode([]Entry{{Name: "a", Score: 1, Delta: 3, Updated: true}}, false)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"a","score":1}]`, string(data))
}

func TestEntry_Valid(t *testing.T) {
	assert.True(t, Entry{Name: "a", Score: 0}.Valid())
	assert.False(t, Entry{Name: " ", Score: 0}.Valid())
	assert.False(t, Entry{Name: "a", Score: math.NaN()}.Valid())
}
