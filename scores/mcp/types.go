package mcp

import "github.com/viant/leaderboard/score"

type ListInput struct {
	// TopN limits rows; 0 uses the default of 10.
	TopN int    `json:"topN,omitempty" description:"number of rows to return (default 10)"`
	All  bool   `json:"all,omitempty" description:"return every row"`
	Me   string `json:"me,omitempty" description:"player name to highlight"`
}

type ListOutput struct {
	Board *score.Board `json:"board"`
}

type SubmitInput struct {
	Name  string `json:"name" description:"player name"`
	Score string `json:"score" description:"score text, up to 4 digits with one decimal, 0..2000"`
}

type SubmitOutput struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
	Count  int     `json:"count"`
	Commit string  `json:"commit,omitempty"`
}
