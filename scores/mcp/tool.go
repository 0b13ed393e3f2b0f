package mcp

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/viant/leaderboard/auth"
	"github.com/viant/leaderboard/score"
	"github.com/viant/leaderboard/scores/service"
)

//go:embed tools/leaderboardList.md
var descList string

//go:embed tools/leaderboardSubmit.md
var descSubmit string

func registerTools(base *protoserver.DefaultHandler, h *Handler) error {
	svc := h.service

	if err := protoserver.RegisterTool[*ListInput, *ListOutput](base.Registry, "leaderboardList", descList, func(ctx context.Context, in *ListInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := List(ctx, svc, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResultOut(svc, out)
	}); err != nil {
		return err
	}

	// without a write key every submit would be rejected
	if !CanSubmit(svc) {
		return nil
	}
	if err := protoserver.RegisterTool[*SubmitInput, *SubmitOutput](base.Registry, "leaderboardSubmit", descSubmit, func(ctx context.Context, in *SubmitInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := Submit(ctx, svc, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResultOut(svc, out)
	}); err != nil {
		return err
	}
	return nil
}

// List projects the stored scores into a ranked board.
func List(ctx context.Context, svc *service.Service, in *ListInput) (*ListOutput, error) {
	entries, err := svc.List(ctx)
	if err != nil {
		return nil, err
	}
	board := score.NewBoard(entries, score.BoardOptions{TopN: in.TopN, ShowAll: in.All, Me: score.Key(in.Me)})
	return &ListOutput{Board: board}, nil
}

// CanSubmit reports whether writes are enabled, i.e. a write key is configured.
func CanSubmit(svc *service.Service) bool {
	return svc.Auth().Key != ""
}

// Submit validates a name/score pair and merges it into the stored scores.
// Callers reach it through the key-guarded /mcp endpoint; with no key
// configured it fails with auth.ErrMissingKey.
func Submit(ctx context.Context, svc *service.Service, in *SubmitInput) (*SubmitOutput, error) {
	if !CanSubmit(svc) {
		return nil, auth.ErrMissingKey
	}
	name, value, err := score.ParseInput(in.Name, in.Score)
	if err != nil {
		return nil, err
	}
	out, err := svc.Update(ctx, score.ModeMerge, []score.Entry{{Name: name, Score: value}})
	if err != nil {
		return nil, err
	}
	ret := &SubmitOutput{Name: name, Score: value, Count: out.Count, Commit: out.Commit}
	for i, e := range out.Entries {
		if e.Name == name {
			ret.Rank = i + 1
			ret.Score = e.Score
			break
		}
	}
	return ret, nil
}

func buildErrorResult(message string) (*schema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResultOut(svc *service.Service, payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	if svc.UseTextField() {
		b, _ := json.Marshal(payload)
		return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{{Type: "text", Text: string(b)}}}, nil
	}
	return &schema.CallToolResult{StructuredContent: map[string]any{"result": payload}}, nil
}
