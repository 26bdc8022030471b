package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/bstviz/internal/command"
	"github.com/Sumatoshi-tech/bstviz/internal/render"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

// Tool names.
const (
	ToolNameInsert = "bst_insert"
	ToolNameDelete = "bst_delete"
	ToolNameSearch = "bst_search"
	ToolNameClear  = "bst_clear"
	ToolNameState  = "bst_state"
)

const (
	insertToolDescription = "Insert a key between 0 and 99 into the binary search tree. " +
		"Duplicates are allowed and go to the right subtree."
	deleteToolDescription = "Delete one node holding the key. Reports ok=false when the key is absent."
	searchToolDescription = "Start an animated search for the key, one comparison per step. " +
		"Set wait to block until the search has found the key or given up."
	clearToolDescription = "Remove every node from the tree."
	stateToolDescription = "Return the current tree: traversals, size, depth, minimum, maximum, " +
		"search state and status line. Format is json (default) or text."
)

// State formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// defaultSearchPoll is how often bst_search with wait checks the session.
const defaultSearchPoll = 50 * time.Millisecond

// errUnknownFormat is returned for bst_state formats other than json and text.
var errUnknownFormat = errors.New("unknown format")

// KeyInput is the input of the keyed tools.
type KeyInput struct {
	Key int `json:"key" jsonschema:"Key between 0 and 99"`
}

// SearchInput is the input of bst_search.
type SearchInput struct {
	Key  int  `json:"key"            jsonschema:"Key between 0 and 99"`
	Wait bool `json:"wait,omitempty" jsonschema:"Block until the search finishes"`
}

// ClearInput is the empty input of bst_clear.
type ClearInput struct{}

// StateInput is the input of bst_state.
type StateInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: json or text"`
}

// ToolOutput is a generic wrapper for tool output data.
type ToolOutput struct {
	Data any `json:"data,omitempty"`
}

// CommandOutput is the JSON result of the editing tools.
type CommandOutput struct {
	Command string `json:"command"`
	Status  string `json:"status"`
	OK      bool   `json:"ok"`
}

// SearchOutput is the JSON result of bst_search.
type SearchOutput struct {
	CommandOutput

	State string `json:"state"`
	Steps int    `json:"steps"`
}

// StateOutput is the JSON result of bst_state.
type StateOutput struct {
	layout.Stats

	Status      string `json:"status"`
	SearchState string `json:"search_state"`
	Settled     bool   `json:"settled"`
	Tick        uint64 `json:"tick"`
}

func (s *Server) handleInsert(ctx context.Context, _ *mcpsdk.CallToolRequest, input KeyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return s.submit(ctx, command.Command{Op: command.OpInsert, Key: input.Key})
}

func (s *Server) handleDelete(ctx context.Context, _ *mcpsdk.CallToolRequest, input KeyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return s.submit(ctx, command.Command{Op: command.OpDelete, Key: input.Key})
}

func (s *Server) handleClear(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ClearInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return s.submit(ctx, command.Command{Op: command.OpClear})
}

func (s *Server) handleSearch(ctx context.Context, _ *mcpsdk.CallToolRequest, input SearchInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	cmd := command.Command{Op: command.OpSearch, Key: input.Key}

	res, ok := s.apply(ctx, cmd)
	if !ok {
		return res, ToolOutput{}, nil
	}

	frame, err := s.sess.Snapshot(ctx)
	if err != nil {
		return errorResult(err), ToolOutput{}, nil
	}

	if input.Wait {
		frame, err = s.awaitSearch(ctx, frame)
		if err != nil {
			return errorResult(err), ToolOutput{}, nil
		}
	}

	out := SearchOutput{
		CommandOutput: CommandOutput{Command: cmd.String(), Status: frame.Status, OK: true},
		State:         frame.Search.State.String(),
		Steps:         frame.Search.Steps,
	}

	return jsonResult(out)
}

func (s *Server) handleState(ctx context.Context, _ *mcpsdk.CallToolRequest, input StateInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	format := input.Format
	if format == "" {
		format = FormatJSON
	}

	if format != FormatJSON && format != FormatText {
		return errorResult(fmt.Errorf("%w: %q", errUnknownFormat, input.Format)), ToolOutput{}, nil
	}

	frame, err := s.sess.Snapshot(ctx)
	if err != nil {
		return errorResult(err), ToolOutput{}, nil
	}

	if format == FormatText {
		var buf bytes.Buffer

		term := render.Terminal{NoColor: true}

		err = errors.Join(term.WriteTree(&buf, frame), term.WriteStats(&buf, frame))
		if err != nil {
			return errorResult(err), ToolOutput{}, nil
		}

		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: buf.String()}},
		}, ToolOutput{}, nil
	}

	return jsonResult(StateOutput{
		Stats:       frame.Stats,
		Status:      frame.Status,
		SearchState: frame.Search.State.String(),
		Settled:     frame.Settled,
		Tick:        frame.Tick,
	})
}

func (s *Server) submit(ctx context.Context, cmd command.Command) (*mcpsdk.CallToolResult, ToolOutput, error) {
	res, _ := s.apply(ctx, cmd)

	return res, ToolOutput{}, nil
}

// apply validates and submits cmd. The boolean is false when the returned
// result is an error result.
func (s *Server) apply(ctx context.Context, cmd command.Command) (*mcpsdk.CallToolResult, bool) {
	if err := cmd.Validate(); err != nil {
		result, rejectErr := s.sess.Reject(ctx, err)
		if rejectErr != nil {
			return errorResult(rejectErr), false
		}

		return errorResult(errors.New(result.Status)), false
	}

	result, err := s.sess.Submit(ctx, cmd)
	if err != nil {
		return errorResult(err), false
	}

	res, _, err := jsonResult(CommandOutput{Command: cmd.String(), Status: result.Status, OK: result.OK})
	if err != nil {
		return errorResult(err), false
	}

	return res, true
}

func (s *Server) awaitSearch(ctx context.Context, frame layout.Frame) (layout.Frame, error) {
	ticker := time.NewTicker(s.searchPoll)
	defer ticker.Stop()

	for frame.Search.State == layout.SearchSearching {
		select {
		case <-ctx.Done():
			return layout.Frame{}, fmt.Errorf("await search: %w", ctx.Err())
		case <-ticker.C:
		}

		var err error

		frame, err = s.sess.Snapshot(ctx)
		if err != nil {
			return layout.Frame{}, err
		}
	}

	return frame, nil
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}
}

// jsonResult marshals a value to JSON and returns it as an MCP text result.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return errorResult(fmt.Errorf("marshal result: %w", err)), ToolOutput{}, nil
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{}, nil
}
