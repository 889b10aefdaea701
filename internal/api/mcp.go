package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/liquidbooks/liquidbooks/internal/dossier"
	"github.com/liquidbooks/liquidbooks/internal/psych"
	"github.com/liquidbooks/liquidbooks/internal/storage"
	"github.com/liquidbooks/liquidbooks/internal/styles"
	"github.com/liquidbooks/liquidbooks/internal/twin"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store *storage.Store
	Twins *twin.Manager
}

// NewMCPServer creates an MCP server exposing the writing-voice tools and the
// latest twin as a resource.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"liquidbooks",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("liquidbooks is a psychometric writing-voice engine: query a user's dossier, compiled voice prompt, and recommended author styles."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("get_writing_voice",
			mcp.WithDescription("Return the compiled voice prompt for a user, suitable as a system prompt for prose generation."),
			mcp.WithString("user_id", mcp.Description("User to compile the prompt for (defaults to the local user)")),
		),
		mcpGetWritingVoice(deps),
	)

	s.AddTool(
		mcp.NewTool("get_dossier",
			mcp.WithDescription("Return the user's full writing dossier as JSON, including tone calibration."),
			mcp.WithString("user_id", mcp.Description("User to build the dossier for (defaults to the local user)")),
		),
		mcpGetDossier(deps),
	)

	s.AddTool(
		mcp.NewTool("recommend_styles",
			mcp.WithDescription("Return the author styles recommended for the user's tone profile."),
			mcp.WithString("user_id", mcp.Description("User to recommend for (defaults to the local user)")),
		),
		mcpRecommendStyles(deps),
	)

	s.AddTool(
		mcp.NewTool("set_answers",
			mcp.WithDescription("Record questionnaire answers for one instrument. Values are Likert 1-7."),
			mcp.WithString("instrument", mcp.Description("Instrument name, e.g. big_five or writing_preferences"), mcp.Required()),
			mcp.WithString("answers", mcp.Description("JSON object mapping question ids to values, e.g. {\"ocean_1\": 6}"), mcp.Required()),
			mcp.WithString("user_id", mcp.Description("User to record for (defaults to the local user)")),
		),
		mcpSetAnswers(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"twin://latest",
			"Latest Twin",
			mcp.WithResourceDescription("Most recently built twin as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceTwin(deps),
	)

	return s
}

func mcpUserID(req mcp.CallToolRequest) string {
	if id := req.GetString("user_id", ""); id != "" {
		return id
	}
	return defaultUserID
}

func mcpGetWritingVoice(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := deps.Twins.Prompt(mcpUserID(req))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compile prompt: %v", err)), nil
		}
		return mcpText(prompt), nil
	}
}

func mcpGetDossier(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := deps.Twins.Profile(mcpUserID(req))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load profile: %v", err)), nil
		}

		b, err := json.Marshal(dossier.Generate(p))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal dossier: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecommendStyles(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := deps.Twins.Profile(mcpUserID(req))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load profile: %v", err)), nil
		}

		d := dossier.Generate(p)
		ids := styles.Recommend(d.Tone)

		authors := make([]styles.Author, 0, len(ids))
		for _, id := range ids {
			if a, ok := styles.Lookup(id); ok {
				authors = append(authors, a)
			}
		}

		b, err := json.Marshal(authors)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal styles: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSetAnswers(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		instrument, err := req.RequireString("instrument")
		if err != nil {
			return mcpError("instrument is required"), nil
		}
		answersJSON, err := req.RequireString("answers")
		if err != nil {
			return mcpError("answers is required"), nil
		}

		var answers map[string]int
		if err := json.Unmarshal([]byte(answersJSON), &answers); err != nil {
			return mcpError(fmt.Sprintf("invalid answers JSON: %v", err)), nil
		}
		if len(answers) == 0 {
			return mcpError("answers must not be empty"), nil
		}
		for id, v := range answers {
			if v < psych.ScaleMin || v > psych.ScaleMax {
				return mcpError(fmt.Sprintf("answer %s is %d, must be between %d and %d", id, v, psych.ScaleMin, psych.ScaleMax)), nil
			}
		}

		if err := deps.Twins.SetAnswers(mcpUserID(req), instrument, answers); err != nil {
			return mcpError(fmt.Sprintf("failed to save answers: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Recorded %d answers for %s", len(answers), instrument)), nil
	}
}

func mcpResourceTwin(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		rec, err := deps.Store.LatestTwin(defaultUserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load twin: %w", err)
		}

		b, err := json.Marshal(twinResponse(rec))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal twin: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
