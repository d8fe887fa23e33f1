package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/flashcard"
	"github.com/urfave/cli/v2"
)

const mcpVersion = "0.1.0"

// transcriptTools is the part of the engine the MCP tools call.
type transcriptTools interface {
	Query(ctx context.Context, text string) (*core.QueryResult, error)
	GenerateFlashcards(ctx context.Context, chapters []string) (*flashcard.Result, error)
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the indexed transcript as MCP tools over stdio",
		Action: func(c *cli.Context) error {
			engine, err := openEngine(c)
			if err != nil {
				return err
			}
			defer engine.Close()

			s := newMCPServer(engine, settings(c).Server.RequestTimeout)
			return mcpserver.ServeStdio(s)
		},
	}
}

func newMCPServer(tools transcriptTools, timeout time.Duration) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("lectern", mcpVersion, mcpserver.WithToolCapabilities(false))
	s.AddTool(askTranscriptTool(), makeAskHandler(tools, timeout))
	s.AddTool(makeFlashcardTool(), makeFlashcardHandler(tools, timeout))
	return s
}

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(false),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func askTranscriptTool() mcp.Tool {
	return mcp.NewTool("ask_transcript",
		mcp.WithDescription("Answer a question using the indexed lecture transcript. Returns the answer followed by the transcript segments it was grounded on."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question about the lecture"),
		),
	)
}

func makeFlashcardTool() mcp.Tool {
	return mcp.NewTool("make_flashcard",
		mcp.WithDescription("Write one question/answer flashcard about a passage of the lecture. Returns a JSON object with Question and Answer."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("chapter",
			mcp.Required(),
			mcp.Description("Passage of the transcript to make a flashcard from"),
		),
	)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func makeAskHandler(tools transcriptTools, timeout time.Duration) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := strings.TrimSpace(req.GetString("question", ""))
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}

		ctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		result, err := tools.Query(ctx, question)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(result.Answer)
		if len(result.RetrievedTexts) > 0 {
			sb.WriteString("\n\nSources:\n")
			for i, text := range result.RetrievedTexts {
				fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeFlashcardHandler(tools transcriptTools, timeout time.Duration) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chapter := strings.TrimSpace(req.GetString("chapter", ""))
		if chapter == "" {
			return mcp.NewToolResultError("chapter is required"), nil
		}

		ctx, cancel := withTimeout(ctx, timeout)
		defer cancel()
		result, err := tools.GenerateFlashcards(ctx, []string{chapter})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("flashcard generation failed: %v", err)), nil
		}
		if len(result.Flashcards) == 0 {
			return mcp.NewToolResultError("no valid flashcard could be extracted from the model output"), nil
		}

		data, err := json.Marshal(result.Flashcards[0])
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
