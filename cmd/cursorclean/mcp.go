package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ba0f3/cursorclean/internal/paths"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the read-only operations over MCP (stdio)",
	Long: `Start an MCP server on stdin/stdout exposing list_databases, analyze,
count_categories and check_integrity. Nothing exposed here writes to disk.`,
	Args: cobra.NoArgs,
	RunE: runMCPServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServer(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	return newMCPServer(s).Run(cmd.Context(), &mcp.StdioTransport{})
}

func newMCPServer(s *session) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "cursorclean", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_databases",
		Description: "List Cursor's state databases (project, workspaces, global) with their sizes.",
	}, listDatabasesTool(s))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze",
		Description: "Report tables, row counts and the largest keys of a state database. Read-only.",
	}, analyzeTool(s))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "count_categories",
		Description: "Count rows and bytes per known key category (chat bubbles, composer sessions, checkpoints...). Read-only.",
	}, countCategoriesTool(s))
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_integrity",
		Description: "Run quick_check and integrity_check on every state database, or only the global one.",
	}, checkIntegrityTool(s))
	return server
}

type databaseArgs struct {
	Database string `json:"database,omitempty" jsonschema:"database label from list_databases (default Global)"`
}

type integrityArgs struct {
	GlobalOnly bool `json:"globalOnly,omitempty" jsonschema:"only check the global database"`
}

func toolError(msg string, err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: msg + ": " + err.Error()}}, IsError: true}
}

// findDatabase resolves a label; an empty label means the global database.
func findDatabase(s *session, label string) (paths.StateDatabase, error) {
	if label == "" || strings.EqualFold(label, "Global") {
		if g, ok := s.layout.Global(); ok {
			return g, nil
		}
		return paths.StateDatabase{}, fmt.Errorf("no global state database found under %s", s.layout.AppDataDir)
	}
	for _, db := range s.layout.StateDatabases() {
		if strings.EqualFold(db.Label, label) {
			return db, nil
		}
	}
	return paths.StateDatabase{}, fmt.Errorf("no state database labelled %q", label)
}

func listDatabasesTool(s *session) func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
		dbs := s.layout.StateDatabases()
		if len(dbs) == 0 {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "No state databases found."}}}, nil, nil
		}
		lines := make([]string, 0, len(dbs))
		structured := make([]map[string]any, 0, len(dbs))
		for _, db := range dbs {
			size := paths.FileSize(db.Path)
			lines = append(lines, fmt.Sprintf("%s\t%s\t%s", db.Label, formatBytes(size), db.Path))
			structured = append(structured, map[string]any{"label": db.Label, "path": db.Path, "size": size})
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: strings.Join(lines, "\n")}},
			StructuredContent: map[string]any{"databases": structured},
		}, nil, nil
	}
}

func analyzeTool(s *session) func(context.Context, *mcp.CallToolRequest, databaseArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args databaseArgs) (*mcp.CallToolResult, any, error) {
		db, err := findDatabase(s, args.Database)
		if err != nil {
			return toolError("Analyze failed", err), nil, nil
		}
		report, err := s.maint.Analyze(ctx, db)
		if err != nil {
			return toolError("Analyze failed", err), nil, nil
		}
		var buf bytes.Buffer
		printAnalysis(&buf, report)
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: buf.String()}},
			StructuredContent: report,
		}, nil, nil
	}
}

func countCategoriesTool(s *session) func(context.Context, *mcp.CallToolRequest, databaseArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args databaseArgs) (*mcp.CallToolResult, any, error) {
		db, err := findDatabase(s, args.Database)
		if err != nil {
			return toolError("Count failed", err), nil, nil
		}
		counts, err := s.maint.CountCategories(ctx, db)
		if err != nil {
			return toolError("Count failed", err), nil, nil
		}
		var buf bytes.Buffer
		_ = printCategories(&buf, counts)
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: buf.String()}},
			StructuredContent: map[string]any{"categories": counts},
		}, nil, nil
	}
}

func checkIntegrityTool(s *session) func(context.Context, *mcp.CallToolRequest, integrityArgs) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, args integrityArgs) (*mcp.CallToolResult, any, error) {
		var dbs []paths.StateDatabase
		if args.GlobalOnly {
			if g, ok := s.layout.Global(); ok {
				dbs = append(dbs, g)
			}
		} else {
			dbs = s.layout.StateDatabases()
		}
		summary, err := s.maint.CheckAll(ctx, dbs)
		if err != nil {
			return toolError("Integrity check failed", err), nil, nil
		}
		lines := make([]string, 0, len(summary.Results)+1)
		for _, r := range summary.Results {
			switch {
			case r.Err != nil:
				lines = append(lines, fmt.Sprintf("ERROR %s: %v", r.Database.Label, r.Err))
			case r.OK:
				lines = append(lines, "OK    "+r.Database.Label)
			default:
				lines = append(lines, fmt.Sprintf("FAIL  %s: %s: %s", r.Database.Label, r.Stage, r.Reason))
			}
		}
		lines = append(lines, "Integrity: "+summary.String())
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: strings.Join(lines, "\n")}},
			StructuredContent: map[string]any{"passed": summary.Passed(), "total": summary.Total(), "results": summary.Results},
		}, nil, nil
	}
}

