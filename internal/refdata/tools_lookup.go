package refdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// LookupArgument defines lookup parameters.
type LookupArgument struct {
	Query    string `json:"query" jsonschema_description:"Constant name, value or description fragment (e.g., HTTP_OK, 404, timeout)"`
	Limit    int    `json:"limit,omitempty" jsonschema_description:"Maximum number of results (defaults to the server's max results)"`
	Category string `json:"category,omitempty" jsonschema_description:"Only return references in this category (e.g., HTTP, Error Codes)"`
}

// LookupHandler handles the lookup_reference MCP tool.
type LookupHandler struct {
	service *Service
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(service *Service) *LookupHandler {
	return &LookupHandler{
		service: service,
	}
}

// Handle runs a tiered lookup and returns formatted results.
func (h *LookupHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args LookupArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	if args.Limit < 0 {
		return errorResult("Limit cannot be negative"), nil, nil
	}

	h.service.LoadAsync()
	if !h.service.Ready() {
		return errorResult("Reference data is still loading. Please try again shortly."), nil, nil
	}

	limit := args.Limit
	if limit == 0 {
		limit = h.service.MaxResults()
	}

	results := h.service.Lookup(args.Query, args.Category, limit)
	return textResult(formatLookup(results, args)), nil, nil
}

func formatLookup(results []*domain.Record, args LookupArgument) string {
	if len(results) == 0 {
		if args.Category != "" {
			return fmt.Sprintf("No references found for query: %s (category: %s)", args.Query, args.Category)
		}
		return fmt.Sprintf("No references found for query: %s", args.Query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d references for '%s':\n\n", len(results), args.Query))
	for i, r := range results {
		writeRecord(&sb, i+1, r)
	}
	return sb.String()
}

func writeRecord(sb *strings.Builder, n int, r *domain.Record) {
	sb.WriteString(fmt.Sprintf("### %d. %s\n", n, r.Code))
	if r.Value != "" {
		sb.WriteString(fmt.Sprintf("**Value**: `%s`\n", r.Value))
	}
	if r.Category != "" {
		sb.WriteString(fmt.Sprintf("**Category**: %s\n", r.Category))
	}
	if len(r.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("**Tags**: %s\n", strings.Join(r.Tags, ", ")))
	}
	if r.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(r.Description)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// GetToolDefinition returns the MCP tool definition.
func (h *LookupHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "lookup_reference",
		Description: "Look up reference constants (error codes, status codes, HTTP codes) by name, value or description. Exact matches come first, then substring matches; fuzzy matching is used only when nothing else matches.",
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}
