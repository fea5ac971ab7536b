package refdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReloadWaitTimeout bounds how long reload_references waits when asked to.
const ReloadWaitTimeout = 30 * time.Second

// CategoriesArgument defines list_reference_categories parameters.
type CategoriesArgument struct {
	Category string `json:"category,omitempty" jsonschema_description:"Category to list records for; omit to list all categories with counts"`
}

// CategoriesHandler handles the list_reference_categories MCP tool.
type CategoriesHandler struct {
	service *Service
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(service *Service) *CategoriesHandler {
	return &CategoriesHandler{service: service}
}

// Handle lists categories, or the records of a single category.
func (h *CategoriesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args CategoriesArgument) (*mcp.CallToolResult, any, error) {
	h.service.LoadAsync()
	if !h.service.Ready() {
		return errorResult("Reference data is still loading. Please try again shortly."), nil, nil
	}

	if args.Category == "" {
		names := h.service.Categories()
		if len(names) == 0 {
			return textResult("No reference categories available"), nil, nil
		}
		grouped := h.service.GroupedByCategory()
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d categories:\n\n", len(names)))
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("- %s (%d)\n", name, len(grouped[name])))
		}
		return textResult(sb.String()), nil, nil
	}

	name, ok := h.service.CategoryName(args.Category)
	if !ok {
		return errorResult(fmt.Sprintf("Category not found: %s", args.Category)), nil, nil
	}

	records := h.service.Category(name)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s (%d)\n\n", name, len(records)))
	for _, r := range records {
		sb.WriteString("- ")
		sb.WriteString(r.String())
		sb.WriteString("\n")
	}
	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *CategoriesHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_reference_categories",
		Description: "List reference categories with record counts, or all records in one category",
	}
}

// ReloadArgument defines reload_references parameters.
type ReloadArgument struct {
	Wait bool `json:"wait,omitempty" jsonschema_description:"Wait for the new dataset to be installed before returning"`
}

// ReloadHandler handles the reload_references MCP tool.
type ReloadHandler struct {
	service *Service
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(service *Service) *ReloadHandler {
	return &ReloadHandler{service: service}
}

// Handle starts a reload and optionally waits for it.
func (h *ReloadHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReloadArgument) (*mcp.CallToolResult, any, error) {
	h.service.Reload()
	gen := h.service.Generation()

	if !args.Wait {
		return textResult(fmt.Sprintf("Reload started (generation %d). Existing data is served until the new dataset is installed.", gen)), nil, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, ReloadWaitTimeout)
	defer cancel()

	if err := h.service.WaitLoaded(waitCtx); err != nil {
		return errorResult(fmt.Sprintf("Reload did not complete: %s", err)), nil, nil
	}

	st := h.service.Status()
	return textResult(fmt.Sprintf("Reload completed (generation %d): %d references from %s source", st.Generation, st.Records, st.Source)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ReloadHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "reload_references",
		Description: "Reload the reference dataset from its configured sources",
	}
}

// RegisterTools registers all reference tools with an MCP server.
func RegisterTools(server *mcp.Server, service *Service) {
	lookup := NewLookupHandler(service)
	mcp.AddTool(server, lookup.GetToolDefinition(), lookup.Handle)

	categories := NewCategoriesHandler(service)
	mcp.AddTool(server, categories.GetToolDefinition(), categories.Handle)

	reload := NewReloadHandler(service)
	mcp.AddTool(server, reload.GetToolDefinition(), reload.Handle)
}
