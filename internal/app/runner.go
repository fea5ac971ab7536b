package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/sha1n/mcp-reflookup-server/internal/config"
	mcputil "github.com/sha1n/mcp-reflookup-server/internal/mcp"
	"github.com/sha1n/mcp-reflookup-server/internal/refdata"
)

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*mcp.Server, *config.Settings, StatusProvider) error
	CreateServer      func(*config.Settings) (*mcp.Server, *refdata.Service, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr to avoid buffering issues
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting reference lookup MCP server", "version", version)
	config.Log(settings)

	mcpServer, references, cleanup, err := params.CreateServer(settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	var status StatusProvider
	if references != nil {
		status = references
	}
	return params.StartSSEServer(mcpServer, settings, status)
}

// CreateMCPServer creates the reference service, starts loading it in the
// background and returns the MCP server with the reference tools registered.
func CreateMCPServer(settings *config.Settings) (*mcp.Server, *refdata.Service, func(), error) {
	svc, err := NewReferenceService(&settings.Reference, slog.Default())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create reference service: %w", err)
	}

	// Load in the background so the transport is up before the dataset
	svc.LoadAsync()

	if settings.Reference.Watch {
		if err := svc.StartWatching(context.Background()); err != nil {
			// Serving a static dataset is still useful
			slog.Error("Failed to watch reference sources", "error", err)
		}
	}

	cleanup := func() {
		if err := svc.Close(); err != nil {
			slog.Error("Failed to close reference service", "error", err)
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:       "reflookup-mcp",
		Version:    "1.0.0",
		References: svc,
	})

	return server, svc, cleanup, nil
}
