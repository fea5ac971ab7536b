package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/sha1n/mcp-reflookup-server/internal/config"
	"github.com/sha1n/mcp-reflookup-server/internal/refdata"
)

// noopValidate is a no-op validation function for tests
func noopValidate(*config.Settings) error {
	return nil
}

func sseSettings(*pflag.FlagSet) (*config.Settings, error) {
	return &config.Settings{Transport: "sse"}, nil
}

func TestRunWithDeps_ErrorCases(t *testing.T) {
	tests := []struct {
		name           string
		params         RunParams
		wantErrContain string
	}{
		{
			name: "LoadSettings error",
			params: RunParams{
				LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
					return nil, errors.New("settings error")
				},
				ValidSettings: noopValidate,
			},
			wantErrContain: "failed to load settings",
		},
		{
			name: "ValidSettings error",
			params: RunParams{
				LoadSettings: sseSettings,
				ValidSettings: func(*config.Settings) error {
					return errors.New("validation error")
				},
			},
			wantErrContain: "invalid configuration",
		},
		{
			name: "CreateServer error",
			params: RunParams{
				LoadSettings:  sseSettings,
				ValidSettings: noopValidate,
				CreateServer: func(*config.Settings) (*mcp.Server, *refdata.Service, func(), error) {
					return nil, nil, nil, errors.New("create server error")
				},
			},
			wantErrContain: "create server error",
		},
		{
			name: "StartSSEServer error",
			params: RunParams{
				LoadSettings:  sseSettings,
				ValidSettings: noopValidate,
				CreateServer: func(*config.Settings) (*mcp.Server, *refdata.Service, func(), error) {
					return nil, nil, nil, nil
				},
				StartSSEServer: func(*mcp.Server, *config.Settings, StatusProvider) error {
					return errors.New("sse start error")
				},
			},
			wantErrContain: "sse start error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RunWithDeps(context.Background(), tt.params, nil, "test")
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErrContain)
			}
			if !strings.Contains(err.Error(), tt.wantErrContain) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErrContain, err.Error())
			}
		})
	}
}

func TestRunWithDeps_Cleanup(t *testing.T) {
	cleanupCalled := false
	params := RunParams{
		LoadSettings:  sseSettings,
		ValidSettings: noopValidate,
		CreateServer: func(*config.Settings) (*mcp.Server, *refdata.Service, func(), error) {
			return nil, nil, func() { cleanupCalled = true }, nil
		},
		StartSSEServer: func(*mcp.Server, *config.Settings, StatusProvider) error {
			return errors.New("intentional error to trigger cleanup")
		},
	}

	_ = RunWithDeps(context.Background(), params, nil, "test")

	if !cleanupCalled {
		t.Error("Cleanup was not called")
	}
}

func TestRunWithDeps_PassesStatusToSSE(t *testing.T) {
	svc, err := refdata.NewService(&config.ReferenceSettings{})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	defer func() { _ = svc.Close() }()

	tests := []struct {
		name    string
		service *refdata.Service
		wantNil bool
	}{
		{name: "with service", service: svc, wantNil: false},
		{name: "without service", service: nil, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StatusProvider
			params := RunParams{
				LoadSettings:  sseSettings,
				ValidSettings: noopValidate,
				CreateServer: func(*config.Settings) (*mcp.Server, *refdata.Service, func(), error) {
					return nil, tt.service, nil, nil
				},
				StartSSEServer: func(_ *mcp.Server, _ *config.Settings, status StatusProvider) error {
					got = status
					return nil
				},
			}

			if err := RunWithDeps(context.Background(), params, nil, "test"); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("Expected nil status provider = %v, got %v", tt.wantNil, got)
			}
		})
	}
}

func TestDefaultRunParams(t *testing.T) {
	params := DefaultRunParams()

	if params.LoadSettings == nil {
		t.Error("LoadSettings is nil")
	}
	if params.ValidSettings == nil {
		t.Error("ValidSettings is nil")
	}
	if params.StartSSEServer == nil {
		t.Error("StartSSEServer is nil")
	}
	if params.CreateServer == nil {
		t.Error("CreateServer is nil")
	}
}

func TestRunWithDeps_StdioWithCustomTransport(t *testing.T) {
	transportUsed := false
	customTransport := &mockTransport{
		connectCalled: &transportUsed,
	}

	params := RunParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return &config.Settings{Transport: "stdio"}, nil
		},
		ValidSettings: noopValidate,
		CreateServer: func(*config.Settings) (*mcp.Server, *refdata.Service, func(), error) {
			impl := &mcp.Implementation{Name: "test", Version: "1.0"}
			server := mcp.NewServer(impl, nil)
			return server, nil, nil, nil
		},
		CustomIOTransport: customTransport,
	}

	// Use a cancelled context to avoid hanging
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = RunWithDeps(ctx, params, nil, "test")

	if !transportUsed {
		t.Error("Custom transport Connect was not called")
	}
}

func TestRunWithDeps_StdioServesReferences(t *testing.T) {
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	params := DefaultRunParams()
	params.LoadSettings = func(*pflag.FlagSet) (*config.Settings, error) {
		return &config.Settings{Transport: "stdio"}, nil
	}
	params.ValidSettings = noopValidate
	params.CustomIOTransport = serverTransport

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunWithDeps(ctx, params, nil, "test") }()
	defer func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Server did not stop")
		}
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Client connect failed: %v", err)
	}
	defer func() { _ = session.Close() }()

	// The bundled dataset loads in the background
	deadline := time.Now().Add(5 * time.Second)
	for {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "lookup_reference",
			Arguments: map[string]any{"query": "HTTP_NOT_FOUND"},
		})
		if err != nil {
			t.Fatalf("CallTool failed: %v", err)
		}
		text := res.Content[0].(*mcp.TextContent).Text
		if !res.IsError {
			if !strings.Contains(text, "### 1. HTTP_NOT_FOUND") {
				t.Errorf("Unexpected lookup output: %s", text)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("References never became ready: %s", text)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestCreateMCPServer(t *testing.T) {
	settings := &config.Settings{
		Transport: "stdio",
	}

	server, svc, cleanup, err := CreateMCPServer(settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if server == nil {
		t.Error("Expected server to be created")
	}
	if svc == nil {
		t.Fatal("Expected reference service to be created")
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.WaitLoaded(ctx); err != nil {
		t.Fatalf("WaitLoaded failed: %v", err)
	}
	if st := svc.Status(); st.Source != refdata.SourceBundled || st.Records == 0 {
		t.Errorf("Expected bundled records, got %+v", st)
	}
}

func TestCreateMCPServer_InvalidExtractor(t *testing.T) {
	settings := &config.Settings{
		Reference: config.ReferenceSettings{Extractor: "antlr"},
	}

	_, _, _, err := CreateMCPServer(settings)
	if err == nil {
		t.Fatal("Expected error for unknown extractor")
	}
}

func TestCreateMCPServer_WatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Codes.java")
	if err := os.WriteFile(path, []byte("class C {\n  static final int HTTP_OK = 200;\n}\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	settings := &config.Settings{
		Reference: config.ReferenceSettings{
			JavaPath:      path,
			Watch:         true,
			WatchDebounce: 20 * time.Millisecond,
		},
	}

	_, svc, cleanup, err := CreateMCPServer(settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.WaitLoaded(ctx); err != nil {
		t.Fatalf("WaitLoaded failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("class C {\n  static final int HTTP_ACCEPTED = 202;\n}\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(svc.Search("HTTP_ACCEPTED", 0)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Change was not picked up")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// mockTransport implements mcp.Transport for testing
type mockTransport struct {
	connectCalled *bool
}

func (m *mockTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	if m.connectCalled != nil {
		*m.connectCalled = true
	}
	return nil, errors.New("mock transport - no real connection")
}
