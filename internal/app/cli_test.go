package app

import (
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/sha1n/mcp-reflookup-server/internal/config"
)

func TestRegisterFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)

	// Verify all flags are registered
	expectedFlags := []string{
		"transport",
		"host",
		"port",
		"auth-type",
		"auth-basic-username",
		"auth-basic-password",
		"auth-api-keys",
	}

	for _, name := range expectedFlags {
		if flags.Lookup(name) == nil {
			t.Errorf("Expected flag %q to be registered", name)
		}
	}
}

func TestRegisterFlags_Shorthand(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)

	shorthandFlags := map[string]string{
		"transport":           "t",
		"host":                "H",
		"port":                "p",
		"auth-type":           "a",
		"auth-basic-username": "u",
		"auth-basic-password": "P",
		"auth-api-keys":       "k",
	}

	for name, shorthand := range shorthandFlags {
		flag := flags.Lookup(name)
		if flag == nil {
			t.Errorf("Flag %q not found", name)
			continue
		}
		if flag.Shorthand != shorthand {
			t.Errorf("Flag %q expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
		}
	}
}

func TestRegisterFlags_SetValues(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)

	err := flags.Parse([]string{
		"--transport", "sse",
		"--host", "localhost",
		"--port", "9090",
		"--auth-type", "basic",
	})
	if err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	transport, _ := flags.GetString("transport")
	if transport != "sse" {
		t.Errorf("Expected transport 'sse', got '%s'", transport)
	}

	host, _ := flags.GetString("host")
	if host != "localhost" {
		t.Errorf("Expected host 'localhost', got '%s'", host)
	}

	port, _ := flags.GetInt("port")
	if port != 9090 {
		t.Errorf("Expected port 9090, got %d", port)
	}

	authType, _ := flags.GetString("auth-type")
	if authType != "basic" {
		t.Errorf("Expected auth-type 'basic', got '%s'", authType)
	}
}

func TestRegisterReferenceFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterReferenceFlags(flags)

	expectedFlags := []string{
		"reference-java-path",
		"reference-json-path",
		"reference-prefer-json",
		"reference-extractor",
		"reference-watch",
		"reference-watch-debounce",
		"reference-cache-size",
		"reference-max-results",
		"reference-max-file-size",
		"reference-workers",
	}

	for _, name := range expectedFlags {
		if flags.Lookup(name) == nil {
			t.Errorf("Expected flag %q to be registered", name)
		}
	}
}

func TestRegisterReferenceFlags_BindToSettings(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	RegisterReferenceFlags(flags)

	err := flags.Parse([]string{
		"-j", "/refs/Codes.java",
		"--reference-json-path", "/refs/codes.yaml",
		"--reference-prefer-json",
		"--reference-extractor", "TEXT",
		"-w",
		"--reference-watch-debounce", "2s",
		"--reference-max-results", "5",
		"--reference-workers", "8",
	})
	if err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	settings, err := config.LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("LoadSettingsWithFlags failed: %v", err)
	}

	ref := settings.Reference
	if ref.JavaPath != "/refs/Codes.java" {
		t.Errorf("Expected java path '/refs/Codes.java', got '%s'", ref.JavaPath)
	}
	if ref.JSONPath != "/refs/codes.yaml" {
		t.Errorf("Expected json path '/refs/codes.yaml', got '%s'", ref.JSONPath)
	}
	if !ref.PreferJSON {
		t.Error("Expected prefer json to be set")
	}
	if ref.Extractor != config.ExtractorText {
		t.Errorf("Expected extractor 'text', got '%s'", ref.Extractor)
	}
	if !ref.Watch {
		t.Error("Expected watch to be set")
	}
	if ref.WatchDebounce != 2*time.Second {
		t.Errorf("Expected debounce 2s, got %v", ref.WatchDebounce)
	}
	if ref.MaxResults != 5 {
		t.Errorf("Expected max results 5, got %d", ref.MaxResults)
	}
	if ref.Workers != 8 {
		t.Errorf("Expected workers 8, got %d", ref.Workers)
	}
	if ref.CacheSize != 256 {
		t.Errorf("Expected unset flag to keep default cache size 256, got %d", ref.CacheSize)
	}
}
