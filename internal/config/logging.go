package config

import (
	"context"
	"log/slog"
)

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport == "sse" {
		logger.InfoContext(ctx, "Config: host", "value", s.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Port)
	}

	logger.InfoContext(ctx, "Config: auth.type", "value", s.Auth.Type)
	switch s.Auth.Type {
	case AuthTypeBasic:
		logger.InfoContext(ctx, "Config: auth.basic.username", "value", s.Auth.Basic.Username)
		logger.InfoContext(ctx, "Config: auth.basic.password", "value", "****")
	case AuthTypeAPIKey:
		logger.InfoContext(ctx, "Config: auth.api_keys", "count", len(s.Auth.APIKeys))
	}

	r := s.Reference
	if r.PreferJSON {
		logger.InfoContext(ctx, "Config: reference.json_path", "value", r.JSONPath, "preferred", true)
	}
	if r.JavaPath != "" {
		logger.InfoContext(ctx, "Config: reference.java_path", "value", r.JavaPath)
		logger.InfoContext(ctx, "Config: reference.extractor", "value", r.Extractor)
	}
	if r.JSONPath != "" && !r.PreferJSON {
		logger.InfoContext(ctx, "Config: reference.json_path", "value", r.JSONPath)
	}
	if r.JavaPath == "" && r.JSONPath == "" {
		logger.InfoContext(ctx, "Config: reference source", "value", "bundled")
	}
	logger.InfoContext(ctx, "Config: reference.cache_size", "value", r.CacheSize)
	logger.InfoContext(ctx, "Config: reference.max_results", "value", r.MaxResults)
	if r.Watch {
		logger.InfoContext(ctx, "Config: reference.watch", "value", true, "debounce", r.WatchDebounce)
	}
}

// ReferenceSettingsLogValue returns a slog.Value for ReferenceSettings
func ReferenceSettingsLogValue(r ReferenceSettings) slog.Value {
	return slog.GroupValue(
		slog.String("java_path", r.JavaPath),
		slog.String("json_path", r.JSONPath),
		slog.Bool("prefer_json", r.PreferJSON),
		slog.String("extractor", r.Extractor),
		slog.Bool("watch", r.Watch),
		slog.Int("cache_size", r.CacheSize),
		slog.Int("max_results", r.MaxResults),
	)
}

// AuthSettingsLogValue returns a slog.Value for AuthSettings with masked data
func AuthSettingsLogValue(s AuthSettings) slog.Value {
	keys := make([]string, len(s.APIKeys))
	for i := range s.APIKeys {
		keys[i] = "****"
	}
	return slog.GroupValue(
		slog.String("type", s.Type),
		slog.Any("basic", BasicAuthSettingsLogValue(s.Basic)),
		slog.Any("api_keys", keys),
	)
}

// BasicAuthSettingsLogValue returns a slog.Value for BasicAuthSettings with masked data
func BasicAuthSettingsLogValue(s BasicAuthSettings) slog.Value {
	return slog.GroupValue(
		slog.String("username", s.Username),
		slog.String("password", "****"),
	)
}

// SettingsLogValue returns a slog.Value for Settings with masked data
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.Any("auth", AuthSettingsLogValue(s.Auth)),
		slog.Any("reference", ReferenceSettingsLogValue(s.Reference)),
	)
}
