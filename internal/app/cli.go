package app

import "github.com/spf13/pflag"

// RegisterFlags registers the server CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
}

// RegisterReferenceFlags registers the reference dataset flags. They are shared
// by the server and the terminal subcommands.
func RegisterReferenceFlags(flags *pflag.FlagSet) {
	flags.StringP("reference-java-path", "j", "", "Java constants file or glob (e.g. src/**/*Codes.java)")
	flags.String("reference-json-path", "", "JSON or YAML reference dataset")
	flags.Bool("reference-prefer-json", false, "Load the JSON dataset before the Java source")
	flags.String("reference-extractor", "", "Constant extractor: auto, text, or treesitter")
	flags.BoolP("reference-watch", "w", false, "Reload when the reference sources change")
	flags.Duration("reference-watch-debounce", 0, "Quiet period before a change triggers a reload")
	flags.Int("reference-cache-size", 0, "Number of cached lookup results (0 uses the default)")
	flags.Int("reference-max-results", 0, "Default maximum number of lookup results")
	flags.Int64("reference-max-file-size", 0, "Maximum size of a reference source file in bytes")
	flags.Int("reference-workers", 0, "Concurrent file extractions for glob sources")
}
