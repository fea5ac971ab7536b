package refdata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFilter_ShouldExclude(t *testing.T) {
	t.Parallel()

	f := NewSourceFilter("**/*Test.java")

	tests := []struct {
		path string
		want bool
	}{
		{path: "Codes.java", want: false},
		{path: "com/example/ErrorCodes.java", want: false},
		{path: "build/Codes.java", want: true},
		{path: "module/target/classes/Codes.java", want: true},
		{path: "web/node_modules/pkg/Codes.java", want: true},
		{path: ".git/Codes.java", want: true},
		{path: "com/example/CodesTest.java", want: true},
		{path: "builder/Codes.java", want: false},
		{path: "com/output/Codes.java", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ShouldExclude(filepath.FromSlash(tt.path)))
		})
	}
}

func TestExpandSourcePattern_SkipsExcludedDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keep := writeFile(t, dir, "src/com/example/Codes.java", "")
	writeFile(t, dir, "src/build/Codes.java", "")
	writeFile(t, dir, "src/com/example/target/Codes.java", "")

	files, err := expandSourcePattern(filepath.Join(dir, "src", "**", "*.java"))
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)

	// An explicit path is never filtered
	explicit := filepath.Join(dir, "src", "build", "Codes.java")
	files, err = expandSourcePattern(explicit)
	require.NoError(t, err)
	assert.Equal(t, []string{explicit}, files)
}

func TestExpandSourcePattern_OnlyExcludedMatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "vendor/Codes.java", "")

	_, err := expandSourcePattern(filepath.Join(dir, "**", "*.java"))
	assert.ErrorIs(t, err, ErrNoSource)
}
