package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		setupFiles map[string]string
		wantLen    int
		wantErr    bool
	}{
		{
			name: "single valid file",
			setupFiles: map[string]string{
				"en.yml": `entries:
  - word: run
    language: en
    senses:
      - definition: move fast
`,
			},
			wantLen: 1,
		},
		{
			name: "multiple files and extensions",
			setupFiles: map[string]string{
				"a.yml": `entries:
  - word: run
    language: en
`,
				"b.yaml": `entries:
  - word: correr
    language: es
`,
				"ignored.txt": "not yaml",
			},
			wantLen: 2,
		},
		{
			name:       "empty directory",
			setupFiles: map[string]string{},
			wantLen:    0,
		},
		{
			name: "invalid yaml",
			setupFiles: map[string]string{
				"bad.yml": "entries: [unclosed",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.setupFiles {
				require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
			}

			got, err := Load(dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, got.Len())
		})
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestDataset_Lookup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yml"), []byte(`entries:
  - word: Run
    language: EN
    senses:
      - definition: move fast
        part_of_speech: verb
`), 0644))

	d, err := Load(dir)
	require.NoError(t, err)

	tests := []struct {
		name     string
		query    string
		language string
		wantHit  bool
	}{
		{name: "exact", query: "run", language: "en", wantHit: true},
		{name: "normalized case", query: " RUN ", language: "En", wantHit: true},
		{name: "wrong language", query: "run", language: "es", wantHit: false},
		{name: "unknown word", query: "xyzzy", language: "en", wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := d.Lookup(tt.query, tt.language)
			assert.Equal(t, tt.wantHit, ok)
			if tt.wantHit {
				require.NotNil(t, entry)
				assert.Equal(t, "Run", entry.Word)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	d := Fallback()
	require.NotNil(t, d)
	assert.Greater(t, d.Len(), 0)

	entry, ok := d.Lookup("run", "en")
	require.True(t, ok)
	assert.NotEmpty(t, entry.Senses)

	_, ok = d.Lookup("xyzzy", "en")
	assert.False(t, ok)
}
