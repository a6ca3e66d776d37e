package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoadSelectsLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want language.Tag
	}{
		{"EN", language.English},
		{"en", language.English},
		{"PT", language.Portuguese},
		{"pt-BR", language.Portuguese},
		{"xx", language.English},
		{"", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			cat, err := Load(tt.lang, "")
			require.NoError(t, err)
			base, _ := cat.Language().Base()
			wantBase, _ := tt.want.Base()
			assert.Equal(t, wantBase, base)
		})
	}
}

func TestAvailable(t *testing.T) {
	cat, err := Load("EN", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"EN", "PT"}, cat.Available())
}

func TestFormatSubstitutesVars(t *testing.T) {
	cat, err := Load("EN", "")
	require.NoError(t, err)

	assert.Equal(t, "Folder '/tmp/x' not found.", cat.Format("folder_not_found", Vars{"folder": "/tmp/x"}))
	assert.Equal(t, "Backup finished.", cat.T("backup_finished"))
	assert.Equal(t,
		"Error while extracting 'Game': exit 2",
		cat.Format("error_extracting_detail_name", Vars{"name": "Game", "detail": "exit 2"}))
}

func TestFormatPercentIsLiteral(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("progress_line: \"{n}% done\"\n"), 0o644))

	cat, err := Load("EN", dir)
	require.NoError(t, err)
	assert.Equal(t, "30% done", cat.Format("progress_line", Vars{"n": "30"}))
}

func TestMissingKeyFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("only_english: \"English only\"\n"), 0o644))

	cat, err := Load("PT", dir)
	require.NoError(t, err)
	assert.Equal(t, "English only", cat.T("only_english"))
	assert.Equal(t, "no_such_key", cat.T("no_such_key"))
}

func TestOverrideReplacesAndAddsLocales(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("backup_finished: \"All done.\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "es.yaml"), []byte("backup_finished: \"Copia terminada.\"\n"), 0o644))

	cat, err := Load("EN", dir)
	require.NoError(t, err)
	assert.Equal(t, "All done.", cat.T("backup_finished"))
	assert.Contains(t, cat.Available(), "ES")

	es, err := Load("ES", dir)
	require.NoError(t, err)
	assert.Equal(t, "Copia terminada.", es.T("backup_finished"))
	// Keys the override does not carry still resolve through English.
	assert.Equal(t, "Restore finished.", es.T("restore_finished"))
}

func TestLoadRejectsBadOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("key: [unterminated\n"), 0o644))

	_, err := Load("EN", dir)
	assert.Error(t, err)
}

func TestMatchEmptyAvailable(t *testing.T) {
	assert.Equal(t, language.English, Match("PT", nil))
}

func TestEveryEnglishKeyTranslated(t *testing.T) {
	sub, err := subLocales()
	require.NoError(t, err)
	tables, err := readLocales(sub)
	require.NoError(t, err)
	en := tables[language.English]
	pt := tables[language.Portuguese]
	require.NotEmpty(t, en)
	for key := range en {
		assert.Contains(t, pt, key, "pt locale missing %s", key)
	}
}
