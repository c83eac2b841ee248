package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheetBody = `/*O_o*/
google.visualization.Query.setResponse({"version":"0.6","status":"ok","table":{"rows":[{"c":[{"v":"Pink Chiffon"},{"v":"Bibit"}]},{"c":[{"v":"Guess Pink"},{"v":"Botol"}]},{"c":[{"v":"Aqua Di Gio"},{"v":"Bibit"}]}]}});`

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "catalog")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestCatalogSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sheetBody))
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "keyword matches case-insensitively",
			args:     []string{"pink"},
			contains: []string{"PINK CHIFFON", "GUESS PINK", "Botol", "page 1/1, 2 entries"},
			excludes: []string{"AQUA DI GIO"},
		},
		{
			name:     "empty keyword lists everything",
			contains: []string{"AQUA DI GIO", "3 entries"},
		},
		{
			name:     "no match",
			args:     []string{"vanilla"},
			contains: []string{`no entries match "vanilla"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"catalog", "search", "--sheet-url", srv.URL}, tt.args...)
			out, err := runCommand(t, args...)
			require.NoError(t, err)

			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestCatalogSearch_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := runCommand(t, "catalog", "search", "--sheet-url", srv.URL, "pink")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch catalog")
}

func TestServe_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("GOOGLE_APPS_SCRIPT_URL", "")
	t.Setenv("LEDGER_URL", "")

	_, err := runCommand(t, "serve", "--config", t.TempDir()+"/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
