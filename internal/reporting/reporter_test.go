// internal/reporting/reporter_test.go
package reporting_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scribe/internal/action"
	"github.com/xkilldash9x/scribe/internal/reporting"
)

func sampleResult() reporting.Result {
	return reporting.Result{
		Script: "const { test } = require('@playwright/test');\n",
		Log: action.SavedLog{
			SessionID: "s-1",
			StartURL:  "https://app.test/",
			StartedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			Actions: []action.Action{
				action.Navigation{URL: "https://app.test/"},
				action.Input{Selector: "#q", TagName: "INPUT", Value: "hello"},
			},
		},
	}
}

func TestNew_Stdout(t *testing.T) {
	for _, path := range []string{"", "-", "stdout"} {
		var buf bytes.Buffer
		r, err := reporting.New(reporting.FormatScript, path, &buf)
		require.NoError(t, err)
		require.NoError(t, r.Write(sampleResult()))
		assert.NoError(t, r.Close())
		assert.Equal(t, sampleResult().Script, buf.String())
	}
}

func TestNew_UnsupportedFormat(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "out.txt")
	r, err := reporting.New("sarif", tmpFile, nil)
	assert.Nil(t, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format: sarif")

	_, err = os.Stat(tmpFile)
	assert.True(t, os.IsNotExist(err), "no file is created for a rejected format")
}

func TestScriptFile_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "recorded.spec.js")

	r, err := reporting.New(reporting.FormatScript, path, nil)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleResult()))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleResult().Script, string(data))
}

func TestActions_RoundTrip(t *testing.T) {
	for _, name := range []string{"actions.json", "actions.json.br"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			r, err := reporting.New(reporting.FormatActions, path, nil)
			require.NoError(t, err)
			require.NoError(t, r.Write(sampleResult()))
			require.NoError(t, r.Close())

			saved, err := reporting.ReadActions(path)
			require.NoError(t, err)
			assert.Equal(t, sampleResult().Log, saved)
		})
	}
}

func TestActions_CompressedIsNotPlainJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.json.br")
	r, err := reporting.New(reporting.FormatActions, path, nil)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleResult()))
	require.NoError(t, r.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sessionId")
}

func TestReadActions_Missing(t *testing.T) {
	_, err := reporting.ReadActions(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
