package rulepack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const validPack = `[redaction]
allow_list = ['''@example\.org$''']

[[redaction.rules]]
category = "employee_id"
description = "Internal employee number"
pattern = '''\bEMP-\d{6}\b'''

[[redaction.rules]]
category = "email"
pattern = '''[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}'''

[extraction]
commitments = ["ship", "demo"]
actionable = ["demo"]
org_suffixes = ["GmbH"]
`

func writePack(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// replacePack swaps the file in with a rename so the watcher sees one event.
func replacePack(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0600))
	require.NoError(t, os.Rename(tmp, path))
}

func TestLoad(t *testing.T) {
	t.Run("valid pack", func(t *testing.T) {
		path := writePack(t, t.TempDir(), validPack)

		pack, err := Load(path)
		require.NoError(t, err)
		require.Len(t, pack.Redaction.Rules, 2)
		assert.Equal(t, "employee_id", pack.Redaction.Rules[0].Category)
		assert.Equal(t, []string{"ship", "demo"}, pack.Extraction.Commitments)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := writePack(t, t.TempDir(), "[redaction\nbroken = ")
		_, err := Load(path)
		assert.True(t, errors.Is(err, ErrInvalidTOML))
	})

	t.Run("invalid rule regex", func(t *testing.T) {
		path := writePack(t, t.TempDir(), "[[redaction.rules]]\ncategory = \"x\"\npattern = '''[invalid'''\n")
		_, err := Load(path)
		assert.True(t, errors.Is(err, ErrInvalidRegex))
	})

	t.Run("invalid allow list regex", func(t *testing.T) {
		path := writePack(t, t.TempDir(), "[redaction]\nallow_list = ['''(open''']\n")
		_, err := Load(path)
		assert.True(t, errors.Is(err, ErrInvalidRegex))
	})
}

func TestBuild(t *testing.T) {
	path := writePack(t, t.TempDir(), validPack)
	engines, err := LoadEngines(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	got := engines.Redactor.Redact("EMP-123456 wrote to ops@corp.io and help@example.org")
	assert.Equal(t, "[REDACTED_EMPLOYEE_ID] wrote to [REDACTED_EMAIL] and help@example.org", got)

	items := engines.Extractor.Extract("Demo for Bosch Rexroth GmbH")
	require.Len(t, items, 2)
	assert.Equal(t, "next_action", string(items[0].Type))
	assert.Equal(t, "Bosch Rexroth GmbH", items[1].Label)
}

func TestLoadEnginesDefaults(t *testing.T) {
	engines, err := LoadEngines("", nil)
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED_EMAIL]", engines.Redactor.Redact("a@b.com"))
}

func TestWatcherReloads(t *testing.T) {
	path := writePack(t, t.TempDir(), "")

	holder := NewHolder(DefaultEngines(nil))
	w, err := NewWatcher(path, holder, zaptest.NewLogger(t))
	require.NoError(t, err)

	reloads := make(chan error, 16)
	w.OnReload = func(err error) { reloads <- err }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	assert.Equal(t, "EMP-654321", holder.Current().Redactor.Redact("EMP-654321"))

	replacePack(t, path, validPack)
	waitForReload(t, reloads, true)
	assert.Equal(t, "[REDACTED_EMPLOYEE_ID]", holder.Current().Redactor.Redact("EMP-654321"))

	replacePack(t, path, "[redaction\n")
	waitForReload(t, reloads, false)
	assert.Equal(t, "[REDACTED_EMPLOYEE_ID]", holder.Current().Redactor.Redact("EMP-654321"))
}

func waitForReload(t *testing.T, reloads <-chan error, wantOK bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-reloads:
			if (err == nil) == wantOK {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for rule pack reload")
		}
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	path := writePack(t, t.TempDir(), "")

	holder := NewHolder(DefaultEngines(nil))
	w, err := NewWatcher(path, holder, zaptest.NewLogger(t))
	require.NoError(t, err)
	w.Debounce = 200 * time.Millisecond

	reloads := make(chan error, 16)
	w.OnReload = func(err error) { reloads <- err }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(validPack), 0600))
	}
	waitForReload(t, reloads, true)
	assert.Equal(t, "[REDACTED_EMPLOYEE_ID]", holder.Current().Redactor.Redact("EMP-654321"))

	select {
	case err := <-reloads:
		t.Fatalf("unexpected second reload (err=%v)", err)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "rules.toml"), NewHolder(nil), nil)
	require.NoError(t, err)
	w.Stop()
}

func TestNewWatcherRequiresPath(t *testing.T) {
	_, err := NewWatcher("", NewHolder(nil), nil)
	assert.Error(t, err)
}
