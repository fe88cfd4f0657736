package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
telegram:
  token: "123:abc"
disk:
  token: "oauth-token"
categories:
  - key: mh
    title: "Left at MH"
    folder: "Left at MH"
  - key: nv
    folder: "NV"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "https://cloud-api.yandex.net/v1/disk", cfg.Disk.BaseURL)
	assert.Equal(t, "disk:", cfg.Disk.Root)
	assert.Equal(t, "images", cfg.Staging.Dir)
	assert.Equal(t, 10, cfg.Search.PreviewLimit)
	assert.Equal(t, 0, cfg.Search.MaxDepth)
	assert.Equal(t, time.Duration(0), cfg.Search.CacheTTL())
	assert.False(t, cfg.Journal.Enabled)

	// Title falls back to folder when omitted.
	nv, ok := cfg.CategoryByKey("nv")
	require.True(t, ok)
	assert.Equal(t, "NV", nv.Title)

	_, ok = cfg.CategoryByKey("missing")
	assert.False(t, ok)
}

func TestLoadRequiresDiskToken(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
categories:
  - key: a
    folder: A
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk.token")
}

func TestLoadRejectsDuplicateCategoryKeys(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
disk:
  token: "oauth-token"
categories:
  - key: a
    folder: A
  - key: a
    folder: B
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate category key")
}

func TestLoadJournalRequiresDatabase(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
disk:
  token: "oauth-token"
categories:
  - key: a
    folder: A
journal:
  enabled: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal.enabled requires")
}

func TestCacheTTL(t *testing.T) {
	s := SearchConfig{CacheTTLSeconds: 30}
	assert.Equal(t, 30*time.Second, s.CacheTTL())
}
