package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
instruments:
  - { id: NVDA, name: 英伟达, market: US, sina_code: gb_nvda, ticker: NVDA, query: NVIDIA stock news }
  - { id: "2330", name: 台积电, market: TW, ticker: 2330.TW, query: 台积电 新闻 }
`

func TestLoad_DefaultsApply(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 5000, cfg.Upstream.TimeoutMs)
	require.Equal(t, 30, cfg.Upstream.LookbackDays)
	require.Equal(t, 8, cfg.Resolver.MaxConcurrent)
	require.Equal(t, 900, cfg.News.CycleSleepSec)
	require.Equal(t, "data/app.db", cfg.Store.Sqlite.Path)
	require.Len(t, cfg.Instruments, 2)
	require.Equal(t, "gb_nvda", cfg.Instruments[0].SinaCode)
	require.Empty(t, cfg.Instruments[1].SinaCode)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9090
resolver:
  max_concurrent: 2
upstream:
  sina_url: http://127.0.0.1:1/list=
`+minimalConfig))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 2, cfg.Resolver.MaxConcurrent)
	require.Equal(t, "http://127.0.0.1:1/list=", cfg.Upstream.SinaURL)
}

func TestLoad_EnvPortOverride(t *testing.T) {
	t.Setenv("PORT", "7070")
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)

	t.Setenv("PORT", "not-a-port")
	_, err = Load(writeConfig(t, minimalConfig))
	require.Error(t, err)
}

func TestLoad_RejectsEmptyInstrumentList(t *testing.T) {
	_, err := Load(writeConfig(t, `server: { port: 8080 }`))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
