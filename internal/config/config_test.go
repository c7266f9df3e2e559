package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "driftd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, defaultAddr, cfg.Server.Addr)
	require.Equal(t, defaultLogLevel, cfg.Log.Level)
	require.Equal(t, defaultLogFormat, cfg.Log.Format)
	require.Equal(t, defaultHistoryPath, cfg.History.Path)
	require.Nil(t, cfg.IMC)
	require.Nil(t, cfg.MSSQL)
	require.Nil(t, cfg.Mattermost)
	require.Empty(t, cfg.ModJK)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: 0.0.0.0:8099
log:
  level: debug
  format: text
history:
  path: /tmp/driftd-test.db
imc:
  host: imc-1.example.com
  username: admin
  password: secret
  verify_tls: true
  timeout: 45s
mssql:
  server: db-1.example.com
  port: 11433
  user: sa
  password: hunter2
modjk:
  edge:
    url: http://edge-1.example.com/jkstatus
    user: status
    pass: hunter2
  core:
    url: http://core-1.example.com/jkstatus
mattermost:
  api_url: https://chat.example.com
  hook: abcdef
  channel: ops
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8099", cfg.Server.Addr)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Equal(t, "/tmp/driftd-test.db", cfg.History.Path)

	require.NotNil(t, cfg.IMC)
	require.Equal(t, "imc-1.example.com", cfg.IMC.Host)
	require.Equal(t, "admin", cfg.IMC.Username)
	require.True(t, cfg.IMC.VerifyTLS)
	require.Equal(t, 45*time.Second, cfg.IMC.Timeout)

	require.NotNil(t, cfg.MSSQL)
	require.Equal(t, "db-1.example.com", cfg.MSSQL.Server)
	require.Equal(t, 11433, cfg.MSSQL.Port)

	require.Len(t, cfg.ModJK, 2)
	require.Equal(t, "http://edge-1.example.com/jkstatus", cfg.ModJK["edge"].URL)
	require.Equal(t, "hunter2", cfg.ModJK["edge"].Password)
	require.Equal(t, "http://core-1.example.com/jkstatus", cfg.ModJK["core"].URL)

	require.NotNil(t, cfg.Mattermost)
	require.Equal(t, "https://chat.example.com", cfg.Mattermost.APIURL)
	require.Equal(t, "abcdef", cfg.Mattermost.Hook)
	require.Equal(t, "ops", cfg.Mattermost.Channel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DRIFTD_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("DRIFTD_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	require.Equal(t, "debug", cfg.Log.Level)
}
