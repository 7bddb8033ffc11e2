package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.NotEmpty(t, c.DatabaseDSN)
	assert.Equal(t, 24*time.Hour, c.TokenValidityDuration)
	assert.Equal(t, 30*time.Second, c.SyncTimeout)
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"server", "-a", ":9090", "-d", "postgres://x", "-s", "sk", "-t", "60", "-y", "10"}

	c := &Config{}
	c.LoadDefaults()
	parseFlags(c)

	assert.Equal(t, ":9090", c.EndpointAddr)
	assert.Equal(t, "postgres://x", c.DatabaseDSN)
	assert.Equal(t, "sk", c.SecretKey)
	assert.Equal(t, time.Hour, c.TokenValidityDuration)
	assert.Equal(t, 10*time.Second, c.SyncTimeout)
}

func TestParseFlagsKeepsDefaults(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"server"}

	c := &Config{}
	c.LoadDefaults()
	parseFlags(c)

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, 30*time.Second, c.SyncTimeout)
}

func TestParseJson(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	content := `{
		"endpoint_addr": ":7070",
		"database_dsn": "postgres://json",
		"secret_key": "json-secret",
		"token_validity_duration": "12h",
		"sync_timeout": "45s"
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	os.Args = []string{"server", "-c", path}

	c := &Config{}
	c.LoadDefaults()
	parseJson(c)

	assert.Equal(t, ":7070", c.EndpointAddr)
	assert.Equal(t, "postgres://json", c.DatabaseDSN)
	assert.Equal(t, "json-secret", c.SecretKey)
	assert.Equal(t, 12*time.Hour, c.TokenValidityDuration)
	assert.Equal(t, 45*time.Second, c.SyncTimeout)
}
