package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadResolvesGateway(t *testing.T) {
	path := writeConfig(t, `{
		"gateway": {
			"host": "127.0.0.1",
			"port": 4002,
			"clientId": 7,
			"requestTimeoutSec": 30,
			"watchIntervalSec": 5
		}
	}`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", loaded.Client.Host)
	assert.Equal(t, 4002, loaded.Client.Port)
	assert.Equal(t, int64(7), loaded.Client.ClientID)
	assert.Equal(t, 30*time.Second, loaded.Client.RequestTimeout)
	assert.Equal(t, 5*time.Second, loaded.Client.WatchInterval)
	assert.Nil(t, loaded.Store)
	assert.False(t, loaded.Tape.Enabled)
}

func TestLoadResolvesStoreAndTape(t *testing.T) {
	path := writeConfig(t, `{
		"gateway": {"host": "gw", "port": 4001, "clientId": 1},
		"store": {
			"enabled": true,
			"host": "db", "port": 5432,
			"user": "ib", "password": "secret", "database": "ibcache"
		},
		"tape": {"enabled": true, "dir": "/var/tape"}
	}`)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded.Store)
	assert.Equal(t, "db", loaded.Store.Host)
	assert.Equal(t, "ibcache", loaded.Store.Database)
	assert.True(t, loaded.Tape.Enabled)
	assert.Equal(t, "/var/tape", loaded.Tape.Dir)
}

func TestLoadRejectsBadGateway(t *testing.T) {
	testCases := []struct {
		desc string
		body string
	}{
		{"missing host", `{"gateway": {"port": 4002, "clientId": 1}}`},
		{"bad port", `{"gateway": {"host": "gw", "port": 0, "clientId": 1}}`},
		{"negative clientId", `{"gateway": {"host": "gw", "port": 4002, "clientId": -1}}`},
		{"tape without dir", `{"gateway": {"host": "gw", "port": 4002}, "tape": {"enabled": true}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}
