package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		override string
		env      map[string]string
		want     string
	}{
		{"override wins", "/etc/rwm", map[string]string{"XDG_CONFIG_HOME": "/xdg"}, "/etc/rwm"},
		{"xdg first", "", map[string]string{"XDG_CONFIG_HOME": "/xdg", "RWM_CONFIG_HOME": "/rwm"}, "/xdg/rwm"},
		{"rwm second", "", map[string]string{"RWM_CONFIG_HOME": "/rwm", "CONFIG_HOME": "/cfg"}, "/rwm/rwm"},
		{"config home third", "", map[string]string{"CONFIG_HOME": "/cfg"}, "/cfg/rwm"},
		{"home fallback", "", nil, filepath.Join(home, ".config", "rwm")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			got, err := ResolveDir(tt.override, getenv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "Games", "RimWorld"), ExpandHome("~/Games/RimWorld"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}

func TestDefaultPaths(t *testing.T) {
	assert.Equal(t, "/cfg/rwm/steamcmd/steamcmd.sh", DefaultSteamCmdPath("/cfg/rwm"))
	assert.Equal(t, "/cfg/rwm/data", DataDir("/cfg/rwm"))
	assert.Len(t, DefaultGamePaths(), 4)
}
