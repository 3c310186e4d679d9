package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args []string, path string) (Config, error) {
	t.Helper()
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, flags))
	require.NoError(t, flags.Parse(args))
	return Load(v, path)
}

func TestDefaults(t *testing.T) {
	cfg, err := load(t, nil, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lamlock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("group: file\nname: from-file\nreceive_timeout: 1s\nsuspect_after: 4s\n"), 0o600))
	t.Setenv("LAMLOCK_NAME", "from-env")
	t.Setenv("LAMLOCK_BEHAVIOR", "passive")

	cfg, err := load(t, []string{"--suspect-after=10s"}, path)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Group)
	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, "PASSIVE", cfg.Behavior)
	assert.Equal(t, time.Second, cfg.ReceiveTimeout)
	assert.Equal(t, 10*time.Second, cfg.SuspectAfter)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "suspect after must exceed receive timeout",
			modify: func(c *Config) { c.SuspectAfter = c.ReceiveTimeout },
			errMsg: `key="suspect_after"`,
		},
		{
			name:   "unknown behavior",
			modify: func(c *Config) { c.Behavior = "LAZY" },
			errMsg: `key="behavior", value="LAZY", failed "oneof" validation`,
		},
		{
			name:   "missing group",
			modify: func(c *Config) { c.Group = "" },
			errMsg: `key="group"`,
		},
		{
			name:   "grace shorter than heartbeat",
			modify: func(c *Config) { c.HeartbeatGrace = c.HeartbeatInterval / 2 },
			errMsg: `key="heartbeat_grace"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	cfg := Default()
	cfg.HeartbeatGrace = 0
	assert.NoError(t, Validate(cfg), "zero grace disables expiry")
}
