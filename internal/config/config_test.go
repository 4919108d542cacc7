package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesConsoleDefaults(t *testing.T) {
	c := Default()
	require.Equal(t, 100*time.Millisecond, c.Feed.Interval)
	require.Equal(t, FeedPoll, c.Feed.Mode)
	require.Equal(t, "admin", c.Operator.Username)
	require.NoError(t, c.Validate())
}

func TestLoadFile_Overlays(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swarmview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
remote:
  base_url: http://fleet.local:9000
feed:
  mode: stream
  interval: 250ms
audio:
  speech: false
`), 0o644))

	c := Default()
	require.NoError(t, c.LoadFile(path))
	require.Equal(t, "http://fleet.local:9000", c.Remote.BaseURL)
	require.Equal(t, FeedStream, c.Feed.Mode)
	require.Equal(t, 250*time.Millisecond, c.Feed.Interval)
	require.False(t, c.Audio.Speech)
	// Untouched keys keep their defaults.
	require.Equal(t, 2*time.Second, c.Remote.Timeout)
	require.Equal(t, "/stream", c.Feed.StreamPath)
}

func TestLoadFile_Missing(t *testing.T) {
	c := Default()
	require.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")))
	require.NoError(t, c.LoadFile(""))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBaseURL:  "http://env:1",
		EnvFeedMode: "STREAM",
		EnvUsername: "operator",
	}
	c := Default()
	c.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Equal(t, "http://env:1", c.Remote.BaseURL)
	require.Equal(t, FeedStream, c.Feed.Mode)
	require.Equal(t, "operator", c.Operator.Username)
	require.Equal(t, "password", c.Operator.Password)
}

func TestValidate_Rejects(t *testing.T) {
	c := Default()
	c.Feed.Interval = 0
	require.Error(t, c.Validate())

	c = Default()
	c.Feed.Mode = "carrier-pigeon"
	require.Error(t, c.Validate())

	c = Default()
	c.Remote.BaseURL = ""
	require.Error(t, c.Validate())
}

func TestFlags_OnlyChangedOverride(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var f Flags
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"--interval", "1s", "--no-speech"}))

	c := Default()
	c.Remote.BaseURL = "http://from-file"
	f.Apply(fs, &c)
	require.Equal(t, time.Second, c.Feed.Interval)
	require.Equal(t, "http://from-file", c.Remote.BaseURL)
	require.False(t, c.Audio.Speech)
}

func TestLoadDotEnv_SkipsMissing(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
