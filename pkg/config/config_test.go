package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
audio:
  sample_rate: 8000
chunking:
  silence_duration: 1.5
transcription:
  api_key: from-file
  model: whisper-1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Audio.SampleRate)
	require.Equal(t, 1024, cfg.Audio.FrameSize) // default survives
	require.Equal(t, 1.5, cfg.Chunking.SilenceDuration)
	require.Equal(t, "from-file", cfg.Transcription.APIKey)
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transcription:\n  api_key: from-file\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Transcription.APIKey)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audio: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"zero sample rate":      func(c *Config) { c.Audio.SampleRate = 0 },
		"huge frame":            func(c *Config) { c.Audio.FrameSize = 100000 },
		"no calibration frames": func(c *Config) { c.VAD.CalibrationFrames = 0 },
		"zero silence":          func(c *Config) { c.Chunking.SilenceDuration = 0 },
		"negative overlap":      func(c *Config) { c.Chunking.OverlapDuration = -0.1 },
		"zero trigger frames":   func(c *Config) { c.Chunking.SpeechTriggerFrames = 0 },
		"empty model":           func(c *Config) { c.Transcription.Model = "" },
		"zero timeout":          func(c *Config) { c.Transcription.Timeout = 0 },
		"zero queue depth":      func(c *Config) { c.Session.QueueDepth = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, Default().Validate())
}

func TestSegmenterConfig(t *testing.T) {
	cfg := Default()
	cfg.Chunking.SilenceDuration = 1.5

	seg := cfg.SegmenterConfig()
	require.Equal(t, 16000, seg.SampleRate)
	require.Equal(t, 1024, seg.FrameSize)
	require.Equal(t, 1500*time.Millisecond, seg.SilenceDuration)
	require.Equal(t, 200*time.Millisecond, seg.OverlapDuration)
	require.Equal(t, 500*time.Millisecond, seg.MinSpeechDuration)
	require.Equal(t, 5, seg.PreRollFrames)
	require.Equal(t, 3, seg.SpeechTriggerFrames)
	require.Equal(t, 50, seg.CalibrationFrames)
}

func TestStopTimeoutDuration(t *testing.T) {
	cfg := Default()
	require.Equal(t, 20*time.Second, cfg.Session.StopTimeoutDuration())
}
