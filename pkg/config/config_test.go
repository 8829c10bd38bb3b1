package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotEmpty(t, cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 60*time.Second, cfg.Test.DefaultDuration)
	assert.Greater(t, cfg.Test.PassFailVoltage, 0.0)
	assert.NotEmpty(t, cfg.Test.HistoryFile)
	assert.Greater(t, cfg.Sim.LoadResistance, 0.0)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
serial:
  port: COM7
test:
  pass_fail_voltage: 3.2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "COM7", cfg.Serial.Port)
	assert.InDelta(t, 3.2, cfg.Test.PassFailVoltage, 1e-9)

	// Missing fields fall back to defaults.
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 60*time.Second, cfg.Test.DefaultDuration)
	assert.InDelta(t, 18.0, cfg.Sim.LoadResistance, 1e-9)
}

func TestLoad_ZeroNoiseKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
sim:
  noise_level: 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Zero noise is a valid noise-free simulation, not a missing field.
	assert.Zero(t, cfg.Sim.NoiseLevel)
	// The other sim fields still get their defaults.
	assert.InDelta(t, 8.0, cfg.Sim.InternalResistance, 1e-9)
	assert.Equal(t, 10*time.Millisecond, cfg.Sim.TickInterval)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Serial.Port = "/dev/ttyACM1"
	cfg.Test.DefaultDuration = 5 * time.Minute
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
