package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: strip
spi:
  dev: /dev/spidev1.0
  speed_hz: 2400000
x_flip_every_row: true
speed_ms: 150
restart_on_print: true
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "strip", c.Driver)
	assert.Equal(t, SPI{Dev: "/dev/spidev1.0", SpeedHz: 2400000}, c.SPI)
	assert.True(t, c.XFlipEveryRow)
	assert.Equal(t, 150, c.SpeedMS)
	assert.True(t, c.RestartOnPrint)
	assert.Zero(t, c.BufferSize)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("speed_ms: [fast"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.SpeedMS = 90
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.True(t, got.set["speed_ms"])
	got.set = nil
	assert.Equal(t, c, got)
}

func TestMergeFileOverFlags(t *testing.T) {
	c := Default()
	c.Merge(&Config{Driver: "gpiocdev", Lines: []int{1, 2}, SpeedMS: 100})
	assert.Equal(t, "gpiocdev", c.Driver)
	assert.Equal(t, []int{1, 2}, c.Lines)
	assert.Equal(t, 100, c.SpeedMS)
	assert.Equal(t, 50, c.BufferSize, "unset fields keep the flag value")
	assert.Equal(t, ":8080", c.Addr)

	c.Merge(nil)
	assert.Equal(t, "gpiocdev", c.Driver)
}

func TestValidate(t *testing.T) {
	pins := make([]string, 25)
	for i := range pins {
		pins[i] = "GPIO" + string(rune('A'+i))
	}
	cases := []struct {
		name string
		mod  func(*Config)
		ok   bool
	}{
		{"default", func(*Config) {}, true},
		{"unknown driver", func(c *Config) { c.Driver = "pwm" }, false},
		{"zero speed", func(c *Config) { c.SpeedMS = 0 }, false},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }, false},
		{"gpio short", func(c *Config) { c.Driver = "gpio"; c.Pins = pins[:3] }, false},
		{"gpio", func(c *Config) { c.Driver = "gpio"; c.Pins = pins }, true},
		{"gpiocdev short", func(c *Config) { c.Driver = "gpiocdev" }, false},
		{"strip", func(c *Config) { c.Driver = "strip" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mod(c)
			err := c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestMergeFileFalseBooleans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: false\nrestart_on_print: false\n"), 0644))
	file, err := Load(path)
	require.NoError(t, err)

	flags := Default()
	flags.RestartOnPrint = true
	flags.XFlipEveryRow = true
	flags.Merge(file)
	assert.False(t, flags.Enabled, "file turns the display off")
	assert.False(t, flags.RestartOnPrint)
	assert.True(t, flags.XFlipEveryRow, "absent key keeps the flag")

	require.NoError(t, os.WriteFile(path, []byte("enabled: true\n"), 0644))
	file, err = Load(path)
	require.NoError(t, err)
	flags.Enabled = false
	flags.Merge(file)
	assert.True(t, flags.Enabled)
}
