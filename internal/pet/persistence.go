package pet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// TestConfigPath is used for testing to override the settings path
var TestConfigPath string

// Settings is the host-side configuration persisted between runs
type Settings struct {
	CatalogPath string              `toml:"catalog"`
	Interaction InteractionSettings `toml:"interaction"`
	Window      WindowSettings      `toml:"window"`
	Logging     LoggingSettings     `toml:"logging"`
}

// InteractionSettings holds the machine thresholds in milliseconds
type InteractionSettings struct {
	IdleMS         int64 `toml:"idle_ms"`
	SleepMS        int64 `toml:"sleep_ms"`
	LongPressMS    int64 `toml:"long_press_ms"`
	DoubleClickMS  int64 `toml:"double_click_ms"`
	SleepTickMS    int64 `toml:"sleep_tick_ms"`
	DragReleaseMS  int64 `toml:"drag_release_ms"`
	AutoIntervalMS int64 `toml:"auto_interval_ms"` // 0 disables auto animation
}

// WindowSettings is the last known pet position
type WindowSettings struct {
	X int `toml:"x"`
	Y int `toml:"y"`
}

// LoggingSettings selects the zap configuration
type LoggingSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // empty logs to stderr
}

// DefaultSettings returns the settings used when no file exists
func DefaultSettings() Settings {
	return Settings{
		Interaction: InteractionSettings{
			IdleMS:         DefaultIdleThreshold.Milliseconds(),
			SleepMS:        DefaultSleepThreshold.Milliseconds(),
			LongPressMS:    DefaultLongPressThreshold.Milliseconds(),
			DoubleClickMS:  DefaultDoubleClickWindow.Milliseconds(),
			SleepTickMS:    DefaultSleepTickPeriod.Milliseconds(),
			DragReleaseMS:  DefaultDragReleaseDelay.Milliseconds(),
			AutoIntervalMS: DefaultAutoInterval.Milliseconds(),
		},
		Window: WindowSettings{
			X: DefaultResetX,
			Y: DefaultResetY,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// MachineConfig converts the persisted thresholds into a machine Config
func (s Settings) MachineConfig() Config {
	ms := func(v int64) time.Duration { return time.Duration(v) * time.Millisecond }
	return Config{
		IdleThreshold:      ms(s.Interaction.IdleMS),
		SleepThreshold:     ms(s.Interaction.SleepMS),
		LongPressThreshold: ms(s.Interaction.LongPressMS),
		DoubleClickWindow:  ms(s.Interaction.DoubleClickMS),
		SleepTickPeriod:    ms(s.Interaction.SleepTickMS),
		DragReleaseDelay:   ms(s.Interaction.DragReleaseMS),
		AutoInterval:       ms(s.Interaction.AutoIntervalMS),
		ResetX:             DefaultResetX,
		ResetY:             DefaultResetY,
	}.withDefaults()
}

// GetConfigPath returns the path to the settings file
func GetConfigPath() (string, error) {
	if TestConfigPath != "" {
		return TestConfigPath, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "deskpet", "settings.toml"), nil
}

// LoadSettings reads settings from path over the defaults. A missing file
// yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return s, nil
}

// SaveSettings writes settings to path, creating the directory if needed
func SaveSettings(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
