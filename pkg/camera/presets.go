package camera

import "sort"

// Preset names for common capture resolutions.
const (
	PresetDefault = "default"
	PresetVGA     = "vga"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetVGA:     withResolution(640, 480),
		Preset720p:    withResolution(1280, 720),
		Preset1080p:   withResolution(1920, 1080),
	}
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, 4)
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

func withResolution(w, h int) Config {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	// Larger frames get larger text so the overlay stays legible.
	if h >= 720 {
		cfg.FontScale = float64(h) / 480
	}
	return cfg
}
