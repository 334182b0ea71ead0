// Package config handles import configuration loading and management.
package config

// Feature bits for ImportConfig.FeaturesToLoad.
const (
	FeatureScenes     uint32 = 0x0000FFFF
	FeatureObjects    uint32 = 0x0000000B
	FeatureAnimations uint32 = 0x00000004
	FeatureMaterials  uint32 = 0x00000003
	FeatureTextures   uint32 = 0x00000001
	FeatureCameras    uint32 = 0x00000020
	FeatureLights     uint32 = 0x00000010
	FeatureAll        uint32 = 0xFFFFFFFF
)

// AllLayers selects every scene layer.
const AllLayers uint32 = 0xFFFFFFFF

// Config holds all blendscene settings.
type Config struct {
	Import  ImportConfig  `yaml:"import" toml:"import"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ImportConfig controls what an import session resolves and how. A builder
// keeps its own copy, so changing the value afterwards has no effect on it.
type ImportConfig struct {
	FixUpAxis            bool   `yaml:"fix_up_axis" toml:"fix_up_axis"`                       // Convert Z-up data to Y-up
	LayersToLoad         uint32 `yaml:"layers_to_load" toml:"layers_to_load"`                 // Bitmask of scene layers
	FeaturesToLoad       uint32 `yaml:"features_to_load" toml:"features_to_load"`             // Bitmask of Feature* bits
	LoadCustomProperties bool   `yaml:"load_custom_properties" toml:"load_custom_properties"` // Parse ID properties into user data
	MaxPropertyDepth     int    `yaml:"max_property_depth" toml:"max_property_depth"`         // Group nesting limit
}

// Loads reports whether any bit of feature is enabled.
func (c ImportConfig) Loads(feature uint32) bool {
	return c.FeaturesToLoad&feature != 0
}

// LayerVisible reports whether an object on layers lay should be loaded.
func (c ImportConfig) LayerVisible(lay uint32) bool {
	return c.LayersToLoad&lay != 0
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
	// Format of the log file: "console" or "json".
	Format string `yaml:"format" toml:"format"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: DefaultImport(),
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
			Format:  "console",
		},
	}
}

// DefaultImport returns the import settings used when nothing is configured.
func DefaultImport() ImportConfig {
	return ImportConfig{
		FixUpAxis:            true,
		LayersToLoad:         AllLayers,
		FeaturesToLoad:       FeatureAll,
		LoadCustomProperties: true,
		MaxPropertyDepth:     64,
	}
}
