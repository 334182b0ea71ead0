package config

// Overrides carries command-line settings that take priority over the
// config file. The CLI binds its flags directly to these fields.
type Overrides struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	LogFormat  string
	NoFixUp    bool
}

// apply applies CLI flag overrides to the config.
func (o Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.LogFormat != "" {
		cfg.Logging.Format = o.LogFormat
	}
	if o.NoFixUp {
		cfg.Import.FixUpAxis = false
	}
}
