package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagHelper = flag.String("helper", "", "Path to the ffeditc compression helper")
	flagSpaces = flag.Int("spaces", 0, "Indent with N spaces instead of tabs")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagHelper != "" {
		cfg.Compression.HelperPath = *flagHelper
	}
	if *flagSpaces > 0 {
		cfg.Output.UseTabs = false
		cfg.Output.IndentWidth = *flagSpaces
	}
}
