package config

// CinemaConfig groups the recording-mode defaults: typing cadence and the
// inner shell the recorder wraps.
type CinemaConfig struct {
	DelayMillis uint64  `yaml:"delay_ms"`
	Deviation   float64 `yaml:"deviation"`
	TypePragma  bool    `yaml:"type_pragma"`
	Shell       string  `yaml:"shell"`
	Cols        uint16  `yaml:"cols"`
	Rows        uint16  `yaml:"rows"`
}

// Config holds interpreter defaults loaded from an optional YAML file; CLI
// flags that are set explicitly take precedence over these values, except
// that the boolean settings are combined with their flags, so a true value
// here cannot be turned off from the command line.
type Config struct {
	Prompt        string            `yaml:"prompt"`
	Command       string            `yaml:"command"`
	TimeoutMillis uint64            `yaml:"timeout_ms"`
	Echo          bool              `yaml:"echo"`
	Format        bool              `yaml:"format"`
	PrintComments bool              `yaml:"print_comments"`
	Env           map[string]string `yaml:"env"`
	Cinema        CinemaConfig      `yaml:"cinema"`
}
