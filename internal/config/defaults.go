package config

// applyDefaults fills any zero-valued field with anticipate's builtin
// default.
func applyDefaults(cfg Config) Config {
	if cfg.Prompt == "" {
		cfg.Prompt = "➜ "
	}
	if cfg.Command == "" {
		cfg.Command = "sh -noprofile -norc"
	}
	if cfg.TimeoutMillis == 0 {
		cfg.TimeoutMillis = 5000
	}

	if cfg.Cinema.DelayMillis == 0 {
		cfg.Cinema.DelayMillis = 75
	}
	if cfg.Cinema.Deviation == 0 {
		cfg.Cinema.Deviation = 15.0
	}
	if cfg.Cinema.Shell == "" {
		cfg.Cinema.Shell = cfg.Command
	}
	if cfg.Cinema.Cols == 0 {
		cfg.Cinema.Cols = 80
	}
	if cfg.Cinema.Rows == 0 {
		cfg.Cinema.Rows = 24
	}

	return cfg
}
