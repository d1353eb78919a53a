package config

// defaultWBSTitles lists the Data Management sub-WBS elements covered by
// the default report.
var defaultWBSTitles = map[string]string{
	"02C.00": "Data Management Level 2 Milestones",
	"02C.01": "System Management",
	"02C.02": "Systems Engineering",
	"02C.03": "Alert Production",
	"02C.04": "Data Release Production",
	"02C.05": "Science User Interface and Tools",
	"02C.06": "Science Data Archive and Application Services",
	"02C.07": "LSST Data Facility",
	"02C.08": "International Communications and Base Site",
	"02C.09": "System Level Testing & Science Validation (Obsolete)",
	"02C.10": "Science Quality and Reliability Engineering",
	"02C.11": "Security",
}

// DefaultConfig returns configuration with sensible defaults, used when no
// config file exists or when fields are missing.
func DefaultConfig() *Config {
	titles := make(map[string]string, len(defaultWBSTitles))
	for k, v := range defaultWBSTitles {
		titles[k] = v
	}
	return &Config{
		WBS:       "02C",
		WBSTitles: titles,
		Burndown: BurndownConfig{
			Months: 3,
			Width:  1024,
			Height: 512,
		},
		Build: BuildConfig{
			OutputDir: ".",
			StaticDir: "_static",
			DotCmd:    "dot",
		},
		Output: OutputConfig{
			DefaultFormat: "yaml",
		},
	}
}

// Merge merges loaded config with defaults. Values from the loaded config
// take precedence.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.DataDir = stringOr(loaded.DataDir, defaults.DataDir)
	result.WBS = stringOr(loaded.WBS, defaults.WBS)

	if len(loaded.WBSTitles) > 0 {
		result.WBSTitles = loaded.WBSTitles
	} else {
		result.WBSTitles = defaults.WBSTitles
	}

	result.Burndown = BurndownConfig{
		Months: intOr(loaded.Burndown.Months, defaults.Burndown.Months),
		Width:  intOr(loaded.Burndown.Width, defaults.Burndown.Width),
		Height: intOr(loaded.Burndown.Height, defaults.Burndown.Height),
	}
	result.Build = BuildConfig{
		OutputDir: stringOr(loaded.Build.OutputDir, defaults.Build.OutputDir),
		StaticDir: stringOr(loaded.Build.StaticDir, defaults.Build.StaticDir),
		DotCmd:    stringOr(loaded.Build.DotCmd, defaults.Build.DotCmd),
		SiteCmd:   stringOr(loaded.Build.SiteCmd, defaults.Build.SiteCmd),
		BibCmd:    stringOr(loaded.Build.BibCmd, defaults.Build.BibCmd),
	}
	result.Output = OutputConfig{
		DefaultFormat: stringOr(loaded.Output.DefaultFormat, defaults.Output.DefaultFormat),
	}

	return result
}

func stringOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func intOr(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

// WBSTitle returns the display title for a sub-WBS code, falling back to
// the code itself.
func (c *Config) WBSTitle(code string) string {
	if title, ok := c.WBSTitles[code]; ok {
		return title
	}
	return code
}
