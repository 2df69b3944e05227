package config

// SiteConfig holds per-host overrides for crawl behavior.
// Keys in File.Sites are bare host names (for example "docs.example.com").
type SiteConfig struct {
	// NoiseWords are extra corpus noise terms for this host, appended to
	// the global noise word list.
	NoiseWords []string `yaml:"noiseWords,omitempty"`

	// DelayMilliseconds overrides the global crawl delay for this host.
	// Zero means use the global setting.
	DelayMilliseconds int `yaml:"delayMilliseconds,omitempty"`

	// MaxPages overrides the global page limit for this host.
	// Zero means use the global setting.
	MaxPages int `yaml:"maxPages,omitempty"`

	// UserAgent overrides the User-Agent header for this host.
	UserAgent string `yaml:"userAgent,omitempty"`

	// SubPathOnly overrides the global sub-path restriction.
	// Nil means use the global setting.
	SubPathOnly *bool `yaml:"subPathOnly,omitempty"`
}

// File represents the structure of the .seoscan configuration file.
type File struct {
	// Defaults contains settings applied to every host unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps host names to their specific configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the merged configuration for a host.
// Site-specific values override defaults; noise word lists are combined.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if len(site.NoiseWords) > 0 {
		merged := append([]string(nil), result.NoiseWords...)
		result.NoiseWords = append(merged, site.NoiseWords...)
	}
	if site.DelayMilliseconds > 0 {
		result.DelayMilliseconds = site.DelayMilliseconds
	}
	if site.MaxPages > 0 {
		result.MaxPages = site.MaxPages
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.SubPathOnly != nil {
		result.SubPathOnly = site.SubPathOnly
	}

	return result
}
