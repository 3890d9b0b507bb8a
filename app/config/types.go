package config

// SourcesFile represents the seed source registry file
type SourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig contains one scrapable source definition
type SourceConfig struct {
	Name       string   `yaml:"name"`
	RootDomain string   `yaml:"root_domain"`
	Keywords   []string `yaml:"keywords"`
}
