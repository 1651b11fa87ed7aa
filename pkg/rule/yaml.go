package rule

// yamlRule is the intermediate struct for one rule in a YAML rules file.
type yamlRule struct {
	Original      string `yaml:"original"`
	Replacement   string `yaml:"replacement"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty"`
	Enabled       *bool  `yaml:"enabled,omitempty"` // nil means enabled
}

// yamlRulesFile is the top-level structure of a rules YAML file: a "rules"
// list at the top level.
type yamlRulesFile struct {
	Rules []yamlRule `yaml:"rules"`
}
