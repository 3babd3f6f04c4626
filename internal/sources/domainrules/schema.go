package domainrules

// RulesFile is the YAML root: a list of category blocks, each mapping a
// category name to the domains it covers.
//
//	- category: Development
//	  domains:
//	    - sourcehut.org
//	    - codeberg.org
//	- category: Design
//	  domains:
//	    - penpot.app
type RulesFile []CategoryRule

// CategoryRule binds one category to a list of domains.
type CategoryRule struct {
	Category string   `yaml:"category"`
	Domains  []string `yaml:"domains"`
}
