package domainrules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linknest/linknest/internal/domain"
)

// Loader reads domain→category override rules from a YAML file. The
// result is merged over the built-in domain map by the classifier
// fallback, so operators can teach the fallback their own domains
// without a rebuild.
type Loader struct {
	filePath string
}

// NewLoader creates a rules loader for the given path.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the rules file into a domain→category map.
// Unknown categories are rejected so a typo cannot leak a category
// outside the fixed set.
func (l *Loader) Load() (map[string]string, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain rules file: %w", err)
	}

	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse domain rules yaml: %w", err)
	}

	return MapRules(file)
}

// MapRules flattens the parsed file into a lookup map.
func MapRules(file RulesFile) (map[string]string, error) {
	rules := make(map[string]string)
	for _, rule := range file {
		if !domain.IsKnownCategory(rule.Category) {
			return nil, fmt.Errorf("unknown category %q in domain rules", rule.Category)
		}
		for _, d := range rule.Domains {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" {
				continue
			}
			rules[d] = rule.Category
		}
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no valid rules found in file")
	}
	return rules, nil
}
