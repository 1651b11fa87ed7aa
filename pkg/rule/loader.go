package rule

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pagemorph/pagemorph/pkg/logging"
	"github.com/pagemorph/pagemorph/pkg/types"
)

// LoadFile loads a rule set from a YAML or JSON file, chosen by extension.
func LoadFile(path string) (types.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ImportJSON(data)
	case ".yml", ".yaml":
		return LoadYAML(data)
	default:
		return nil, fmt.Errorf("unsupported rules file extension %q", filepath.Ext(path))
	}
}

// LoadYAML parses a rule set from a YAML rules file. Later entries with a
// duplicate original override earlier ones, matching map semantics of the
// wire format. Entries that fail validation are dropped with a warning.
func LoadYAML(data []byte) (types.RuleSet, error) {
	var file yamlRulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rules YAML: %w", err)
	}

	logger := logging.GetLogger("rule")
	set := make(types.RuleSet, len(file.Rules))
	for _, yr := range file.Rules {
		r := &types.Rule{
			Original:      yr.Original,
			Replacement:   yr.Replacement,
			CaseSensitive: yr.CaseSensitive,
			Enabled:       yr.Enabled == nil || *yr.Enabled,
		}
		if err := ValidateRule(r); err != nil {
			logger.Warn().Err(err).Msg("dropping rule")
			continue
		}
		set[r.Original] = r
	}
	return set, nil
}
