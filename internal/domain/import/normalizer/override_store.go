package normalizer

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Match types accepted in an override file
const (
	MatchExact    = "exact"
	MatchContains = "contains"
	MatchRegex    = "regex"
)

var ErrInvalidOverride = errors.New("invalid merchant override")

// MerchantOverride represents a user's correction for a merchant
type MerchantOverride struct {
	MatchPattern string `yaml:"match" json:"match_pattern"`
	MatchType    string `yaml:"type" json:"match_type"` // "exact", "contains", "regex"
	MerchantName string `yaml:"merchant" json:"merchant_name"`
	Category     string `yaml:"category" json:"category,omitempty"`
	Subcategory  string `yaml:"subcategory" json:"subcategory,omitempty"`

	key string
	re  *regexp.Regexp
}

type overrideFile struct {
	Overrides []MerchantOverride `yaml:"overrides"`
}

// OverrideStore loads merchant overrides from a YAML rules file:
//
//	overrides:
//	  - match: "PADARIA DO ZE"
//	    type: contains
//	    merchant: "Padaria do Zé"
//	    category: Groceries
type OverrideStore struct {
	path string
}

// NewOverrideStore creates a new override store; an empty path yields no overrides.
func NewOverrideStore(path string) *OverrideStore {
	return &OverrideStore{path: path}
}

// Path returns the rules file location
func (s *OverrideStore) Path() string {
	return s.path
}

// Load reads and compiles every override in the file
func (s *OverrideStore) Load() ([]MerchantOverride, error) {
	if s.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read overrides %s: %w", s.path, err)
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes and compiles overrides from YAML
func ParseOverrides(data []byte) ([]MerchantOverride, error) {
	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode overrides: %w", err)
	}

	out := make([]MerchantOverride, 0, len(file.Overrides))
	for i, o := range file.Overrides {
		if err := o.compile(); err != nil {
			return nil, fmt.Errorf("override %d (%q): %w", i, o.MatchPattern, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func (o *MerchantOverride) compile() error {
	if strings.TrimSpace(o.MatchPattern) == "" || o.MerchantName == "" {
		return fmt.Errorf("%w: match and merchant are required", ErrInvalidOverride)
	}
	if o.MatchType == "" {
		o.MatchType = MatchContains
	}

	switch o.MatchType {
	case MatchExact, MatchContains:
		o.key = NormalizeText(o.MatchPattern)
	case MatchRegex:
		re, err := regexp.Compile("(?i)" + o.MatchPattern)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOverride, err)
		}
		o.re = re
	default:
		return fmt.Errorf("%w: unknown match type %q", ErrInvalidOverride, o.MatchType)
	}
	return nil
}

// matches reports whether the normalized merchant text hits this override.
// Overrides built by hand without compile never match.
func (o *MerchantOverride) matches(normalized string) bool {
	switch o.MatchType {
	case MatchExact:
		return o.key != "" && normalized == o.key
	case MatchContains:
		return o.key != "" && strings.Contains(normalized, o.key)
	case MatchRegex:
		return o.re != nil && o.re.MatchString(normalized)
	}
	return false
}
