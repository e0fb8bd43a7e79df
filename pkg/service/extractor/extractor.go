package extractor

import (
	"regexp"

	"github.com/taxon-lab/linnaeus/pkg/domain/model"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
)

// Pattern binds one case-insensitive regular expression to a relationship
// type. If the expression has capture groups, each non-empty captured group
// becomes a candidate target; otherwise the whole match does.
type Pattern struct {
	Type       types.RelationshipType
	Expression string
}

// DefaultPatterns covers the dependency, integration and extension signals of
// WordPress plugin/theme code and docs: namespace imports, docblock
// annotations, hook registration calls, class extension syntax, see-also
// cross references and prose prerequisite phrasing.
func DefaultPatterns() []Pattern {
	return []Pattern{
		// PHP namespace imports
		{types.RelRequires, `use\s+MW_Properties[\\\w]*`},
		// Docblock requirements
		{types.RelRequires, `@requires\s+(WordPress\s+\d+\.\d+\+)`},
		// JS/PHP requires and includes
		{types.RelRequires, `require.*['"]MW_Properties`},
		{types.RelRequires, `include.*['"]MW_Properties`},

		// WordPress hook and filter registration
		{types.RelIntegratesWith, `add_action\(\s*['"](mw_properties_\w+)['"]`},
		{types.RelIntegratesWith, `add_filter\(\s*['"](mw_properties_\w+)['"]`},
		{types.RelIntegratesWith, `do_action\(\s*['"](mw_properties_\w+)['"]`},
		{types.RelIntegratesWith, `apply_filters\(\s*['"](mw_properties_\w+)['"]`},

		// Class extensions and interface implementations
		{types.RelExtends, `extends\s+(WP_\w+)`},
		{types.RelExtends, `implements\s+(\w+_Interface)`},

		// Docblock and documentation cross references
		{types.RelRelatedTo, `@see\s+(\w+(?:\\\w+)*)`},
		{types.RelRelatedTo, `see\s+also:\s+(\w+)`},

		// Prose prerequisite phrasing
		{types.RelPrerequisites, `before\s+using\s+this.*?,\s+(?:understand|install|configure)\s+([^.]+)`},
		{types.RelPrerequisites, `prerequisites?:\s+(.*)`},
	}
}

type compiledPattern struct {
	relType types.RelationshipType
	re      *regexp.Regexp
}

// Extractor scans raw content for relationship signals. It is deterministic
// and total: unmatched content yields an empty set.
type Extractor struct {
	patterns []compiledPattern
}

// New compiles the given pattern table. Patterns are applied in order per
// relationship type; match ordering is not significant in the output.
func New(patterns []Pattern) (*Extractor, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p.Expression)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{relType: p.Type, re: re})
	}
	return &Extractor{patterns: compiled}, nil
}

// NewDefault builds an extractor from DefaultPatterns.
func NewDefault() *Extractor {
	ext, err := New(DefaultPatterns())
	if err != nil {
		// DefaultPatterns is a fixed table; a compile failure is a programming error
		panic(err)
	}
	return ext
}

// Extract collects every pattern match in content, deduplicated per
// relationship type. Types with zero candidates are omitted entirely.
func (x *Extractor) Extract(content string) model.RelationshipSet {
	set := model.RelationshipSet{}
	if content == "" {
		return set
	}

	for _, p := range x.patterns {
		for _, match := range p.re.FindAllStringSubmatch(content, -1) {
			if len(match) > 1 {
				for _, group := range match[1:] {
					set.Add(p.relType, group)
				}
			} else {
				set.Add(p.relType, match[0])
			}
		}
	}

	return set
}
