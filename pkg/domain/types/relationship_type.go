package types

import "fmt"

// RelationshipType is a semantic link kind between documents
type RelationshipType string

const (
	RelRequires       RelationshipType = "requires"
	RelIntegratesWith RelationshipType = "integrates_with"
	RelExtends        RelationshipType = "extends"
	RelRelatedTo      RelationshipType = "related_to"
	RelPrerequisites  RelationshipType = "prerequisites"
)

// AllRelationshipTypes returns all valid relationship types
func AllRelationshipTypes() []RelationshipType {
	return []RelationshipType{
		RelRequires,
		RelIntegratesWith,
		RelExtends,
		RelRelatedTo,
		RelPrerequisites,
	}
}

// IsValid checks if the relationship type is valid
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelRequires,
		RelIntegratesWith,
		RelExtends,
		RelRelatedTo,
		RelPrerequisites:
		return true
	default:
		return false
	}
}

// String returns the string representation of the relationship type
func (t RelationshipType) String() string {
	return string(t)
}

// ParseRelationshipType parses a string into a RelationshipType
func ParseRelationshipType(s string) (RelationshipType, error) {
	t := RelationshipType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid relationship type: %s", s)
	}
	return t, nil
}
