package model

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"
)

// Collection is one top-level taxonomy category a document can be assigned to.
type Collection struct {
	Description string   `json:"description" toml:"description"`
	Topics      []string `json:"topics" toml:"topics"`
	Tags        []string `json:"tags" toml:"tags"`
}

// Taxonomy maps collection names to their definitions. It is loaded once at
// startup and read-only afterwards.
type Taxonomy map[string]Collection

// Validate checks that every collection has a description.
func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return goerr.New("taxonomy must declare at least one collection")
	}
	for name, c := range t {
		if name == "" {
			return goerr.New("taxonomy collection name cannot be empty")
		}
		if c.Description == "" {
			return goerr.New("taxonomy collection requires a description", goerr.V("collection", name))
		}
	}
	return nil
}

// Names returns the collection names in lexical order.
func (t Taxonomy) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasCollection reports whether name is a declared collection.
func (t Taxonomy) HasCollection(name string) bool {
	_, ok := t[name]
	return ok
}

// DefaultTaxonomy returns the built-in taxonomy for WordPress technical
// documentation.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		"wordpress_block_development": {
			Description: "Gutenberg block development: block registration, render callbacks, block.json metadata, editor scripts",
			Topics:      []string{"Block Development", "Property Display", "Dynamic Blocks", "Block Patterns", "Editor Integration"},
			Tags:        []string{"gutenberg", "dynamic-block", "block-editor", "production-ready", "render-callback"},
		},
		"wordpress_theme_development": {
			Description: "Theme and full-site-editing development: templates, theme.json, template parts, style variations",
			Topics:      []string{"Theme Development", "Full Site Editing", "Templates", "Styling"},
			Tags:        []string{"theme", "fse", "template", "theme-json", "block-theme"},
		},
		"wordpress_plugin_integration": {
			Description: "Plugin integration and extension: hooks, filters, REST API endpoints, third-party plugin interoperability",
			Topics:      []string{"Hooks and Filters", "REST API", "Plugin Interoperability", "Settings"},
			Tags:        []string{"hooks", "rest-api", "integration", "plugin-api", "filters"},
		},
	}
}
