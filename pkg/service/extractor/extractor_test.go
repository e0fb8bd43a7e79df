package extractor_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/taxon-lab/linnaeus/pkg/domain/types"
	"github.com/taxon-lab/linnaeus/pkg/service/extractor"
)

func TestExtract(t *testing.T) {
	ext := extractor.NewDefault()

	t.Run("hook registration yields integrates_with target", func(t *testing.T) {
		content := `add_action('mw_properties_init', 'register_property_block')`
		set := ext.Extract(content)

		gt.Bool(t, set.Has(types.RelIntegratesWith, "mw_properties_init")).True()
	})

	t.Run("unmatched content yields empty set", func(t *testing.T) {
		set := ext.Extract("plain prose with nothing to link")
		gt.Value(t, len(set)).Equal(0)
	})

	t.Run("empty content yields empty set", func(t *testing.T) {
		set := ext.Extract("")
		gt.Value(t, len(set)).Equal(0)
	})

	t.Run("docblock requirement captures the version target", func(t *testing.T) {
		set := ext.Extract("/** @requires WordPress 6.8+ */")
		gt.Bool(t, set.Has(types.RelRequires, "WordPress 6.8+")).True()
	})

	t.Run("namespace import matches whole expression", func(t *testing.T) {
		set := ext.Extract(`use MW_Properties\Blocks\Grid;`)
		gt.Array(t, set[types.RelRequires]).Length(1)
	})

	t.Run("class extension captures parent class", func(t *testing.T) {
		set := ext.Extract("class Property_Grid extends WP_Widget implements Renderable_Interface {")
		gt.Bool(t, set.Has(types.RelExtends, "WP_Widget")).True()
		gt.Bool(t, set.Has(types.RelExtends, "Renderable_Interface")).True()
	})

	t.Run("see also references are related_to", func(t *testing.T) {
		set := ext.Extract("@see MW_Properties\\Grid\nsee also: property-templates")
		gt.Bool(t, set.Has(types.RelRelatedTo, `MW_Properties\Grid`)).True()
	})

	t.Run("prose prerequisites are captured", func(t *testing.T) {
		set := ext.Extract("Prerequisites: WordPress 6.8 and the MW Properties plugin")
		gt.Bool(t, set.Has(types.RelPrerequisites, "WordPress 6.8 and the MW Properties plugin")).True()
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		set := ext.Extract(`ADD_ACTION('MW_PROPERTIES_INIT', 'cb')`)
		gt.Array(t, set[types.RelIntegratesWith]).Length(1)
	})

	t.Run("duplicate matches are deduplicated", func(t *testing.T) {
		content := `add_action('mw_properties_init', 'a'); add_action('mw_properties_init', 'b')`
		set := ext.Extract(content)
		gt.Array(t, set[types.RelIntegratesWith]).Length(1)
	})

	t.Run("extraction is deterministic", func(t *testing.T) {
		content := `use MW_Properties\Core;
add_filter('mw_properties_render', 'cb');
class X extends WP_Block { }
@see MW_Properties
prerequisites: install the plugin`

		first := ext.Extract(content).Sorted()
		for i := 0; i < 5; i++ {
			again := ext.Extract(content).Sorted()
			gt.Value(t, again).Equal(first)
		}
	})

	t.Run("invalid custom pattern is rejected", func(t *testing.T) {
		_, err := extractor.New([]extractor.Pattern{
			{Type: types.RelRequires, Expression: `([unclosed`},
		})
		gt.Error(t, err)
	})
}
