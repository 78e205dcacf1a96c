package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withceleste/celeste-go/internal/jsonschema"
)

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type employee struct {
	Person  person `json:"person"`
	Company string `json:"company"`
}

type treeNode struct {
	Value    string      `json:"value"`
	Children []*treeNode `json:"children,omitempty"`
}

func TestObject_Descriptor(t *testing.T) {
	desc := Object[person]()
	assert.Equal(t, KindObject, desc.Kind)
	require.NotNil(t, desc.Item)
	assert.Equal(t, "object", desc.Item.Type)
	assert.Contains(t, desc.Item.Properties, "name")
}

func TestList_Descriptor(t *testing.T) {
	desc := List[person]()
	assert.Equal(t, KindList, desc.Kind)
	assert.Equal(t, "object", desc.Item.Type)
}

func TestNormalize_ObjectPassthrough(t *testing.T) {
	n, err := Normalize(Object[person](), Dialect{})
	require.NoError(t, err)
	assert.Equal(t, "object", n.Schema.Type)
	assert.False(t, n.Wrapped())
	assert.Nil(t, n.Schema.AdditionalProperties)
}

func TestNormalize_ListBecomesArray(t *testing.T) {
	n, err := Normalize(List[person](), Dialect{})
	require.NoError(t, err)
	assert.Equal(t, "array", n.Schema.Type)
	require.NotNil(t, n.Schema.Items)
	assert.Equal(t, "object", n.Schema.Items.Type)
	assert.False(t, n.Wrapped())
}

func TestNormalize_WrapTopLevelArray(t *testing.T) {
	n, err := Normalize(List[person](), Dialect{WrapTopLevelArrays: true})
	require.NoError(t, err)

	assert.True(t, n.Wrapped())
	assert.Equal(t, "object", n.Schema.Type)
	assert.Equal(t, []string{"items"}, n.Schema.Required)

	inner := n.Schema.Properties["items"]
	require.NotNil(t, inner)
	assert.Equal(t, "array", inner.Type)

	// Objects are never wrapped, whatever the dialect says.
	obj, err := Normalize(Object[person](), Dialect{WrapTopLevelArrays: true})
	require.NoError(t, err)
	assert.False(t, obj.Wrapped())
	assert.Equal(t, "object", obj.Schema.Type)
	assert.NotContains(t, obj.Schema.Properties, "items")
}

func TestNormalize_StrictIsRecursive(t *testing.T) {
	n, err := Normalize(Object[employee](), Dialect{Strict: true})
	require.NoError(t, err)

	assert.Equal(t, false, n.Schema.AdditionalProperties)
	nested := n.Schema.Properties["person"]
	require.NotNil(t, nested)
	assert.Equal(t, false, nested.AdditionalProperties)
}

func TestNormalize_StrictOnWrappedList(t *testing.T) {
	n, err := Normalize(List[person](), Dialect{WrapTopLevelArrays: true, Strict: true})
	require.NoError(t, err)

	// Both the synthetic wrapper and the item object become strict.
	assert.Equal(t, false, n.Schema.AdditionalProperties)
	item := n.Schema.Properties["items"].Items
	require.NotNil(t, item)
	assert.Equal(t, false, item.AdditionalProperties)
}

func TestNormalize_InlineRefs(t *testing.T) {
	desc := Object[treeNode]()
	_, err := Normalize(desc, Dialect{InlineRefs: true})
	// treeNode is genuinely recursive; inlining must refuse the cycle
	// rather than expand forever.
	assert.ErrorContains(t, err, "cyclic schema reference")
}

func TestNormalize_InlineRefs_FlatGraph(t *testing.T) {
	item := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"owner": {Ref: "#/$defs/person", Description: "site description"},
		},
		Required: []string{"owner"},
		Defs: map[string]*jsonschema.Schema{
			"person": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {Type: "string", Description: "def description"},
				},
			},
		},
	}

	n, err := Normalize(&Descriptor{Kind: KindObject, Item: item}, Dialect{InlineRefs: true})
	require.NoError(t, err)

	assert.Nil(t, n.Schema.Defs)
	owner := n.Schema.Properties["owner"]
	require.NotNil(t, owner)
	assert.Empty(t, owner.Ref)
	assert.Equal(t, "object", owner.Type)
	assert.Contains(t, owner.Properties, "name")

	// Keys present at the reference site win over the definition's keys.
	assert.Equal(t, "site description", owner.Description)
}

func TestNormalize_InlineRefs_UnresolvedReference(t *testing.T) {
	item := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"x": {Ref: "#/$defs/ghost"},
		},
	}

	_, err := Normalize(&Descriptor{Kind: KindObject, Item: item}, Dialect{InlineRefs: true})
	assert.ErrorContains(t, err, "unresolved schema reference")
}

func TestNormalize_DoesNotMutateDescriptor(t *testing.T) {
	desc := Object[person]()
	before := desc.Item.String()

	_, err := Normalize(desc, Dialect{Strict: true, WrapTopLevelArrays: true})
	require.NoError(t, err)

	assert.Equal(t, before, desc.Item.String())
}

// ---- ParseContent -----------------------------------------------------------

func TestParseContent_Object(t *testing.T) {
	n, err := Normalize(Object[person](), Dialect{})
	require.NoError(t, err)

	got, err := n.ParseContent(`{"name":"Ada","age":36}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ada", "age": float64(36)}, got)
}

func TestParseContent_UnwrapsWrappedList(t *testing.T) {
	n, err := Normalize(List[person](), Dialect{WrapTopLevelArrays: true})
	require.NoError(t, err)

	got, err := n.ParseContent(`{"items":[{"name":"Ada","age":36}]}`)
	require.NoError(t, err)

	list, ok := got.([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)
}

// The wrapper is only removed for an object holding exactly the wrapper key.
func TestParseContent_NoUnwrapForOtherShapes(t *testing.T) {
	n, err := Normalize(List[person](), Dialect{WrapTopLevelArrays: true})
	require.NoError(t, err)

	got, err := n.ParseContent(`{"items":[],"extra":1}`)
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, got)

	got, err = n.ParseContent(`{"items":"not a list"}`)
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, got)
}

func TestParseContent_NoUnwrapWhenNotWrapped(t *testing.T) {
	n, err := Normalize(Object[person](), Dialect{})
	require.NoError(t, err)

	got, err := n.ParseContent(`{"items":[1,2]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"items": []any{float64(1), float64(2)}}, got)
}

func TestParseContent_IdempotentOnTypedValues(t *testing.T) {
	n, err := Normalize(List[person](), Dialect{WrapTopLevelArrays: true})
	require.NoError(t, err)

	typed := []any{map[string]any{"name": "Ada"}}
	got, err := n.ParseContent(typed)
	require.NoError(t, err)
	assert.Equal(t, typed, got)
}

func TestParseContent_ProseSurvives(t *testing.T) {
	n, err := Normalize(Object[person](), Dialect{})
	require.NoError(t, err)

	// Non-JSON prose comes back as the same string for the caller to
	// report, whether or not a repair pass managed to decode it.
	got, err := n.ParseContent("plain prose")
	require.NoError(t, err)
	assert.Equal(t, "plain prose", got)
}
