package derive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &payload))
	return payload
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "fighting-style", Slugify("Fighting Style"))
	assert.Equal(t, "archery", Slugify("  Archery  "))
	assert.Equal(t, "pact-of-the-blade", Slugify("Pact of the Blade!"))
	assert.Equal(t, "a-b-c", Slugify("a---b___c"))
}

func TestCollectChoiceNodesFindsNestedMatches(t *testing.T) {
	payload := decode(t, `{
		"name": "Fighter",
		"proficiency_choices": [
			{"choose": 2, "from": {"options": [{"name": "Athletics"}]}}
		],
		"spellcasting": {
			"info": [{"choose": 1, "options": ["Light", "Mage Hand"]}]
		},
		"desc": ["no choices here"]
	}`)
	nodes := collectChoiceNodes(payload)
	assert.Len(t, nodes, 2)
}

func TestCollectChoiceNodesRequiresBothKeySets(t *testing.T) {
	payload := decode(t, `{"choose": 2, "desc": "count but no options"}`)
	assert.Empty(t, collectChoiceNodes(payload))

	payload = decode(t, `{"options": ["a"], "desc": "options but no count"}`)
	assert.Empty(t, collectChoiceNodes(payload))
}

func TestExtractOptionsDialects(t *testing.T) {
	cases := map[string]string{
		"from options":       `{"choose": 1, "from": {"options": ["a", "b"]}}`,
		"from list":          `{"choose": 1, "from": ["a", "b"]}`,
		"option_set options": `{"choose": 1, "option_set": {"options": ["a", "b"]}}`,
		"options options":    `{"choose": 1, "options": {"options": ["a", "b"]}}`,
		"plain options":      `{"choose": 1, "options": ["a", "b"]}`,
	}
	for name, doc := range cases {
		node := decode(t, doc)
		assert.Len(t, extractOptions(node), 2, name)
	}
}

func TestExtractOptionsUnrecognizedShape(t *testing.T) {
	node := decode(t, `{"choose": 1, "from": "not a list"}`)
	assert.Empty(t, extractOptions(node))
}

func TestParseOption(t *testing.T) {
	optType, key, label := parseOption("Archery", "feature")
	assert.Equal(t, "feature", optType)
	assert.Equal(t, "archery", key)
	assert.Equal(t, "Archery", label)

	optType, key, label = parseOption(decode(t, `{"index": "defense", "name": "Defense"}`), "string")
	assert.Equal(t, "string", optType)
	assert.Equal(t, "defense", key)
	assert.Equal(t, "Defense", label)

	optType, key, label = parseOption(decode(t, `{"option_type": "reference", "item": {"index": "shield", "name": "Shield", "url": "/api/spells/shield"}}`), "string")
	assert.Equal(t, "spell", optType)
	assert.Equal(t, "shield", key)
	assert.Equal(t, "Shield", label)
}

func TestNormalizeOptionType(t *testing.T) {
	assert.Equal(t, "feature", normalizeOptionType("class_feature"))
	assert.Equal(t, "feature", normalizeOptionType("Feature"))
	assert.Equal(t, "spell", normalizeOptionType("spells"))
	assert.Equal(t, "string", normalizeOptionType("equipment"))
	assert.Equal(t, "string", normalizeOptionType(""))
}

func TestInferChoiceTypeOrdering(t *testing.T) {
	// Fighting style tokens win even when spell tokens are present too.
	node := decode(t, `{"type": "fighting_style", "desc": "choose a spell-like style"}`)
	assert.Equal(t, "fighting_style", InferChoiceType(node, nil, "", ""))

	node = decode(t, `{"name": "Eldritch Invocations"}`)
	assert.Equal(t, "invocation", InferChoiceType(node, nil, "", ""))

	node = decode(t, `{"desc": "Choose two skills for Expertise"}`)
	assert.Equal(t, "expertise", InferChoiceType(node, nil, "", ""))

	node = decode(t, `{"name": "Cantrips Known"}`)
	assert.Equal(t, "spell", InferChoiceType(node, nil, "", ""))

	// Owner naming alone can classify.
	node = decode(t, `{"choose": 1}`)
	assert.Equal(t, "fighting_style", InferChoiceType(node, nil, "Fighting Style", "fighter-fighting-style"))

	// A spell reference in the options classifies without any text token.
	options := []any{decode(t, `{"item": {"index": "light", "url": "/api/spells/light"}}`)}
	node = decode(t, `{"choose": 1}`)
	assert.Equal(t, "spell", InferChoiceType(node, options, "", ""))

	node = decode(t, `{"choose": 2}`)
	assert.Equal(t, "generic", InferChoiceType(node, []any{"Athletics", "Acrobatics"}, "Fighter", "fighter"))
}

func TestBuildChoiceSourceKey(t *testing.T) {
	level := 1
	key := buildChoiceSourceKey("class", "fighter", "fighting_style", &level, "Fighting Style")
	assert.Equal(t, "class:fighter:fighting_style:1:fighting-style", key)

	key = buildChoiceSourceKey("feature", "bard-expertise", "expertise", nil, "")
	assert.Equal(t, "feature:bard-expertise:expertise:na:choice", key)
}

func TestCoerceInt(t *testing.T) {
	payload := decode(t, `{"a": 3, "b": "4", "c": "x", "d": null}`)
	require.NotNil(t, coerceInt(payload["a"]))
	assert.Equal(t, 3, *coerceInt(payload["a"]))
	require.NotNil(t, coerceInt(payload["b"]))
	assert.Equal(t, 4, *coerceInt(payload["b"]))
	assert.Nil(t, coerceInt(payload["c"]))
	assert.Nil(t, coerceInt(payload["d"]))
	assert.Nil(t, coerceInt(payload["missing"]))
}

func TestParsePrereqEntryMultiplicity(t *testing.T) {
	entry := decode(t, `{"level": 2, "class": {"index": "fighter"}}`)
	rows := parsePrereqEntry(entry)
	require.Len(t, rows, 2)
	assert.Equal(t, "level", rows[0].prereqType)
	assert.Equal(t, "fighter", rows[0].key)
	assert.Equal(t, ">=", rows[0].operator)
	assert.Equal(t, "2", rows[0].value)
	assert.Equal(t, "class", rows[1].prereqType)
	assert.Equal(t, "fighter", rows[1].key)
	assert.Equal(t, "==", rows[1].operator)
	assert.Equal(t, "true", rows[1].value)
}

func TestParsePrereqEntryLevelWithoutClass(t *testing.T) {
	rows := parsePrereqEntry(decode(t, `{"minimum_level": 5}`))
	require.Len(t, rows, 1)
	assert.Equal(t, "level", rows[0].prereqType)
	assert.Equal(t, "any", rows[0].key)
	assert.Equal(t, "5", rows[0].value)
}

func TestParsePrereqEntryAbilityAndFeature(t *testing.T) {
	rows := parsePrereqEntry(decode(t, `{"ability_score": {"index": "cha"}, "minimum_score": 13}`))
	require.Len(t, rows, 1)
	assert.Equal(t, "ability", rows[0].prereqType)
	assert.Equal(t, "cha", rows[0].key)
	assert.Equal(t, ">=", rows[0].operator)
	assert.Equal(t, "13", rows[0].value)

	rows = parsePrereqEntry(decode(t, `{"type": "feature", "feature": {"index": "pact-of-the-blade"}}`))
	require.Len(t, rows, 1)
	assert.Equal(t, "feature", rows[0].prereqType)
	assert.Equal(t, "pact-of-the-blade", rows[0].key)
	assert.Equal(t, "true", rows[0].value)
}

func TestExtractPrereqNodesShapes(t *testing.T) {
	node := decode(t, `{"prerequisites": [{"level": 2}, "malformed", {"level": 3}]}`)
	assert.Len(t, extractPrereqNodes(node), 2)

	node = decode(t, `{"requirement": {"level": 2}}`)
	assert.Len(t, extractPrereqNodes(node), 1)

	node = decode(t, `{"desc": "nothing"}`)
	assert.Empty(t, extractPrereqNodes(node))
}
