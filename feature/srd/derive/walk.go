package derive

import (
	"regexp"
	"strconv"
	"strings"
)

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Slugify lowercases, replaces runs of non-alphanumerics with hyphens, and
// strips leading and trailing hyphens.
func Slugify(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	slug := strings.Trim(slugPattern.ReplaceAllString(lowered, "-"), "-")
	if slug == "" {
		return lowered
	}
	return slug
}

// coerceInt converts a decoded JSON value to an int, nil when the value is
// absent or not numeric.
func coerceInt(value any) *int {
	switch v := value.(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		return &v
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// firstInt returns the first non-nil, non-zero coercion of the given keys.
// Zero is treated as absent so that "choose: 0" does not register a choice.
func firstInt(node map[string]any, keys ...string) *int {
	for _, key := range keys {
		if n := coerceInt(node[key]); n != nil && *n != 0 {
			return n
		}
	}
	return nil
}

func isChoiceLike(node map[string]any) bool {
	hasCount := false
	for _, key := range []string{"choose", "choose_n", "count"} {
		if _, ok := node[key]; ok {
			hasCount = true
			break
		}
	}
	if !hasCount {
		return false
	}
	for _, key := range []string{"from", "options", "option_set"} {
		if _, ok := node[key]; ok {
			return true
		}
	}
	return false
}

// collectChoiceNodes visits every object node in the document tree and
// returns the ones that look like choice points. The walk does not stop at
// the first match: a document may contain several independent choice points
// at different nesting depths.
func collectChoiceNodes(payload any) []map[string]any {
	var results []map[string]any
	var visit func(node any)
	visit = func(node any) {
		switch n := node.(type) {
		case map[string]any:
			if isChoiceLike(n) {
				results = append(results, n)
			}
			for _, value := range n {
				visit(value)
			}
		case []any:
			for _, item := range n {
				visit(item)
			}
		}
	}
	visit(payload)
	return results
}

// extractOptions unwraps the option list from a choice node. The source
// data nests this indirection inconsistently (from.options, from as a bare
// list, option_set.options, options.options), so each observed shape is
// tried in a fixed fallback order.
func extractOptions(node map[string]any) []any {
	optionsValue := node["options"]

	switch from := node["from"].(type) {
	case map[string]any:
		if v, ok := from["options"]; ok {
			optionsValue = v
		} else if v, ok := from["from"]; ok {
			optionsValue = v
		}
	case []any:
		if optionsValue == nil {
			optionsValue = from
		}
	}

	if optionSet, ok := node["option_set"].(map[string]any); ok {
		if v, ok := optionSet["options"]; ok {
			optionsValue = v
		}
	}

	if wrapped, ok := optionsValue.(map[string]any); ok {
		if v, ok := wrapped["options"]; ok {
			optionsValue = v
		}
	}

	if list, ok := optionsValue.([]any); ok {
		return list
	}
	return nil
}

func stringField(node map[string]any, key string) (string, bool) {
	value, ok := node[key].(string)
	return value, ok
}

func optionLabel(option map[string]any) string {
	for _, key := range []string{"name", "string", "label"} {
		if value, ok := stringField(option, key); ok {
			return value
		}
	}
	if item, ok := option["item"].(map[string]any); ok {
		if value, ok := stringField(item, "name"); ok {
			return value
		}
	}
	return ""
}

func optionSourceKey(option map[string]any) string {
	for _, key := range []string{"index", "source_key"} {
		if value, ok := stringField(option, key); ok {
			return value
		}
	}
	if item, ok := option["item"].(map[string]any); ok {
		if value, ok := stringField(item, "index"); ok {
			return value
		}
	}
	return ""
}

// optionReferenceType sniffs the referenced entity type from an option's
// embedded item or URL.
func optionReferenceType(option map[string]any) string {
	if item, ok := option["item"].(map[string]any); ok {
		if value, ok := stringField(item, "type"); ok {
			return value
		}
		if url, ok := stringField(item, "url"); ok && strings.Contains(url, "/api/spells/") {
			return "spell"
		}
	}
	if url, ok := stringField(option, "url"); ok && strings.Contains(url, "/api/spells/") {
		return "spell"
	}
	return ""
}

// parseOption normalizes one raw option into (type, source key, label).
// Bare strings slug their own label; objects prefer an explicit index,
// then a nested item, then fall back to slugging the label.
func parseOption(option any, defaultType string) (string, string, string) {
	if s, ok := option.(string); ok {
		return defaultType, Slugify(s), s
	}
	node, ok := option.(map[string]any)
	if !ok {
		label := strings.TrimSpace(stringify(option))
		if label == "" {
			label = "unknown"
		}
		return defaultType, Slugify(label), label
	}

	optionType := ""
	if v, ok := stringField(node, "option_type"); ok && v != "" {
		optionType = v
	} else if v, ok := stringField(node, "type"); ok && v != "" {
		optionType = v
	} else {
		optionType = defaultType
	}
	if optionType == "reference" {
		if ref := optionReferenceType(node); ref != "" {
			optionType = ref
		} else {
			optionType = defaultType
		}
	}

	label := optionLabel(node)
	sourceKey := optionSourceKey(node)
	if label == "" && sourceKey != "" {
		label = sourceKey
	}
	if sourceKey == "" && label != "" {
		sourceKey = Slugify(label)
	}
	if label == "" {
		label = "unknown"
		if sourceKey != "" {
			label = sourceKey
		}
	}
	if sourceKey == "" {
		sourceKey = Slugify(label)
	}
	return optionType, sourceKey, label
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	if f, ok := value.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// normalizeOptionType collapses the raw option type vocabulary onto the
// stored one: feature, spell, or string.
func normalizeOptionType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "feature", "class_feature", "subclass_feature":
		return "feature"
	case "spell", "spells":
		return "spell"
	default:
		return "string"
	}
}

// choiceNotes pulls free text off a choice node for the notes column.
func choiceNotes(node map[string]any) string {
	for _, key := range []string{"name", "desc", "notes"} {
		switch value := node[key].(type) {
		case string:
			return value
		case []any:
			var parts []string
			for _, entry := range value {
				if s, ok := entry.(string); ok {
					parts = append(parts, s)
				}
			}
			if text := strings.Join(parts, " "); text != "" {
				return text
			}
		}
	}
	return ""
}

func choiceLabel(node map[string]any) string {
	for _, key := range []string{"name", "label", "title"} {
		if value, ok := stringField(node, key); ok {
			return value
		}
	}
	return ""
}

// buildChoiceSourceKey derives the stable group key. This key, not the
// database primary key, is what makes re-runs idempotent: the same logical
// choice point recomputed from an updated document maps to the same key
// even if its option set grew.
func buildChoiceSourceKey(ownerType, ownerKey, choiceType string, level *int, label string) string {
	levelToken := "na"
	if level != nil {
		levelToken = strconv.Itoa(*level)
	}
	labelToken := "choice"
	if label != "" {
		labelToken = Slugify(label)
	}
	return ownerType + ":" + ownerKey + ":" + choiceType + ":" + levelToken + ":" + labelToken
}
