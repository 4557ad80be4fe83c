package derive

import (
	"strings"

	"codex-manager/feature/srd/models"
)

// choiceText concatenates the descriptive text fields of a choice node.
func choiceText(node map[string]any) string {
	var parts []string
	for _, key := range []string{"type", "name", "label", "title", "desc"} {
		switch value := node[key].(type) {
		case string:
			parts = append(parts, value)
		case []any:
			for _, entry := range value {
				if s, ok := entry.(string); ok {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func choiceKeysText(node map[string]any) string {
	var keys []string
	for key := range node {
		keys = append(keys, key)
	}
	return strings.ToLower(strings.Join(keys, " "))
}

func ownerText(ownerName, ownerKey string) string {
	var parts []string
	for _, token := range []string{ownerName, ownerKey} {
		if token != "" {
			parts = append(parts, token)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func hasFightingStyleToken(text string) bool {
	return strings.Contains(text, "fighting style") || strings.Contains(text, "fighting-style")
}

func isFightingStyle(node map[string]any, options []any, ownerName, ownerKey string) bool {
	typeValue := strings.ToLower(stringify(node["type"]))
	nameValue := strings.ToLower(stringify(node["name"]))
	if strings.Contains(typeValue, "fighting") && strings.Contains(typeValue, "style") {
		return true
	}
	if strings.Contains(nameValue, "fighting") && strings.Contains(nameValue, "style") {
		return true
	}
	if hasFightingStyleToken(ownerText(ownerName, ownerKey)) {
		return true
	}
	for _, option := range options {
		var label, sourceKey string
		if obj, ok := option.(map[string]any); ok {
			label = optionLabel(obj)
			sourceKey = optionSourceKey(obj)
		} else {
			label = stringify(option)
		}
		if hasFightingStyleToken(ownerText(label, sourceKey)) {
			return true
		}
	}
	return false
}

// optionsHaveSpellReference reports whether any option points at a spell,
// by declared type, reference sniffing, or a spells API URL.
func optionsHaveSpellReference(options []any) bool {
	for _, option := range options {
		switch o := option.(type) {
		case map[string]any:
			optionType := stringify(o["option_type"])
			if optionType == "" {
				optionType = stringify(o["type"])
			}
			if strings.Contains(strings.ToLower(optionType), "spell") {
				return true
			}
			if strings.EqualFold(optionReferenceType(o), "spell") {
				return true
			}
			if item, ok := o["item"].(map[string]any); ok {
				if url, ok := stringField(item, "url"); ok && strings.Contains(url, "/api/spells/") {
					return true
				}
			}
		case string:
			if strings.Contains(strings.ToLower(o), "spell") {
				return true
			}
		}
	}
	return false
}

// InferChoiceType classifies a choice node. The rules are ordered by
// specificity: fighting style first, then invocation, then expertise, then
// spell, and finally generic. Some option lists plausibly match more than
// one rule, so the order is load-bearing.
func InferChoiceType(node map[string]any, options []any, ownerName, ownerKey string) string {
	if isFightingStyle(node, options, ownerName, ownerKey) {
		return models.ChoiceFightingStyle
	}

	text := choiceText(node)
	keyText := choiceKeysText(node)
	owner := ownerText(ownerName, ownerKey)

	if strings.Contains(text, "invocation") || strings.Contains(owner, "invocation") {
		return models.ChoiceInvocation
	}
	if strings.Contains(text, "expertise") || strings.Contains(owner, "expertise") {
		return models.ChoiceExpertise
	}
	for _, haystack := range []string{text, keyText, owner} {
		if strings.Contains(haystack, "spell") || strings.Contains(haystack, "cantrip") {
			return models.ChoiceSpell
		}
	}
	if optionsHaveSpellReference(options) {
		return models.ChoiceSpell
	}
	return models.ChoiceGeneric
}

// defaultChoiceLabel supplies a display label when the node carries none.
func defaultChoiceLabel(choiceType string) string {
	switch choiceType {
	case models.ChoiceFightingStyle:
		return "Fighting Style"
	case models.ChoiceExpertise:
		return "Expertise"
	case models.ChoiceInvocation:
		return "Invocations"
	case models.ChoiceSpell:
		return "Spell Choice"
	default:
		return ""
	}
}

// defaultOptionType is the option type implied by the owning choice type,
// used when an option does not declare its own.
func defaultOptionType(choiceType string) string {
	switch choiceType {
	case models.ChoiceFightingStyle, models.ChoiceInvocation:
		return "feature"
	case models.ChoiceSpell:
		return "spell"
	default:
		return "string"
	}
}
