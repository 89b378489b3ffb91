package prompts

func StringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func StringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": StringSchema(),
	}
}

func StringOrNullSchema() map[string]any {
	return map[string]any{"type": []any{"string", "null"}}
}

func IntSchema() map[string]any {
	return map[string]any{"type": "integer"}
}

func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// ListEnvelopeSchema is an object with exactly one key holding a list.
func ListEnvelopeSchema(key string, items map[string]any) map[string]any {
	return ObjectSchema(map[string]any{
		key: map[string]any{"type": "array", "items": items},
	}, key)
}

func ConceptsSchema() map[string]any {
	return ListEnvelopeSchema("concepts", StringSchema())
}

func HierarchySchema() map[string]any {
	return ListEnvelopeSchema("hierarchy", ObjectSchema(map[string]any{
		"concept": StringSchema(),
		"parent":  StringOrNullSchema(),
	}, "concept", "parent"))
}

func LearningGoalsSchema() map[string]any {
	return ListEnvelopeSchema("learning_goals", ObjectSchema(map[string]any{
		"goal_description": StringSchema(),
		"bloom_level":      StringSchema(),
		"goal_type":        StringSchema(),
		"sequence_order":   IntSchema(),
	}, "goal_description", "bloom_level", "goal_type", "sequence_order"))
}
