package prompts

const (
	DefaultConceptExtractionSystem = "You are an expert educational assistant. Extract key learning concepts from the provided text."
	DefaultLearningGoalsSystem     = "You are an expert in curriculum design. Generate learning goals based on the provided text."
)

func init() {
	RegisterSpec(Spec{
		Name:          PromptConceptExtraction,
		Version:       1,
		SchemaName:    "concept_extraction",
		Schema:        ConceptsSchema,
		OutputKey:     "concepts",
		ItemShape:     "strings",
		DefaultSystem: DefaultConceptExtractionSystem,
		Task: "Analyze the following educational material for the domain '{{.DomainSlug}}'.\n" +
			"Extract the key learning concepts discussed in the text.",
		SubjectLabel: "TEXT TO ANALYZE",
		Temperature:  0.2,
		Validators:   []Validator{RequireSubject},
	})

	// No default system prompt: hierarchy rules are domain-specific.
	RegisterSpec(Spec{
		Name:       PromptConceptStructuring,
		Version:    1,
		SchemaName: "concept_hierarchy",
		Schema:     HierarchySchema,
		OutputKey:  "hierarchy",
		ItemShape:  `objects with keys "concept" and "parent", where parent is null for a top-level (root) concept`,
		Task: "Based on the rules in your instructions, analyze the following list of learning concepts. " +
			"Determine the parent-child relationships between them to form a logical learning hierarchy.",
		SubjectLabel: "LIST OF CONCEPTS",
		Temperature:  0.2,
		Validators:   []Validator{RequireSubject},
	})

	RegisterSpec(Spec{
		Name:          PromptLearningGoals,
		Version:       1,
		SchemaName:    "learning_goals",
		Schema:        LearningGoalsSchema,
		OutputKey:     "learning_goals",
		ItemShape:     `objects with keys "goal_description", "bloom_level", "goal_type" and integer "sequence_order"`,
		DefaultSystem: DefaultLearningGoalsSystem,
		Task:          "Based on the instructions and examples, analyze the following text and generate new, unique learning goals.",
		SubjectLabel:  "TEXT TO ANALYZE",
		Temperature:   0.3,
		Validators:    []Validator{RequireSubject},
	})
}
