package prompts

type PromptName string

const (
	PromptConceptExtraction  PromptName = "concept_extraction"
	PromptConceptStructuring PromptName = "concept_structuring"
	PromptLearningGoals      PromptName = "learning_goal_generation"
)
