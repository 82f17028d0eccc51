package domain

// Question is static catalog content for one mode.
type Question struct {
	Text    string   `json:"text"`
	Answer  string   `json:"answer"`
	Options []string `json:"options,omitempty"`
}

// MultipleChoice reports whether the question offers fixed options.
func (q Question) MultipleChoice() bool {
	return len(q.Options) > 0
}

// QuestionCatalog is a read-only source of questions per mode.
type QuestionCatalog interface {
	QuestionsFor(mode GameMode) ([]Question, error)
}
