// Package catalog provides the static question banks for each game mode.
package catalog

import (
	"slices"

	"physquiz/internal/domain"
)

// bank is one mode's question set. Every mode has exactly one bank.
type bank interface {
	mode() domain.GameMode
	questions() []domain.Question
}

type basicsBank struct{}
type trigBank struct{}
type targetBank struct{}

func (basicsBank) mode() domain.GameMode { return domain.ModeBasics }
func (trigBank) mode() domain.GameMode   { return domain.ModeTrig }
func (targetBank) mode() domain.GameMode { return domain.ModeTarget }

func (basicsBank) questions() []domain.Question { return basicsQuestions }
func (trigBank) questions() []domain.Question   { return trigQuestions }
func (targetBank) questions() []domain.Question { return targetQuestions }

// Static serves the built-in question banks. The zero value is ready to use.
type Static struct{}

var _ domain.QuestionCatalog = Static{}

// New returns the built-in catalog.
func New() Static {
	return Static{}
}

// QuestionsFor returns a copy of the questions for mode.
func (Static) QuestionsFor(mode domain.GameMode) ([]domain.Question, error) {
	b, err := bankFor(mode)
	if err != nil {
		return nil, err
	}
	src := b.questions()
	out := make([]domain.Question, len(src))
	for i, q := range src {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out, nil
}

func bankFor(mode domain.GameMode) (bank, error) {
	switch mode {
	case domain.ModeBasics:
		return basicsBank{}, nil
	case domain.ModeTrig:
		return trigBank{}, nil
	case domain.ModeTarget:
		return targetBank{}, nil
	default:
		return nil, domain.ErrUnknownMode
	}
}
