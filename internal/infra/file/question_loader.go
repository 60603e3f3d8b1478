package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"trivia-quiz-service/internal/domain"
)

// questionFile is the on-disk layout of a question bank:
//
//	categories:
//	  - name: History
//	    questions:
//	      - text: Who was the first Roman emperor?
//	        options: [Augustus, Nero, Caesar]
//	        answer: Augustus
//	        double_value: false
type questionFile struct {
	Categories []domain.Category `yaml:"categories"`
}

// ReadQuestions parses and validates a question file. Category names must be
// unique and every question must offer its answer among unique options.
func ReadQuestions(path string) ([]domain.Category, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	var qf questionFile
	if err := yaml.Unmarshal(raw, &qf); err != nil {
		return nil, fmt.Errorf("parse questions %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(qf.Categories))
	for _, c := range qf.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category without a name", domain.ErrInvalidQuestion)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", domain.ErrInvalidQuestion, name)
		}
		seen[name] = struct{}{}
		if err := domain.ValidateQuestions(name, c.Questions); err != nil {
			return nil, err
		}
	}
	return qf.Categories, nil
}

// QuestionLoader reads categories from a YAML file on every load; pair it
// with a caching QuestionBank.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadCategories(context.Context) ([]string, error) {
	categories, err := ReadQuestions(l.path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names, nil
}

func (l *QuestionLoader) LoadQuestions(_ context.Context, category string) ([]domain.Question, error) {
	categories, err := ReadQuestions(l.path)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.Name == category {
			return c.Questions, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, category)
}
