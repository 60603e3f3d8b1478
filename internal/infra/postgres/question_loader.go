package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/domain"
)

// QuestionLoader loads question JSONB rows from Postgres. Categories are
// ordered by their first-imported question, questions by position.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadCategories(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT category FROM questions GROUP BY category ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, name)
	}
	return categories, rows.Err()
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, category string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM questions WHERE category=$1 ORDER BY position`, category)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, category)
	}
	return questions, nil
}

// Import replaces the stored questions of every given category in one transaction.
func Import(ctx context.Context, pool *pgxpool.Pool, categories []domain.Category) error {
	return pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for _, c := range categories {
			if err := domain.ValidateQuestions(c.Name, c.Questions); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE category=$1`, c.Name); err != nil {
				return fmt.Errorf("clear %s: %w", c.Name, err)
			}
			for i, q := range c.Questions {
				data, err := json.Marshal(q)
				if err != nil {
					return err
				}
				if _, err := tx.Exec(ctx,
					`INSERT INTO questions (category, position, data) VALUES ($1, $2, $3::jsonb)`,
					c.Name, i, string(data),
				); err != nil {
					return fmt.Errorf("insert %s #%d: %w", c.Name, i+1, err)
				}
			}
		}
		return nil
	})
}
