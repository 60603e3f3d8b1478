package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateQuestions checks every record of a category: unique options and
// an answer that is one of them.
func ValidateQuestions(category string, questions []Question) error {
	for i, q := range questions {
		if err := validate.Struct(q); err != nil {
			return fmt.Errorf("%w: %s #%d: %v", ErrInvalidQuestion, category, i+1, err)
		}
		if !q.HasOption(q.Answer) {
			return fmt.Errorf("%w: %s #%d: answer %q is not an option", ErrInvalidQuestion, category, i+1, q.Answer)
		}
	}
	return nil
}
