package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinArticleLength is the minimum article length in characters, counted
// after surrounding whitespace is trimmed.
const MinArticleLength = 50

// ValidationError reports a request rejected before any provider call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks a request.
func (r Request) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(r.Text)) < MinArticleLength {
		return &ValidationError{
			Message: fmt.Sprintf("Article text is too short. Please provide at least %d characters.", MinArticleLength),
		}
	}
	return nil
}
