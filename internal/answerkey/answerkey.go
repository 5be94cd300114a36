package answerkey

import (
	"fmt"
	"strings"
)

// MinQuestions and MaxQuestions bound the question count accepted anywhere in
// the pipeline. The grading relay enforces the same range, but we never rely
// on the remote side to validate.
const (
	MinQuestions = 1
	MaxQuestions = 60
)

// Key is an answer key as zero-based choice indices (0=A .. 4=E), one per
// question.
type Key []int

// ValidationError reports locally invalid input: a bad question count or a
// malformed/mismatched answer key. It is never the result of a network call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Encode converts a human-entered letter string into a Key. Input is
// uppercased, characters A-E map to indices 0-4, and anything else is dropped
// before the length check. The number of surviving letters must equal
// questionCount.
func Encode(letters string, questionCount int) (Key, error) {
	if questionCount < MinQuestions || questionCount > MaxQuestions {
		return nil, &ValidationError{Msg: fmt.Sprintf("question count must be between %d and %d, got %d", MinQuestions, MaxQuestions, questionCount)}
	}

	var key Key
	for _, r := range strings.ToUpper(letters) {
		if r >= 'A' && r <= 'E' {
			key = append(key, int(r-'A'))
		}
	}

	if len(key) != questionCount {
		return nil, &ValidationError{Msg: fmt.Sprintf("answer key has %d valid answers (A-E), expected %d", len(key), questionCount)}
	}
	return key, nil
}

// String is the inverse of Encode, used for display only.
func (k Key) String() string {
	var sb strings.Builder
	for _, idx := range k {
		sb.WriteByte(byte('A' + idx))
	}
	return sb.String()
}
