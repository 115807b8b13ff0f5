package mmlu

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange reports a row index or shot count beyond the table bounds.
var ErrOutOfRange = errors.New("mmlu: out of range")

const headerTemplate = "The following are multiple choice questions (with answers) about%s.\n\n"

// FormatSubject converts a snake_case topic name into a space-separated
// phrase with a leading space, e.g. "high_school_physics" becomes
// " high school physics". The leading space fits the prompt header.
func FormatSubject(subject string) string {
	var sb strings.Builder
	for _, word := range strings.Split(subject, "_") {
		sb.WriteString(" ")
		sb.WriteString(word)
	}
	return sb.String()
}

// FormatExample renders one question as prompt text:
//
//	<question>
//	A. <choice>
//	...
//	 - Answer:
//
// With includeAnswer the correct letter follows the marker, plus a blank
// line separating it from the next example.
func FormatExample(rows []Row, idx int, includeAnswer bool) (string, error) {
	if idx < 0 || idx >= len(rows) {
		return "", fmt.Errorf("%w: row index %d (have %d rows)", ErrOutOfRange, idx, len(rows))
	}
	row := rows[idx]

	var sb strings.Builder
	sb.WriteString(row.Question)
	for i, choice := range row.Choices {
		sb.WriteString("\n")
		sb.WriteString(choiceLetters[i])
		sb.WriteString(". ")
		sb.WriteString(choice)
	}
	sb.WriteString("\n - Answer:")
	if includeAnswer {
		sb.WriteString(" ")
		sb.WriteString(row.Answer)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// GenPrompt builds the few-shot preamble: a header naming the subject
// followed by the first k rows rendered as worked examples. k < 0 means all
// rows; k greater than the available rows is an error. Output is a pure
// function of the inputs.
func GenPrompt(rows []Row, subject string, k int) (string, error) {
	if k < 0 {
		k = len(rows)
	}
	if k > len(rows) {
		return "", fmt.Errorf("%w: %d shots requested, %d rows available", ErrOutOfRange, k, len(rows))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, headerTemplate, FormatSubject(subject))
	for i := 0; i < k; i++ {
		example, err := FormatExample(rows, i, true)
		if err != nil {
			return "", err
		}
		sb.WriteString(example)
	}
	return sb.String(), nil
}
