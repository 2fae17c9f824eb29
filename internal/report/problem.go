package report

import (
	"fmt"
	"strings"
)

const (
	sequenceSeparatorConstant = ", "
)

// Problem is an audited entity with at least one unsuppressed violation.
type Problem struct {
	Fields     map[string]any
	Violations []string
}

// FieldText renders the field stored under key. Sequences are comma-joined.
func (problem Problem) FieldText(key string) string {
	return renderValue(problem.Fields[key])
}

func renderValue(value any) string {
	switch typedValue := value.(type) {
	case nil:
		return ""
	case string:
		return typedValue
	case []string:
		return strings.Join(typedValue, sequenceSeparatorConstant)
	case fmt.Stringer:
		return typedValue.String()
	default:
		return fmt.Sprint(typedValue)
	}
}

// compareValues orders two field values. Numbers compare numerically, everything else
// by its rendered text.
func compareValues(first any, second any) int {
	firstNumber, firstIsNumber := numericValue(first)
	secondNumber, secondIsNumber := numericValue(second)
	if firstIsNumber && secondIsNumber {
		switch {
		case firstNumber < secondNumber:
			return -1
		case firstNumber > secondNumber:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(renderValue(first), renderValue(second))
}

func numericValue(value any) (float64, bool) {
	switch typedValue := value.(type) {
	case int:
		return float64(typedValue), true
	case int64:
		return float64(typedValue), true
	case float64:
		return typedValue, true
	default:
		return 0, false
	}
}
