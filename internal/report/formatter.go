package report

import (
	"sort"
	"strings"
)

const (
	headerSeparatorConstant    = ": "
	fieldIndentConstant        = "  "
	lineSeparatorConstant      = "\n"
	blockSeparatorConstant     = "\n\n"
	violationSeparatorConstant = ", "
)

// Format renders problems as text blocks separated by blank lines. When sortFieldKey is not
// empty problems are stably sorted ascending by that field first. Each block starts with the
// primary field and the violations, followed by the remaining fields in key order.
func Format(problems []Problem, primaryFieldKey string, sortFieldKey string) string {
	ordered := make([]Problem, len(problems))
	copy(ordered, problems)

	if len(sortFieldKey) > 0 {
		sort.SliceStable(ordered, func(firstIndex int, secondIndex int) bool {
			return compareValues(ordered[firstIndex].Fields[sortFieldKey], ordered[secondIndex].Fields[sortFieldKey]) < 0
		})
	}

	blocks := make([]string, 0, len(ordered))
	for _, problem := range ordered {
		blocks = append(blocks, formatProblem(problem, primaryFieldKey))
	}
	return strings.Join(blocks, blockSeparatorConstant)
}

func formatProblem(problem Problem, primaryFieldKey string) string {
	var builder strings.Builder
	builder.WriteString(problem.FieldText(primaryFieldKey))
	builder.WriteString(headerSeparatorConstant)
	builder.WriteString(strings.Join(problem.Violations, violationSeparatorConstant))

	fieldKeys := make([]string, 0, len(problem.Fields))
	for fieldKey := range problem.Fields {
		if fieldKey == primaryFieldKey {
			continue
		}
		fieldKeys = append(fieldKeys, fieldKey)
	}
	sort.Strings(fieldKeys)

	for _, fieldKey := range fieldKeys {
		builder.WriteString(lineSeparatorConstant)
		builder.WriteString(fieldIndentConstant)
		builder.WriteString(fieldKey)
		builder.WriteString(headerSeparatorConstant)
		builder.WriteString(problem.FieldText(fieldKey))
	}

	return builder.String()
}
