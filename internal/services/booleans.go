package services

import (
	"encoding/json"
	"strings"
)

// booleanChoicePairs are the choice values that make a "choice" template
// entry behave as a boolean annotation. Order and case are insignificant.
var booleanChoicePairs = [][2]string{
	{"yes", "no"},
	{"y", "n"},
	{"true", "false"},
	{"1", "0"},
}

// IsBooleanChoice reports whether a template entry is a choice between the
// two values of a recognized boolean pair.
func IsBooleanChoice(entry TemplateEntrySpec) bool {
	trueValue, falseValue := booleanChoiceValues(entry)
	return trueValue != "" && falseValue != ""
}

// TrueChoice returns the choice value representing "true" for a boolean
// template entry, or "" when the entry is not a boolean choice.
func TrueChoice(entry TemplateEntrySpec) string {
	trueValue, _ := booleanChoiceValues(entry)
	return trueValue
}

// FalseChoice returns the choice value representing "false" for a boolean
// template entry, or "" when the entry is not a boolean choice.
func FalseChoice(entry TemplateEntrySpec) string {
	_, falseValue := booleanChoiceValues(entry)
	return falseValue
}

func booleanChoiceValues(entry TemplateEntrySpec) (string, string) {
	if entry.Type != "choice" || len(entry.Choices) == 0 {
		return "", ""
	}

	var choices [][]string
	if err := json.Unmarshal(entry.Choices, &choices); err != nil {
		return "", ""
	}
	if len(choices) != 2 || len(choices[0]) == 0 || len(choices[1]) == 0 {
		return "", ""
	}

	first := choices[0][0]
	second := choices[1][0]
	for _, pair := range booleanChoicePairs {
		if strings.EqualFold(first, pair[0]) && strings.EqualFold(second, pair[1]) {
			return first, second
		}
		if strings.EqualFold(first, pair[1]) && strings.EqualFold(second, pair[0]) {
			return second, first
		}
	}
	return "", ""
}
