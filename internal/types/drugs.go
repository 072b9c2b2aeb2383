package types

import "strings"

// ConditionOperator is the comparison used by drug and dosage rule conditions.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "EQUALS"
	OperatorGreaterThan ConditionOperator = "GREATER_THAN"
	OperatorLessThan    ConditionOperator = "LESS_THAN"
	OperatorBetween     ConditionOperator = "BETWEEN"
	OperatorIn          ConditionOperator = "IN"
)

// ParseConditionOperator upper-cases and validates an operator name.
// Blank input defaults to EQUALS, matching what the forms preselect.
func ParseConditionOperator(s string) (ConditionOperator, bool) {
	op := ConditionOperator(strings.ToUpper(strings.TrimSpace(s)))
	switch op {
	case "":
		return OperatorEquals, true
	case OperatorEquals, OperatorGreaterThan, OperatorLessThan, OperatorBetween, OperatorIn:
		return op, true
	default:
		return op, false
	}
}
