package budgetgrid

import (
	"fmt"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Column set will misbehave at runtime
	SeverityWarning                 // Column set may produce unexpected values
)

// ValidationIssue represents a single problem found in a column set.
type ValidationIssue struct {
	Severity Severity
	Column   int // index into the validated Columns, -1 for the whole set
	Field    string
	Message  string
}

// String formats the issue as "[ERROR] amount (C): message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	if v.Column < 0 {
		return fmt.Sprintf("[%s] %s", sev, v.Message)
	}
	// Sheet columns A and B hold the id and order, data columns start at C.
	return fmt.Sprintf("[%s] %s (%s): %s", sev, v.Field, ColToName(v.Column+2), v.Message)
}

// ValidateColumns checks a column set for problems that would only surface
// while rows are generated or pasted. It never fails; an empty result means
// the set is usable.
func ValidateColumns(columns Columns) []ValidationIssue {
	var issues []ValidationIssue
	if len(columns) == 0 {
		return append(issues, ValidationIssue{Severity: SeverityWarning, Column: -1, Message: "no columns defined"})
	}
	seen := make(map[string]int, len(columns))
	for i, col := range columns {
		issue := func(sev Severity, format string, args ...any) {
			issues = append(issues, ValidationIssue{
				Severity: sev,
				Column:   i,
				Field:    col.Field,
				Message:  fmt.Sprintf(format, args...),
			})
		}

		if col.Field == "" {
			issue(SeverityError, "column has no field")
			continue
		}
		if first, dup := seen[col.Field]; dup {
			issue(SeverityError, "duplicate field, first defined in column %s", ColToName(first+2))
		} else {
			seen[col.Field] = i
		}

		if col.NullValue != nil && !isInferable(col.NullValue) {
			if _, isBool := col.NullValue.(bool); !isBool {
				issue(SeverityError, "null value %v has unsupported type %T", col.NullValue, col.NullValue)
			}
		}
		if col.SmartInference && !isInferable(col.NullValue) {
			issue(SeverityWarning, "smart inference is enabled but %T values cannot be inferred", col.NullValue)
		}
		if col.HasDefault() && !col.Accepts(col.DefaultValue) {
			issue(SeverityError, "default %v (%T) does not match column type %T", col.DefaultValue, col.DefaultValue, col.NullValue)
		}
		if col.DefaultExpression != "" {
			if col.HasDefault() {
				issue(SeverityWarning, "default expression %q is never used because a default value is set", col.DefaultExpression)
			}
			if _, err := compileDefaultExpression(col.DefaultExpression); err != nil {
				issue(SeverityError, "invalid default expression %q: %v", col.DefaultExpression, err)
			}
		}
	}
	return issues
}
