package fhir

import (
	"fmt"
	"time"
)

// ValidationOutcome explains a failed save in terms of the submitted
// resource. Every error on an attribute with a recorded FHIRPath becomes
// one issue whose diagnostics echo the value found at that path in raw.
// If no error can be traced, the fatal fallback is returned.
func ValidationOutcome(verr *ValidationError, raw map[string]interface{}) *OperationOutcome {
	var issues []OperationOutcomeIssue
	for _, attr := range verr.Errors.Attributes() {
		field, ok := verr.Fields[attr]
		if !ok || field.Path == "" {
			continue
		}
		label := verr.Labels[attr]
		if label == "" {
			label = attr
		}
		value := submittedValue(raw, field)
		for _, msg := range verr.Errors[attr] {
			issues = append(issues, OperationOutcomeIssue{
				Severity:    IssueSeverityError,
				Code:        IssueTypeProcessing,
				Diagnostics: diagnostics(value, label, msg),
				Expression:  []string{field.Path},
			})
		}
	}
	if len(issues) == 0 {
		return FatalOutcome()
	}
	return NewOperationOutcome(issues...)
}

// submittedValue recovers the literal the client sent. When the path cannot
// be evaluated the translated value stands in, and for dates the text
// before casting is preferred over the cast result.
func submittedValue(raw map[string]interface{}, f *Field) interface{} {
	stored := f.Value
	if f.Raw != "" {
		stored = f.Raw
	}
	return TryEvaluate(raw, f.Path).Or(stored)
}

func diagnostics(value interface{}, label, msg string) string {
	s := displayValue(value)
	if s == "" {
		return fmt.Sprintf("'%s' %s", label, msg)
	}
	return fmt.Sprintf("Value '%s' for '%s' %s", s, label, msg)
}

func displayValue(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case time.Time:
		return FormatDate(vv)
	case float64:
		if vv == float64(int64(vv)) {
			return fmt.Sprintf("%d", int64(vv))
		}
		return fmt.Sprint(vv)
	case map[string]interface{}, []interface{}:
		b, _ := Marshal(vv)
		return string(b)
	default:
		return fmt.Sprint(vv)
	}
}
