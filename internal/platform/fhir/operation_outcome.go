package fhir

const (
	IssueSeverityFatal = "fatal"
	IssueSeverityError = "error"
)

const (
	IssueTypeStructure  = "structure"
	IssueTypeProcessing = "processing"
	IssueTypeConflict   = "conflict"
	IssueTypeException  = "exception"
	IssueTypeTooCostly  = "too-costly"
	IssueTypeForbidden  = "forbidden"
	IssueTypeNotFound   = "not-found"
)

type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string   `json:"severity"`
	Code        string   `json:"code"`
	Diagnostics string   `json:"diagnostics,omitempty"`
	Expression  []string `json:"expression,omitempty"`
}

func (o *OperationOutcome) GetResourceType() string { return o.ResourceType }
func (o *OperationOutcome) GetID() string           { return "" }

func NewOperationOutcome(issues ...OperationOutcomeIssue) *OperationOutcome {
	if issues == nil {
		issues = []OperationOutcomeIssue{}
	}
	return &OperationOutcome{ResourceType: "OperationOutcome", Issue: issues}
}

// FatalOutcome is the non-informative fallback used when no specific issue
// can be reported.
func FatalOutcome() *OperationOutcome {
	return NewOperationOutcome(OperationOutcomeIssue{
		Severity:    IssueSeverityFatal,
		Code:        IssueTypeProcessing,
		Diagnostics: "An unexpected error occurred while processing the request",
	})
}

// ErrorsOutcome reports each message as an error issue, or falls back to
// FatalOutcome when there are none.
func ErrorsOutcome(code string, messages []string) *OperationOutcome {
	if len(messages) == 0 {
		return FatalOutcome()
	}
	issues := make([]OperationOutcomeIssue, 0, len(messages))
	for _, m := range messages {
		issues = append(issues, OperationOutcomeIssue{Severity: IssueSeverityError, Code: code, Diagnostics: m})
	}
	return NewOperationOutcome(issues...)
}

func ConflictOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(OperationOutcomeIssue{
		Severity:    IssueSeverityError,
		Code:        IssueTypeConflict,
		Diagnostics: diagnostics,
	})
}
