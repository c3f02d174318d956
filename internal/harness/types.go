package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// QueryID is the content hash of the compilation input.
	QueryID string `json:"query_id,omitempty"`

	// AQL is the assembled query, starting with "FOR <alias> IN @@source".
	AQL string `json:"aql,omitempty"`

	// BindVars includes "@source".
	BindVars map[string]any `json:"bind_vars,omitempty"`

	Warnings []string `json:"warnings,omitempty"`

	// CompileError is set when compilation failed.
	CompileError string `json:"compile_error,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		BindVars: map[string]any{},
		Warnings: []string{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
