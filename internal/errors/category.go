package errors

// ErrorCategory groups related installer errors for unified handling.
type ErrorCategory string

const (
	ErrCategoryRequirement  ErrorCategory = "REQUIREMENT"
	ErrCategoryOptional     ErrorCategory = "OPTIONAL"
	ErrCategoryValidation   ErrorCategory = "VALIDATION"
	ErrCategoryCollaborator ErrorCategory = "COLLABORATOR"
	ErrCategoryConfig       ErrorCategory = "CONFIG"
	ErrCategoryDatabase     ErrorCategory = "DATABASE"
)

// Fatal reports whether errors of this category always stop the pipeline.
// Optional warnings are the only category an operator may override.
func (c ErrorCategory) Fatal() bool {
	return c != ErrCategoryOptional
}
