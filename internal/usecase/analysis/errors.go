package analysis

import "fmt"

// AnalysisError is returned when an interaction could not be analysed
type AnalysisError struct {
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func newAnalysisError(err error, format string, args ...any) *AnalysisError {
	return &AnalysisError{
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
