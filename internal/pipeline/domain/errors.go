package domain

import "errors"

// Error taxonomy for one pipeline run. Structural, business-rule-threshold,
// unresolved-reference and storage errors are fatal and roll back every
// write of the run; a reconciliation mismatch is reported after commit and
// never rolls back.
var (
	ErrStructural          = errors.New("structural validation failure")
	ErrBusinessRule        = errors.New("business rule violations exceed threshold")
	ErrUnresolvedReference = errors.New("fact references missing dimension key")
	ErrStorage             = errors.New("warehouse storage failure")
	ErrReconciliation      = errors.New("reconciliation mismatch")
)

// ExitCode maps a run outcome to the process exit status: 0 success,
// 2 reconciliation mismatch (data committed, audit failed), 1 anything fatal.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrReconciliation):
		return 2
	default:
		return 1
	}
}
