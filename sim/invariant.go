package sim

import "fmt"

// InvariantViolation is the panic value raised when the kernel detects a
// modeling or programming defect (double finish, dispatch while blocked,
// assembling without material, exhausted duration supply, ...).
// A replication that raises one must be aborted, never recovered locally.
type InvariantViolation struct {
	Actor   string
	Message string
}

func (v *InvariantViolation) Error() string {
	if v.Actor == "" {
		return "invariant violated: " + v.Message
	}
	return fmt.Sprintf("invariant violated in %s: %s", v.Actor, v.Message)
}

// violate panics with an *InvariantViolation.
func violate(actor, format string, args ...any) {
	panic(&InvariantViolation{Actor: actor, Message: fmt.Sprintf(format, args...)})
}
