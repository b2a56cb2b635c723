package pulse

import (
	"errors"
	"fmt"
)

// ErrResourceExhausted is returned when no execution slot is free for a new run.
var ErrResourceExhausted = errors.New("no sequencer slot available")

// Configure request field names.
const (
	FieldWidth   = "width"
	FieldPeriod  = "period"
	FieldNPulses = "npulses"
	FieldDelay   = "delay"
)

const msgWidthNotBelowPeriod = "Error: pulse width must be less than pulse period."

// ValidationError rejects a configure request. Field names the offending parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidField builds the error reported for an unparsable or non-positive field.
func InvalidField(field string) *ValidationError {
	var what string
	switch field {
	case FieldNPulses:
		what = "number of pulses"
	default:
		what = field
	}
	return &ValidationError{Field: field, Message: "Invalid " + what}
}

