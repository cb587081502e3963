package encoder

import "fmt"

// EncodeError reports a problem encoding one instruction.
type EncodeError struct {
	Line    int
	Message string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func errf(line int, format string, args ...any) *EncodeError {
	return &EncodeError{Line: line, Message: fmt.Sprintf(format, args...)}
}
