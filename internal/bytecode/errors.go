package bytecode

import "fmt"

// ErrMethodCodeOverflow is returned when a method body's bytecode exceeds
// the 65535-byte limit the Code attribute's code_length field can address.
type ErrMethodCodeOverflow struct {
	Bytes int
}

func (e ErrMethodCodeOverflow) Error() string {
	return fmt.Sprintf("method code overflow: %d bytes exceeds the 65535-byte limit", e.Bytes)
}

// ErrMethodStackOverflow is returned when max_stack or max_locals would not
// fit the Code attribute's u2 fields.
type ErrMethodStackOverflow struct {
	Which string
	Value int
}

func (e ErrMethodStackOverflow) Error() string {
	return fmt.Sprintf("method %s overflow: %d exceeds the 65535 slot limit", e.Which, e.Value)
}

// ErrUnplacedLabel is returned when a branch instruction or jump target
// refers to a label that was never placed with PlaceLabel.
type ErrUnplacedLabel struct {
	Label fmt.Stringer
}

func (e ErrUnplacedLabel) Error() string {
	return fmt.Sprintf("bytecode: label %s was never placed", e.Label)
}

// ErrDanglingFallthrough is returned when the last block in a method body
// ends with an implicit fallthrough to a successor — every method must end
// on an instruction that unconditionally transfers control away (a return,
// athrow, or goto).
type ErrDanglingFallthrough struct{}

func (ErrDanglingFallthrough) Error() string {
	return "bytecode: method body cannot end on a fallthrough"
}

// ErrDuplicateLabel is returned when PlaceLabel is called twice for the
// same label.
type ErrDuplicateLabel struct {
	Label fmt.Stringer
}

func (e ErrDuplicateLabel) Error() string {
	return fmt.Sprintf("bytecode: label %s already placed", e.Label)
}

// ErrLabelInOpenBlock is returned when PlaceLabel is called while the
// current block has not been closed with a branch instruction.
type ErrLabelInOpenBlock struct {
	Label fmt.Stringer
}

func (e ErrLabelInOpenBlock) Error() string {
	return fmt.Sprintf("bytecode: label %s placed before the current block was closed with a branch instruction", e.Label)
}
