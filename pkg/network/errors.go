package network

import "fmt"

// RangeError reports a request for a level or type index that does not
// exist in the network.
type RangeError struct {
	What      string
	Requested int
	Limit     int
}

func (e RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range (network has %d)", e.What, e.Requested, e.Limit)
}

// LogicError reports a structurally invalid operation, such as creating a
// block at the data level or importing state that references an unknown
// node. These are programmer or input errors and are never retried.
type LogicError struct {
	Op     string
	Reason string
}

func (e LogicError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
