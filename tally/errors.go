package tally

import (
	"errors"
	"strconv"
)

// ErrEmptyStream is returned when the ensemble holds no records at all.
var ErrEmptyStream = errors.New("ensemble contains no records")

// CorruptAssignmentError means an assignment does not fit the graph (or the previous assignments); usually a
// graph file that does not belong to the ensemble.
type CorruptAssignmentError struct {
	Len  int // Length of the offending assignment.
	Want int // Node count it should have had.
}

func (e *CorruptAssignmentError) Error() string {
	return "assignment has " + strconv.Itoa(e.Len) + " entries, expected " + strconv.Itoa(e.Want)
}

func checkLen(assignment []uint16, n int) error {
	if len(assignment) != n {
		return &CorruptAssignmentError{Len: len(assignment), Want: n}
	}
	return nil
}
