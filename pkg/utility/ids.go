package utility

import (
	"github.com/google/uuid"
)

// ExecutionID identifies a single simulation run or order. IDs are time ordered (uuid v7).
type ExecutionID = uuid.UUID

func NewExecutionID() ExecutionID {
	return uuid.Must(uuid.NewV7())
}

func ParseExecutionID(s string) (ExecutionID, error) {
	return uuid.Parse(s)
}

// TraceID is a run-local, strictly increasing sequence number.
type TraceID = uint64

// Sequence hands out trace ids. It is owned by a single run and is not safe
// for concurrent use.
type Sequence struct {
	last TraceID
}

func (s *Sequence) Next() TraceID {
	s.last++
	return s.last
}

func (s *Sequence) Last() TraceID {
	return s.last
}

func (s *Sequence) Reset() {
	s.last = 0
}
