package model

type PointState string

const (
	StatePending            PointState = "PENDING"
	StateRequesting         PointState = "REQUESTING"
	StateSucceeded          PointState = "SUCCEEDED"
	StateTransientExhausted PointState = "FAILED_TRANSIENT_EXHAUSTED"
	StateSkipped            PointState = "FAILED_SKIPPED"
	StateFatal              PointState = "FAILED_FATAL"
	StateNotAttempted       PointState = "NOT_ATTEMPTED"
)

func (s PointState) Failed() bool {
	switch s {
	case StateTransientExhausted, StateSkipped, StateFatal:
		return true
	default:
		return false
	}
}

type Outcome struct {
	Point    SweepPoint
	State    PointState
	Kind     FailureKind
	Attempts int
	Tables   int
	Records  int
	Err      error
}

func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
