package httpclient

// OutcomeKind classifies a single attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeConnectivity
	OutcomeOther
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeConnectivity:
		return "connectivity"
	default:
		return "other"
	}
}

// Outcome is the classified result of one attempt. Response is set only for
// OutcomeSuccess and Err only for the failure kinds.
type Outcome struct {
	Kind     OutcomeKind
	Response *Response
	Err      error
}

func successOutcome(resp *Response) Outcome {
	return Outcome{Kind: OutcomeSuccess, Response: resp}
}

// failureOutcome derives the kind from err.
func failureOutcome(err error) Outcome {
	if IsConnectivity(err) {
		return Outcome{Kind: OutcomeConnectivity, Err: err}
	}
	return Outcome{Kind: OutcomeOther, Err: err}
}
