package soap

// OutcomeKind tags the result of one CallAction.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeClientError
	OutcomeServerError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeClientError:
		return "client_error"
	case OutcomeServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of an action call.
// The caller owns Response; the client keeps no reference to it.
type Outcome struct {
	Kind       OutcomeKind
	Response   Response
	Action     string
	Endpoint   Endpoint
	ClientType string
	// Stubbed is set when Response came from the override slot and no exchange happened.
	Stubbed bool
}

// OK reports a successful call.
func (o *Outcome) OK() bool {
	return o != nil && o.Kind == OutcomeSuccess
}

// Err returns the failure matching Kind, or nil on success.
func (o *Outcome) Err() error {
	if o == nil {
		return nil
	}
	switch o.Kind {
	case OutcomeClientError:
		return &ClientError{Outcome: o}
	case OutcomeServerError:
		return &ServerError{Outcome: o}
	default:
		return nil
	}
}

// classify applies the precedence: HTTP 4xx, then body-level gateway failure, then success.
func classify(statusCode int, resp Response) OutcomeKind {
	if isClientErrorStatus(statusCode) {
		return OutcomeClientError
	}
	if resp.IsGatewayServerError() {
		return OutcomeServerError
	}
	return OutcomeSuccess
}
