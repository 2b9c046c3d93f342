package api

// State tracks a logical request through send, refresh and replay
type State int

const (
	StateInitial State = iota
	StateSent
	StateSuccess
	StateFailed
	StateUnauthorized
	StateRefreshing
	StateRetriedSuccess
	StateRetriedFailed
	StateRefreshFailed
)

var stateNames = map[State]string{
	StateInitial:        "initial",
	StateSent:           "sent",
	StateSuccess:        "success",
	StateFailed:         "failed",
	StateUnauthorized:   "unauthorized",
	StateRefreshing:     "refreshing",
	StateRetriedSuccess: "retried_success",
	StateRetriedFailed:  "retried_failed",
	StateRefreshFailed:  "refresh_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateFailed, StateRetriedSuccess, StateRetriedFailed, StateRefreshFailed:
		return true
	}
	return false
}

// attempt is one logical request. retried is set before the replay so a
// request is never refreshed twice.
type attempt struct {
	req       Request
	body      []byte
	requestID string
	state     State
	retried   bool
}
