package models

// CallDirection represents the direction of a simulated call
type CallDirection string

const (
	CallDirectionIncoming CallDirection = "incoming"
	CallDirectionOutgoing CallDirection = "outgoing"
)

// CallState is the ephemeral state of a simulated call. It is never
// persisted; it exists only while a call is active and resets on hang-up.
type CallState struct {
	IsActive    bool          `json:"isActive"`
	StartTime   *int64        `json:"startTime"`
	Duration    int           `json:"duration"`
	Direction   CallDirection `json:"direction"`
	ContactName string        `json:"contactName"`
}

// InactiveCallState returns the reset state used between calls.
func InactiveCallState() CallState {
	return CallState{
		IsActive:    false,
		StartTime:   nil,
		Duration:    0,
		Direction:   CallDirectionOutgoing,
		ContactName: "Unknown",
	}
}

// CallSummary is emitted once when a call ends.
type CallSummary struct {
	Contact  string `json:"contact"`
	Duration int    `json:"duration"`
}
