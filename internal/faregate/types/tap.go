package types

// TapRequest is the JSON body the scanner screen posts for each scan.
type TapRequest struct {
	GateID string `json:"gate_id"`
	CardID string `json:"card_id"`
}

// TapResponse wraps the recorded event for the scanner screen. OK mirrors
// Event.Outcome == success so the screen can branch without string checks.
type TapResponse struct {
	OK         bool      `json:"ok"`
	Event      TripEvent `json:"event"`
	ServerTime string    `json:"server_time"`
}
