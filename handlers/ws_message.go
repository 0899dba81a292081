package handlers

import "encoding/json"

type WSMessageType string

const (
	WSMessageTypeFrame   WSMessageType = "frame"   // client -> server, landmarks to evaluate
	WSMessageTypeReset   WSMessageType = "reset"   // client -> server, drop the baseline
	WSMessageTypeOutcome WSMessageType = "outcome" // server -> client, sent to all watchers
	WSMessageTypeError   WSMessageType = "error"   // server -> client, only to the sender
)

type WSMessage struct {
	Type      WSMessageType `json:"type"`
	Landmarks [][]float64   `json:"landmarks,omitempty"`
	Seq       uint64        `json:"seq,omitempty"`
	Kind      string        `json:"kind,omitempty"`
	Distance  *float64      `json:"mean_distance,omitempty"`
	Render    bool          `json:"render,omitempty"`
	Status    int           `json:"status,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func wsOutcomeMessage(o OutcomeResponse) []byte {
	data, _ := json.Marshal(WSMessage{
		Type:     WSMessageTypeOutcome,
		Seq:      o.Seq,
		Kind:     o.Kind.String(),
		Distance: o.MeanDistance,
		Render:   o.Render,
	})
	return data
}

func wsErrorMessage(status int, resp Response) []byte {
	data, _ := json.Marshal(WSMessage{
		Type:   WSMessageTypeError,
		Status: status,
		Error:  resp.Error,
	})
	return data
}
