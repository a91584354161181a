package worker

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"
)

// Request names, host to program.
const (
	MsgInit   = "render:init"
	MsgUpdate = "render:update"
	MsgFrame  = "render:frame"
	MsgCancel = "render:cancel"
)

// Response names, program to host.
const (
	MsgAck    = "ack"
	MsgResult = "frame"
	MsgError  = "error"
)

// Request is a message sent to a program.
//
// Init and update messages carry Models and Ack. Frame requests carry ID,
// Transform and Extent. Cancel messages carry only ID.
type Request struct {
	Name      string             `json:"name"`
	Models    []*geojson.Feature `json:"models,omitempty"`
	Ack       string             `json:"ack,omitempty"`
	ID        string             `json:"id,omitempty"`
	Transform [6]float64         `json:"transform"`
	Extent    [4]float64         `json:"extent"`
}

// Response is a message sent by a program.
//
// For acks ID is the ack id of the request, for frames and errors it is
// the frame id. Commands holds the encoded painter.Batch of a frame.
type Response struct {
	Name     string          `json:"name"`
	ID       string          `json:"id,omitempty"`
	Commands json.RawMessage `json:"commands,omitempty"`
	Error    string          `json:"error,omitempty"`
}
