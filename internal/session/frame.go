package session

import (
	"fabricview/internal/interaction"
	"fabricview/internal/scene"
)

// NoDatasetNotice is shown while no dataset has been loaded
const NoDatasetNotice = "Please select a fabric dataset."

// Frame is everything a client needs to draw the current view
type Frame struct {
	Dataset    string               `json:"dataset"`
	Generation uint64               `json:"generation"`
	Loading    bool                 `json:"loading"`
	Nodes      []scene.NodeDrawable `json:"nodes"`
	Links      []scene.LinkDrawable `json:"links"`
	Selected   string               `json:"selected,omitempty"`
	State      string               `json:"state"`
	Details    interaction.Details  `json:"details"`
	Alpha      float64              `json:"alpha"`
	Notice     string               `json:"notice,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// InputType names a pointer input forwarded by a client
type InputType string

const (
	InputPointerDown InputType = "pointerdown"
	InputPointerMove InputType = "pointermove"
	InputPointerUp   InputType = "pointerup"
	InputClick       InputType = "click"
	InputBackground  InputType = "background"
)

// Input is one pointer event in layout coordinates
type Input struct {
	Type InputType `json:"type"`
	Node string    `json:"node,omitempty"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}
