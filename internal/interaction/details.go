package interaction

import (
	"fmt"

	"fabricview/internal/devices"
	"fabricview/internal/domain"
	"fabricview/internal/scene"
)

// Placeholder fills every detail field while nothing is selected
const Placeholder = "-"

// Details is the content of the node detail panel
type Details struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Description string `json:"description"`
	VendorID    string `json:"vendor_id"`
	DeviceID    string `json:"device_id"`
	Device      string `json:"device"`
}

// EmptyDetails returns the panel shown with no selection
func EmptyDetails() Details {
	return Details{
		Type:        Placeholder,
		ID:          Placeholder,
		Description: Placeholder,
		VendorID:    Placeholder,
		DeviceID:    Placeholder,
		Device:      Placeholder,
	}
}

// DetailsFor fills the panel for a node. The vendor/model string is only
// resolved when both ids are present.
func DetailsFor(node *domain.Node, lookup devices.Lookuper) Details {
	d := EmptyDetails()
	d.Type = scene.Tooltip(node.Type)
	d.ID = node.ID
	d.Description = node.Desc

	if node.VendorID != nil {
		d.VendorID = hex(*node.VendorID)
	}
	if node.DeviceID != nil {
		d.DeviceID = hex(*node.DeviceID)
	}
	if node.HasDeviceIdentity() && lookup != nil {
		d.Device = lookup.Lookup(*node.VendorID, *node.DeviceID)
	}

	return d
}

func hex(v uint32) string {
	return fmt.Sprintf("%#x", v)
}
