package domain

import (
	"fmt"
	"strconv"
)

// NodeType is the InfiniBand node type as reported by the subnet manager
type NodeType int

const (
	NodeTypeUnknown NodeType = 0
	NodeTypeHCA     NodeType = 1
	NodeTypeSwitch  NodeType = 2
	NodeTypeRouter  NodeType = 3
)

var nodeTypeNames = map[NodeType]string{
	NodeTypeHCA:    "HCA",
	NodeTypeSwitch: "Switch",
	NodeTypeRouter: "Router",
}

// Name returns the human name of the node type, or "" if the type is not recognized
func (t NodeType) Name() string {
	return nodeTypeNames[t]
}

// Known reports whether t is one of HCA, Switch or Router
func (t NodeType) Known() bool {
	_, ok := nodeTypeNames[t]
	return ok
}

func (t NodeType) String() string {
	if name := t.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Node represents a fabric participant
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Type     NodeType `json:"nodetype" yaml:"nodetype"`
	Desc     string   `json:"desc" yaml:"desc"`
	VendorID *uint32  `json:"vendor_id,omitempty" yaml:"vendor_id,omitempty"`
	DeviceID *uint32  `json:"device_id,omitempty" yaml:"device_id,omitempty"`
}

// NewNode creates a node without vendor or device identity
func NewNode(id string, nodeType NodeType, desc string) *Node {
	return &Node{
		ID:   id,
		Type: nodeType,
		Desc: desc,
	}
}

// WithDevice sets the vendor and device ids and returns the node
func (n *Node) WithDevice(vendorID, deviceID uint32) *Node {
	n.VendorID = &vendorID
	n.DeviceID = &deviceID
	return n
}

// HasDeviceIdentity reports whether both vendor and device ids are present
func (n *Node) HasDeviceIdentity() bool {
	return n.VendorID != nil && n.DeviceID != nil
}

// GUID parses the node id as a hexadecimal GUID.
// Topologies written by FabricMon use the 16 digit form ("0002c903000e0b72").
func (n *Node) GUID() (uint64, bool) {
	guid, err := strconv.ParseUint(n.ID, 16, 64)
	if err != nil {
		return 0, false
	}
	return guid, true
}
