package domain

// ConnectionKind describes how a device attaches to the home network.
type ConnectionKind string

const (
	ConnectionOrigin   ConnectionKind = "Origin"
	ConnectionWired    ConnectionKind = "Wired"
	ConnectionWireless ConnectionKind = "Wireless"
)

// ParseConnectionKind converts a string to a ConnectionKind, defaulting to wired.
func ParseConnectionKind(s string) ConnectionKind {
	switch s {
	case "Origin", "origin":
		return ConnectionOrigin
	case "Wireless", "wireless":
		return ConnectionWireless
	default:
		return ConnectionWired
	}
}

// Device is one node in a network snapshot.
type Device struct {
	Name         string         `json:"name"`
	Connection   ConnectionKind `json:"connection"`
	Capabilities []string       `json:"capabilities"`
	Online       bool           `json:"online"`
	CPUUsage     float64        `json:"cpu_usage"`
	MemUsage     float64        `json:"mem_usage"`
}

// NetworkState is a full snapshot of the monitored network.
// Every emission replaces the previous one; there is no diffing.
type NetworkState []Device
