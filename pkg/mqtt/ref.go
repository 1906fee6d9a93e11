package mqtt

import "strings"

// Ref is a reference to a receiver.
type Ref struct {
	// Type is the receiver type, e.g. "ibus".
	Type string `json:"type" toml:"type"`
	// ID is unique ID of the device.
	ID string `json:"id" toml:"id"`
}

// ParseRef parses "TYPE/ID".
func ParseRef(name string) (ref Ref, ok bool) {
	items := strings.Split(name, "/")
	if len(items) != 2 {
		return
	}
	ref.Type, ref.ID = items[0], items[1]
	return ref, ref.IsValid()
}

// Name retrieves the name from ref.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates Ref is valid.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != "" &&
		!strings.ContainsAny(r.Type, "/+#") &&
		!strings.ContainsAny(r.ID, "/+#")
}

// MetaTopic is where Meta is published, retained.
func (r Ref) MetaTopic() string {
	return r.Name() + "/meta"
}

// MsgTopic is where events are published.
func (r Ref) MsgTopic() string {
	return r.Name() + "/msg"
}

// StatusTopic is where the latest status is published, retained.
func (r Ref) StatusTopic() string {
	return r.Name() + "/status"
}

// Meta provides metadata of a receiver.
type Meta struct {
	Description string            `json:"description,omitempty" toml:"description"`
	Device      string            `json:"device,omitempty" toml:"device"`
	Labels      map[string]string `json:"labels,omitempty" toml:"labels"`
}

// Info provides information of a receiver.
type Info struct {
	Ref  Ref  `json:"ref"`
	Meta Meta `json:"meta"`
}
