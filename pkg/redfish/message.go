// Package redfish holds the Redfish wire shapes used by the authentication
// core and the conversion from registry diagnostics into those shapes.
package redfish

import "time"

// Health is the Redfish Resource.Health enum used for message severity.
type Health string

const (
	HealthOK       Health = "OK"
	HealthWarning  Health = "Warning"
	HealthCritical Health = "Critical"
)

// Message is a single Redfish Message (Message.v1_2_1). Field names are fixed
// by the protocol and must not be renamed.
type Message struct {
	ODataType       string   `json:"@odata.type,omitempty"`
	MessageID       string   `json:"MessageId"`
	Message         string   `json:"Message"`
	MessageArgs     []string `json:"MessageArgs"`
	Severity        string   `json:"Severity"`
	MessageSeverity Health   `json:"MessageSeverity,omitempty"`
	Resolution      string   `json:"Resolution"`
}

// RedfishError is the body of the "error" property of a Redfish error response.
type RedfishError struct {
	Code                string    `json:"code"`
	Message             string    `json:"message"`
	MessageExtendedInfo []Message `json:"@Message.ExtendedInfo"`
}

// Error is the Redfish error response envelope.
type Error struct {
	Error RedfishError `json:"error"`
}

// EventRecord is a single entry of a Redfish Event (Event.v1_10_1 EventRecord).
type EventRecord struct {
	EventID         string     `json:"EventId,omitempty"`
	EventTimestamp  *time.Time `json:"EventTimestamp,omitempty"`
	MessageID       string     `json:"MessageId"`
	Message         string     `json:"Message,omitempty"`
	MessageArgs     []string   `json:"MessageArgs"`
	MessageSeverity Health     `json:"MessageSeverity,omitempty"`
}

// IDRef is an odata.id reference to another resource.
type IDRef struct {
	ODataID string `json:"@odata.id"`
}

// Collection is a generic Redfish resource collection.
type Collection struct {
	ODataID      string  `json:"@odata.id"`
	ODataType    string  `json:"@odata.type"`
	Name         string  `json:"Name"`
	Members      []IDRef `json:"Members"`
	MembersCount int     `json:"Members@odata.count"`
}

// NewCollection builds a collection with a consistent member count.
func NewCollection(id, odataType, name string, members []IDRef) Collection {
	if members == nil {
		members = []IDRef{}
	}
	return Collection{
		ODataID:      id,
		ODataType:    odataType,
		Name:         name,
		Members:      members,
		MembersCount: len(members),
	}
}
