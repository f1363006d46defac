package redfish

import "time"

const (
	SessionODataType           = "#Session.v1_7_2.Session"
	SessionCollectionODataType = "#SessionCollection.SessionCollection"
	SessionServiceODataType    = "#SessionService.v1_1_9.SessionService"
	ServiceRootODataType       = "#ServiceRoot.v1_16_1.ServiceRoot"
)

// SessionType is the Session.v1_7 SessionTypes enum.
type SessionType string

const (
	SessionTypeRedfish        SessionType = "Redfish"
	SessionTypeHostConsole    SessionType = "HostConsole"
	SessionTypeManagerConsole SessionType = "ManagerConsole"
	SessionTypeWebUI          SessionType = "WebUI"
	SessionTypeOEM            SessionType = "OEM"
)

// Session is the Redfish Session resource. Password is accepted on create
// and never rendered; Token is handed back through the X-Auth-Token header.
type Session struct {
	ODataID               string      `json:"@odata.id,omitempty"`
	ODataType             string      `json:"@odata.type,omitempty"`
	ID                    string      `json:"Id,omitempty"`
	Name                  string      `json:"Name,omitempty"`
	Description           string      `json:"Description,omitempty"`
	UserName              string      `json:"UserName,omitempty"`
	Password              string      `json:"Password,omitempty"`
	Context               string      `json:"Context,omitempty"`
	ClientOriginIPAddress string      `json:"ClientOriginIPAddress,omitempty"`
	SessionType           SessionType `json:"SessionType,omitempty"`
	CreatedTime           *time.Time  `json:"CreatedTime,omitempty"`

	Token  string `json:"-"`
	Origin string `json:"-"`
}

// Redacted returns a copy safe to render: write-only fields are cleared.
func (s Session) Redacted() Session {
	s.Password = ""
	s.Token = ""
	s.Origin = ""
	return s
}

// SessionService is the Redfish SessionService resource.
type SessionService struct {
	ODataID        string `json:"@odata.id"`
	ODataType      string `json:"@odata.type"`
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	ServiceEnabled bool   `json:"ServiceEnabled"`
	SessionTimeout int    `json:"SessionTimeout"`
	Sessions       IDRef  `json:"Sessions"`
}

// ServiceRoot is the subset of the Redfish ServiceRoot the service renders.
type ServiceRoot struct {
	ODataID        string           `json:"@odata.id"`
	ODataType      string           `json:"@odata.type"`
	ID             string           `json:"Id"`
	Name           string           `json:"Name"`
	RedfishVersion string           `json:"RedfishVersion"`
	UUID           string           `json:"UUID,omitempty"`
	SessionService IDRef            `json:"SessionService"`
	Links          ServiceRootLinks `json:"Links"`
}

// ServiceRootLinks holds the ServiceRoot Links property.
type ServiceRootLinks struct {
	Sessions IDRef `json:"Sessions"`
}
