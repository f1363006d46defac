package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/seuss/pkg/httpx"
	"github.com/aussiebroadwan/seuss/pkg/redfish"
)

// RedfishVersion is the protocol version advertised by the service root.
const RedfishVersion = "1.20.0"

type ServiceRootHandler struct {
	UUID string
}

// HandleVersions serves GET /redfish, the protocol version document.
func (h *ServiceRootHandler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"v1": ServiceRootPath})
}

// HandleServiceRoot serves the unauthenticated service root.
func (h *ServiceRootHandler) HandleServiceRoot(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, redfish.ServiceRoot{
		ODataID:        ServiceRootPath,
		ODataType:      redfish.ServiceRootODataType,
		ID:             "RootService",
		Name:           "Root Service",
		RedfishVersion: RedfishVersion,
		UUID:           h.UUID,
		SessionService: redfish.IDRef{ODataID: SessionServicePath},
		Links: redfish.ServiceRootLinks{
			Sessions: redfish.IDRef{ODataID: SessionsPath},
		},
	})
}

type SessionServiceHandler struct {
	Timeout time.Duration
}

func (h *SessionServiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, redfish.SessionService{
		ODataID:        SessionServicePath,
		ODataType:      redfish.SessionServiceODataType,
		ID:             "SessionService",
		Name:           "Session Service",
		ServiceEnabled: true,
		SessionTimeout: int(h.Timeout / time.Second),
		Sessions:       redfish.IDRef{ODataID: SessionsPath},
	})
}
