package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/seuss/internal/seuss/service"
	"github.com/aussiebroadwan/seuss/pkg/authx"
	"github.com/aussiebroadwan/seuss/pkg/httpx"
	"github.com/aussiebroadwan/seuss/pkg/redfish"
	"github.com/aussiebroadwan/seuss/pkg/slogx"
)

// maxCreateBody bounds the session create request body.
const maxCreateBody = 16 << 10

// SessionsHandler serves the session collection and its members.
type SessionsHandler struct {
	Sessions  authx.SessionManagement
	Challenge []string
	BasePath  string
}

// createSessionRequest holds the writable Session properties.
type createSessionRequest struct {
	UserName    string              `json:"UserName"`
	Password    string              `json:"Password"`
	Context     string              `json:"Context"`
	SessionType redfish.SessionType `json:"SessionType"`
}

// messageResponse is a body carrying only extended info, used for
// successful operations that return no resource.
type messageResponse struct {
	ExtendedInfo []redfish.Message `json:"@Message.ExtendedInfo"`
}

// HandleList serves GET on the session collection.
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	refs, err := h.Sessions.Sessions(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, redfish.NewCollection(
		h.BasePath,
		redfish.SessionCollectionODataType,
		"Session Collection",
		refs,
	))
}

// HandleCreate serves POST on the session collection: the Redfish login.
// The token is returned once, in the X-Auth-Token header.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBody)).Decode(&body); err != nil {
		slogx.FromContext(r.Context()).Info("malformed session create body", "error", err)
		httpx.WriteError(w, http.StatusBadRequest, redfish.ErrorFrom(redfish.MalformedJSON.With()))
		return
	}

	session, err := h.Sessions.CreateSession(r.Context(), redfish.Session{
		UserName:              body.UserName,
		Password:              body.Password,
		Context:               body.Context,
		SessionType:           body.SessionType,
		Origin:                r.Header.Get(authx.HeaderOrigin),
		ClientOriginIPAddress: httpx.ClientIP(r),
	}, h.BasePath)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}

	w.Header().Set(authx.HeaderAuthToken, session.Token)
	w.Header().Set("Location", session.ODataID)
	httpx.WriteJSON(w, http.StatusCreated, session.Redacted())
}

// HandleGet serves GET on a session member.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := h.Sessions.GetSession(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, id)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session.Redacted())
}

// HandleDelete serves DELETE on a session member. Callers holding only
// ConfigureSelf may delete their own sessions.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if authx.DecisionFromContext(ctx).SelfOnly {
		session, err := h.Sessions.GetSession(ctx, id)
		if err != nil {
			h.writeError(w, r, err, id)
			return
		}
		user := authx.UserFromContext(ctx)
		if user == nil || session.UserName != user.Username {
			slogx.FromContext(ctx).Info("refusing to delete another user's session", "session_id", id)
			authx.Forbidden().WriteError(w)
			return
		}
	}

	if err := h.Sessions.DeleteSession(ctx, id); err != nil {
		h.writeError(w, r, err, id)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{
		ExtendedInfo: []redfish.Message{redfish.IntoMessage(redfish.Success.With())},
	})
}

// writeError renders a session backend failure. id names the member the
// request addressed, empty for collection requests.
func (h *SessionsHandler) writeError(w http.ResponseWriter, r *http.Request, err error, id string) {
	var missing *service.PropertyMissingError
	switch {
	case errors.As(err, &missing):
		httpx.WriteError(w, http.StatusBadRequest, redfish.ErrorFrom(missing.Diagnostic()))
	case errors.Is(err, authx.ErrSessionNotFound):
		httpx.WriteError(w, http.StatusNotFound, redfish.ErrorFrom(redfish.ResourceNotFound.With("Session", id)))
	case errors.Is(err, authx.ErrInvalidCredentials):
		authx.Unauthorized(h.Challenge, r.URL.Path, err).WriteError(w)
	case errors.Is(err, authx.ErrSessionLimitExceeded):
		httpx.WriteError(w, http.StatusServiceUnavailable, redfish.ErrorFrom(redfish.SessionLimitExceeded.With()))
	default:
		slogx.FromContext(r.Context()).Error("session backend failed", "error", err)
		authx.Internal(err).WriteError(w)
	}
}
