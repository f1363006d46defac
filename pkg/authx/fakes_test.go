package authx_test

import (
	"context"
	"strconv"
	"sync"

	"github.com/aussiebroadwan/seuss/pkg/authx"
	"github.com/aussiebroadwan/seuss/pkg/privilege"
	"github.com/aussiebroadwan/seuss/pkg/redfish"
)

type fakeAccounts struct {
	users map[string]string
	err   error
}

func (f *fakeAccounts) Authenticate(_ context.Context, username, password string) (*authx.AuthenticatedUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	if pw, ok := f.users[username]; !ok || pw != password {
		return nil, authx.ErrInvalidCredentials
	}
	return &authx.AuthenticatedUser{
		Username:   username,
		Roles:      []string{privilege.RoleReadOnly},
		Privileges: []privilege.Privilege{privilege.Login, privilege.ConfigureSelf},
	}, nil
}

type fakeSession struct {
	redfish.Session
	owner string
}

// fakeSessions is a minimal in-memory SessionManagement.
type fakeSessions struct {
	mu      sync.Mutex
	next    int
	byToken map[string]*fakeSession
	byID    map[string]*fakeSession
	err     error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: map[string]*fakeSession{}, byID: map[string]*fakeSession{}}
}

func (f *fakeSessions) SessionIsValid(_ context.Context, token string, origin *string) (*authx.AuthenticatedUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byToken[token]
	if !ok {
		return nil, authx.ErrSessionNotFound
	}
	if s.Origin != "" && origin != nil && *origin != s.Origin {
		return nil, authx.ErrOriginMismatch
	}
	return &authx.AuthenticatedUser{
		Username:   s.owner,
		Privileges: []privilege.Privilege{privilege.Login, privilege.ConfigureSelf},
		SessionID:  s.ID,
	}, nil
}

func (f *fakeSessions) Sessions(context.Context) ([]redfish.IDRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := make([]redfish.IDRef, 0, len(f.byID))
	for i := 1; i <= f.next; i++ {
		if s, ok := f.byID[strconv.Itoa(i)]; ok {
			refs = append(refs, redfish.IDRef{ODataID: s.ODataID})
		}
	}
	return refs, nil
}

func (f *fakeSessions) CreateSession(_ context.Context, s redfish.Session, basePath string) (redfish.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	s.ID = strconv.Itoa(f.next)
	s.ODataID = basePath + "/" + s.ID
	s.Token = "token-" + s.ID
	s.Password = ""
	fs := &fakeSession{Session: s, owner: s.UserName}
	f.byID[s.ID] = fs
	f.byToken[s.Token] = fs
	return s, nil
}

func (f *fakeSessions) GetSession(_ context.Context, id string) (redfish.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return redfish.Session{}, authx.ErrSessionNotFound
	}
	return s.Session, nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return authx.ErrSessionNotFound
	}
	delete(f.byID, id)
	delete(f.byToken, s.Token)
	return nil
}

type recordingObserver struct {
	mu      sync.Mutex
	authn   []string
	denials []string
}

func (o *recordingObserver) AuthnAttempt(scheme, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.authn = append(o.authn, scheme+"/"+outcome)
}

func (o *recordingObserver) AuthzDenied(entity string, op privilege.Operation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.denials = append(o.denials, entity+"/"+string(op))
}
