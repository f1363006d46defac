package authx

import (
	"net/http"
	"slices"
)

// Chain tries strategies in order. The first user returned wins. A strategy
// that finds credential material and rejects it ends the chain; later
// strategies are not consulted. When every strategy abstains the request is
// anonymous and Chain returns (nil, nil).
type Chain []Authenticator

func (c Chain) AuthenticateRequest(r *http.Request) (*AuthenticatedUser, error) {
	for _, a := range c {
		if p, ok := a.(CredentialProber); ok && !p.HasCredentials(r) {
			continue
		}

		user, err := a.AuthenticateRequest(r)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, nil
}

// Challenge is the ordered union of every strategy's schemes.
func (c Chain) Challenge() []string {
	var out []string
	for _, a := range c {
		for _, s := range a.Challenge() {
			if !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	}
	return out
}
