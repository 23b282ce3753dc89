// Package interaction provides the registered-client view used for
// return-URL trust decisions.
package interaction

import (
	"net/url"
	"strings"

	"github.com/latsic/idbridge/internal/config"
	"github.com/latsic/idbridge/internal/core"
)

type client struct {
	id           string
	redirectURIs []string
	public       bool
}

// ClientRegistry answers redirect-trust questions from the static client
// configuration. A return URL is trusted when it is local-relative or when it
// is an authorize request naming a registered client whose redirect_uri is one
// of the client's registered URIs.
type ClientRegistry struct {
	clients map[string]client
}

var _ core.AuthorizationContextService = (*ClientRegistry)(nil)

func NewClientRegistry(cfgs []config.ClientConfig) *ClientRegistry {
	clients := make(map[string]client, len(cfgs))
	for _, c := range cfgs {
		clients[c.ClientID] = client{
			id:           c.ClientID,
			redirectURIs: append([]string(nil), c.RedirectURIs...),
			public:       c.Public,
		}
	}
	return &ClientRegistry{clients: clients}
}

func (r *ClientRegistry) IsValidReturnURL(rawURL string) bool {
	if isLocalURL(rawURL) {
		return true
	}
	return r.AuthorizationContext(rawURL) != nil
}

func (r *ClientRegistry) AuthorizationContext(rawURL string) *core.ClientContext {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	q := u.Query()
	clientID := q.Get("client_id")
	if clientID == "" {
		return nil
	}
	c, ok := r.clients[clientID]
	if !ok {
		return nil
	}

	redirectURI := q.Get("redirect_uri")
	if redirectURI != "" && !c.allowsRedirect(redirectURI) {
		return nil
	}

	return &core.ClientContext{ClientID: c.id, PKCE: c.public}
}

func (r *ClientRegistry) IsPKCEClient(clientID string) bool {
	c, ok := r.clients[clientID]
	return ok && c.public
}

func (c client) allowsRedirect(uri string) bool {
	for _, allowed := range c.redirectURIs {
		if uri == allowed {
			return true
		}
	}
	return false
}

// isLocalURL mirrors the validator's notion of a same-host path: it must
// start with a single "/" and not be protocol-relative.
func isLocalURL(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "/") {
		return false
	}
	return !strings.HasPrefix(rawURL, "//") && !strings.HasPrefix(rawURL, "/\\")
}
