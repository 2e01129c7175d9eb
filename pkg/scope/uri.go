package scope

import (
	"fmt"
	"strings"
)

// URIScope selects which advertised address of an instance is resolved.
type URIScope string

const (
	// URIScopePeer is the address peers use for replication.
	URIScopePeer URIScope = "peer"

	// URIScopeSharding is the address the sharding subsystem uses. It falls
	// back to the peer scope when no sharding-specific address is set.
	URIScopeSharding URIScope = "sharding"
)

// URI is a parsed instance address in [login[:password]@]host:service form.
type URI struct {
	// Login is the user part of the address. Empty when the address carries
	// no user info.
	Login string

	// Password is the password part of the address, if any.
	Password string

	// Host is the host name, IP address, or unix-socket marker.
	Host string

	// Service is the port or unix-socket path.
	Service string
}

// ParseURI parses an address string. The login and password parts are
// optional; host is required.
func ParseURI(s string) (*URI, error) {
	if s == "" {
		return nil, fmt.Errorf("empty URI")
	}

	u := &URI{}
	rest := s
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		userinfo := rest[:at]
		rest = rest[at+1:]
		if colon := strings.Index(userinfo, ":"); colon >= 0 {
			u.Login = userinfo[:colon]
			u.Password = userinfo[colon+1:]
		} else {
			u.Login = userinfo
		}
	}

	if colon := strings.LastIndex(rest, ":"); colon >= 0 {
		u.Host = rest[:colon]
		u.Service = rest[colon+1:]
	} else {
		u.Host = rest
	}

	if u.Host == "" {
		return nil, fmt.Errorf("URI %q has no host", s)
	}
	return u, nil
}

// WithDefaultLogin returns a copy of the URI carrying the given login when
// the URI has none. A URI that already has a login is returned unchanged, so
// normalization is idempotent.
func (u *URI) WithDefaultLogin(login string) *URI {
	if u.Login != "" {
		return u
	}
	out := *u
	out.Login = login
	return &out
}

// String renders the URI back to [login[:password]@]host:service form.
func (u *URI) String() string {
	var b strings.Builder
	if u.Login != "" {
		b.WriteString(u.Login)
		if u.Password != "" {
			b.WriteString(":")
			b.WriteString(u.Password)
		}
		b.WriteString("@")
	}
	b.WriteString(u.Host)
	if u.Service != "" {
		b.WriteString(":")
		b.WriteString(u.Service)
	}
	return b.String()
}

// InstanceURI resolves the advertised address of an instance for the given
// scope from its defaulted option tree. The sharding scope falls back to the
// peer scope, and both fall back to the first iproto.listen entry. The
// second return value reports whether any address could be resolved.
func InstanceURI(t Tree, uscope URIScope) (*URI, bool) {
	var advertise map[string]any
	if uscope == URIScopeSharding {
		if v, ok := t.Get("iproto.advertise.sharding"); ok {
			advertise, _ = v.(map[string]any)
		}
	}
	if advertise == nil {
		if v, ok := t.Get("iproto.advertise.peer"); ok {
			advertise, _ = v.(map[string]any)
		}
	}

	uriStr := ""
	login := ""
	password := ""
	if advertise != nil {
		uriStr, _ = advertise["uri"].(string)
		login, _ = advertise["login"].(string)
		password, _ = advertise["password"].(string)
	}
	if uriStr == "" {
		uriStr = firstListenURI(t)
	}
	if uriStr == "" {
		return nil, false
	}

	u, err := ParseURI(uriStr)
	if err != nil {
		return nil, false
	}
	if u.Login == "" && login != "" {
		u.Login = login
		u.Password = password
	}
	return u, true
}

func firstListenURI(t Tree) string {
	v, ok := t.Get("iproto.listen")
	if !ok {
		return ""
	}
	seq, ok := v.([]any)
	if !ok {
		return ""
	}
	for _, item := range seq {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if uri, ok := entry["uri"].(string); ok && uri != "" {
			return uri
		}
	}
	return ""
}
