package uri

import (
	"strconv"
	"strings"

	"minhttp/application/util/rule"

	"github.com/pkg/errors"
)

var ErrMalformedURI = errors.New("malformed URI")

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// DefaultPort returns the well-known port of the scheme.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-4.2
func DefaultPort(scheme string) (port uint16, ok bool) {
	switch scheme {
	case SchemeHTTP:
		return 80, true
	case SchemeHTTPS:
		return 443, true
	}
	return 0, false
}

// IsHTTP reports whether the scheme of u can be dialed by this module.
func IsHTTP(u URI) bool {
	_, ok := DefaultPort(u.Scheme)
	return ok && u.Authority != nil && u.Authority.Host != ""
}

// URI is treated as immutable once parsed: methods never modify the receiver,
// and [URI.Clone] should be used before changing a component.
type URI struct {
	Scheme    string
	Authority *Authority
	Path      string
	Query     *string
	Fragment  *string
}

type Authority struct {
	UserInfo string
	Host     string

	// NOTE: Port can be digits of any length. But practically it is in range of 0 ~ 65535.
	// Reference: datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
	Port *uint16
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.2
func (u URI) IsRelativeRef() bool {
	return u.Scheme == ""
}

// Port returns explicit port, or default port of the scheme.
func (u URI) Port() uint16 {
	if u.Authority != nil && u.Authority.Port != nil {
		return *u.Authority.Port
	}
	port, _ := DefaultPort(u.Scheme)
	return port
}

func (u URI) Host() string {
	if u.Authority == nil {
		return ""
	}
	return u.Authority.Host
}

// HostHeader returns value for the Host field.
// The port is omitted when it's the default port of the scheme.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-7.2
func (u URI) HostHeader() string {
	host := u.Host()
	if u.Authority == nil || u.Authority.Port == nil {
		return host
	}

	port := *u.Authority.Port
	if def, ok := DefaultPort(u.Scheme); ok && def == port {
		return host
	}

	return host + ":" + strconv.FormatUint(uint64(port), 10)
}

// HostPort returns "host:port" for dialing. IP literal brackets are kept.
func (u URI) HostPort() string {
	return u.Host() + ":" + strconv.FormatUint(uint64(u.Port()), 10)
}

// RequestTarget returns the origin-form of the target.
// Fragment is never sent.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
func (u URI) RequestTarget() string {
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.Query != nil {
		return path + "?" + *u.Query
	}
	return path
}

func (a *Authority) Username() string {
	name, _, _ := strings.Cut(a.UserInfo, ":")
	return name
}

func (a *Authority) Password() (password string, ok bool) {
	_, password, ok = strings.Cut(a.UserInfo, ":")
	return
}

func (u URI) Clone() URI {
	out := u
	if u.Authority != nil {
		a := *u.Authority
		if a.Port != nil {
			port := *a.Port
			a.Port = &port
		}
		out.Authority = &a
	}
	if u.Query != nil {
		q := *u.Query
		out.Query = &q
	}
	if u.Fragment != nil {
		f := *u.Fragment
		out.Fragment = &f
	}
	return out
}

// String recomposes the URI with the password replaced by asterisks.
// Use [URI.Raw] when the password is needed.
func (u URI) String() string { return u.recompose(true) }

// Raw recomposes the URI exactly from its components.
func (u URI) Raw() string { return u.recompose(false) }

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u URI) recompose(maskPassword bool) string {
	b := new(strings.Builder)
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteByte(':')
	}

	if a := u.Authority; a != nil {
		b.WriteString("//")
		if a.UserInfo != "" {
			if password, ok := a.Password(); ok && maskPassword {
				b.WriteString(a.Username())
				b.WriteByte(':')
				b.WriteString(strings.Repeat("*", len(password)))
			} else {
				b.WriteString(a.UserInfo)
			}
			b.WriteByte('@')
		}
		b.WriteString(a.Host)
		if a.Port != nil {
			b.WriteByte(':')
			b.WriteString(strconv.FormatUint(uint64(*a.Port), 10))
		}
	}

	b.WriteString(u.Path)

	if u.Query != nil {
		b.WriteByte('?')
		b.WriteString(*u.Query)
	}

	if u.Fragment != nil {
		b.WriteByte('#')
		b.WriteString(*u.Fragment)
	}

	return b.String()
}

// Parse parses absolute form of http(s) URI:
//
//	scheme "://" [userinfo "@"] host [":" port] [path] ["?" query] ["#" fragment]
//
// Missing path is set to "/". Scheme and host are lower-cased.
func Parse(raw string) (URI, error) {
	u, err := parseAbsolute(raw)
	if err != nil {
		return URI{}, malformed(raw, err)
	}
	return u, nil
}

// ParseReference parses either absolute form (see [Parse]) or relative reference:
//
//	["//" authority] path ["?" query] ["#" fragment]
//
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-4.2
func ParseReference(raw string) (URI, error) {
	if _, ok := schemeOf(raw); ok {
		return Parse(raw)
	}

	u, err := parseRelative(raw)
	if err != nil {
		return URI{}, malformed(raw, err)
	}
	return u, nil
}

func malformed(raw string, cause error) error {
	return errors.Wrapf(ErrMalformedURI, "%q: %s", raw, cause)
}

func parseAbsolute(raw string) (URI, error) {
	if rule.ContainsCTL(raw) || strings.ContainsRune(raw, ' ') {
		return URI{}, errors.New("URI should not contain CTL bytes or spaces")
	}

	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		return URI{}, errors.New(`scheme delimiter "://" not found`)
	}
	if err := checkScheme(scheme); err != nil {
		return URI{}, errors.Wrap(err, "scheme is not valid")
	}

	var u URI
	// Scheme is recommended to be lowercase.
	u.Scheme = strings.ToLower(scheme)

	authorityRaw, rest := cutAuthority(rest)
	authority, err := parseAuthority(authorityRaw)
	if err != nil {
		return URI{}, errors.Wrap(err, "parsing authority")
	}
	if authority.Host == "" {
		return URI{}, errors.New("host is empty")
	}
	u.Authority = &authority

	if err := u.setPathQueryFrag(rest); err != nil {
		return URI{}, err
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u, nil
}

func parseRelative(raw string) (URI, error) {
	if rule.ContainsCTL(raw) || strings.ContainsRune(raw, ' ') {
		return URI{}, errors.New("URI should not contain CTL bytes or spaces")
	}

	var u URI
	rest := raw
	if after, found := strings.CutPrefix(raw, "//"); found {
		// network-path reference.
		var authorityRaw string
		authorityRaw, rest = cutAuthority(after)
		authority, err := parseAuthority(authorityRaw)
		if err != nil {
			return URI{}, errors.Wrap(err, "parsing authority")
		}
		if authority.Host == "" {
			return URI{}, errors.New("host is empty")
		}
		u.Authority = &authority
	}

	if err := u.setPathQueryFrag(rest); err != nil {
		return URI{}, err
	}

	return u, nil
}

func (u *URI) setPathQueryFrag(rest string) error {
	path, query, frag := splitPathQueryFrag(rest)

	hasAuthority := u.Authority != nil
	if err := checkPath(path, hasAuthority, u.IsRelativeRef()); err != nil {
		return errors.Wrap(err, "path is not valid")
	}
	u.Path = path

	if query != "" {
		// Strip '?' from query.
		query = query[1:]
		if !charset(queryChar).conforms(query) {
			return errors.New("query is not valid")
		}
		u.Query = &query
	}

	if frag != "" {
		// Strip '#' from fragment.
		frag = frag[1:]
		if !charset(queryChar).conforms(frag) {
			return errors.New("fragment is not valid")
		}
		u.Fragment = &frag
	}

	return nil
}

// schemeOf returns scheme if raw starts with a valid scheme followed by ':'.
func schemeOf(raw string) (string, bool) {
	idx := strings.IndexAny(raw, ":/?#")
	if idx <= 0 || raw[idx] != ':' {
		return "", false
	}

	scheme := raw[:idx]
	if checkScheme(scheme) != nil {
		return "", false
	}
	return scheme, true
}

// cutAuthority cuts authority which ends at first '/', '?' or '#'.
func cutAuthority(s string) (authority, rest string) {
	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		return s[:idx], s[idx:]
	}
	return s, ""
}

func parseAuthority(raw string) (authority Authority, err error) {
	host := raw
	if i := strings.IndexByte(raw, '@'); i >= 0 {
		authority.UserInfo, host = raw[:i], raw[i+1:]
		if !charset(userInfoChar).conforms(authority.UserInfo) {
			return Authority{}, errors.New("user information is not valid")
		}
	}

	host, portPart, err := getHostPort(host)
	if err != nil {
		return Authority{}, errors.Wrap(err, "parsing host")
	}

	port, hasPort, err := parsePort(portPart)
	if err != nil {
		return Authority{}, errors.Wrap(err, "parsing port")
	}

	if hasPort {
		authority.Port = &port
	}

	authority.Host = strings.ToLower(host)

	return authority, nil
}

func getHostPort(raw string) (host string, portPart string, err error) {
	if strings.HasPrefix(raw, "[") {
		// This is IP Literal.
		idx := strings.LastIndex(raw, "]")
		if idx < 0 {
			return "", "", errors.New("missing ']' in IP Literal")
		}

		host = raw[:idx+1]
		portPart = raw[idx+1:]
	} else {
		// ipv4 or reg-name.
		host = raw
		if idx := strings.LastIndex(raw, ":"); idx >= 0 {
			host = raw[:idx]
			portPart = raw[idx:]
		}
	}

	if err := checkHost(host); err != nil {
		return "", "", errors.Wrap(err, "host is not valid")
	}

	return host, portPart, nil
}

// This is not the same rule as RFC. See [Authority].
func parsePort(s string) (port uint16, hasPort bool, err error) {
	if s == "" {
		return 0, false, nil
	}

	if s[0] != ':' {
		return 0, false, errors.New("colon delimiter not found on port")
	}

	s = s[1:]
	if s == "" {
		// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
		return 0, false, nil
	}

	for i := 0; i < len(s); i++ {
		if !rule.IsDigit(rune(s[i])) {
			return 0, false, errors.Errorf("port has non-digit byte: %q", s)
		}
	}

	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to parse uint")
	}

	if s[0] == '0' && !(n == 0 && len(s) == 1) {
		return 0, false, errors.New("port has leading zero")
	}

	return uint16(n), true, nil
}

func splitPathQueryFrag(raw string) (path, query, frag string) {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		frag = raw[idx:]
		raw = raw[:idx]
	}

	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		query = raw[idx:]
		raw = raw[:idx]
	}

	path = raw
	return
}
