package uri

import (
	"strings"

	"minhttp/lib/ds/stack"

	"github.com/pkg/errors"
)

// ResolveRedirect resolves value of Location field against the target it was received for.
// An absolute location replaces base entirely.
// A relative one inherits scheme and authority from base.
// If location has no fragment, fragment of base is kept.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-10.2.2
func ResolveRedirect(base URI, location string) (URI, error) {
	location = strings.Trim(location, " \t")
	if location == "" {
		return URI{}, errors.Wrap(ErrMalformedURI, "location is empty")
	}

	ref, err := ParseReference(location)
	if err != nil {
		return URI{}, err
	}

	if !ref.IsRelativeRef() {
		return ref, nil
	}

	if base.IsRelativeRef() {
		return URI{}, errors.Wrap(ErrMalformedURI, "base cannot be relative ref")
	}

	out := base.Resolve(ref)
	if out.Fragment == nil && base.Fragment != nil {
		frag := *base.Fragment
		out.Fragment = &frag
	}
	if out.Path == "" {
		out.Path = "/"
	}

	return out, nil
}

// Resolve transforms ref into target URI using u as base.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func (u URI) Resolve(ref URI) URI {
	base := u.Clone()
	out := ref.Clone()

	if out.Scheme != "" {
		out.Path = removeDotSegments(out.Path)
		return out
	}
	out.Scheme = base.Scheme

	if out.Authority != nil {
		out.Path = removeDotSegments(out.Path)
		return out
	}
	out.Authority = base.Authority

	if out.Path != "" {
		if !strings.HasPrefix(out.Path, "/") {
			out.Path = mergePath(base, out)
		}
		out.Path = removeDotSegments(out.Path)
		return out
	}
	out.Path = base.Path

	if out.Query == nil {
		out.Query = base.Query
	}

	return out
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePath(base, ref URI) string {
	if base.Authority != nil && base.Path == "" {
		return "/" + ref.Path
	}

	if idx := strings.LastIndexByte(base.Path, '/'); idx >= 0 {
		return base.Path[:idx+1] + ref.Path
	}

	return ref.Path
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	out := stack.New[string](0)

	for len(path) > 0 {
		var found bool
		// "../" or "./" prefix is removed.
		if path, found = strings.CutPrefix(path, "../"); found {
			continue
		}
		if path, found = strings.CutPrefix(path, "./"); found {
			continue
		}

		// "/./" or "/." as a complete segment is replaced with "/".
		if path, found = strings.CutPrefix(path, "/./"); found {
			path = "/" + path
			continue
		} else if path == "/." {
			path = "/"
			continue
		}

		// "/../" or "/.." as a complete segment is replaced with "/",
		// and the last output segment is removed.
		if path, found = strings.CutPrefix(path, "/../"); found {
			out.Pop()
			path = "/" + path
			continue
		} else if path == "/.." {
			out.Pop()
			path = "/"
			continue
		}

		if path == ".." || path == "." {
			break
		}

		// Move the first segment, with its leading "/", to the output.
		idx := strings.IndexByte(path[1:], '/') + 1
		if idx == 0 {
			idx = len(path)
		}
		out.Push(path[:idx])
		path = path[idx:]
	}

	return strings.Join(out.Data(), "")
}
