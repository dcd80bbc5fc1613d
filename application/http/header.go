package http

import (
	"strings"

	"minhttp/application/util/rule"
)

// Headers is an ordered multimap of fields with case-insensitive names.
// Names keep the order of their first insertion.
// Values of the same name are combined with ", " when read or serialized,
// except for Set-Cookie which is kept as separate field lines.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.3
//
// The zero value is ready to use. Read methods may be called concurrently.
type Headers struct {
	entries []headerEntry
	index   map[string]int // lower-cased name -> index of entries
}

type headerEntry struct {
	name   string
	values []string
}

const FieldSetCookie = "Set-Cookie"

func NewHeaders() Headers { return Headers{} }

// HeadersFrom creates headers from raw fields, merging lines with the same name.
func HeadersFrom(fields []Field) Headers {
	var h Headers
	for _, f := range fields {
		h.Add(string(f.Name), string(f.Value))
	}
	return h
}

// Add appends value to the field.
func (h *Headers) Add(name, value string) {
	if idx, ok := h.lookup(name); ok {
		h.entries[idx].values = append(h.entries[idx].values, value)
		return
	}
	h.insert(name, []string{value})
}

// Set replaces all values of the field, keeping its position.
func (h *Headers) Set(name, value string) {
	if idx, ok := h.lookup(name); ok {
		h.entries[idx].values = []string{value}
		return
	}
	h.insert(name, []string{value})
}

// Get returns the combined value of the field.
// For Set-Cookie, only the first value is returned. Use [Headers.Values] instead.
func (h Headers) Get(name string) (value string, ok bool) {
	idx, ok := h.lookup(name)
	if !ok {
		return "", false
	}

	values := h.entries[idx].values
	if isMultiLine(name) {
		return values[0], true
	}
	return strings.Join(values, ", "), true
}

// Values returns a copy of every value added to the field.
func (h Headers) Values(name string) []string {
	idx, ok := h.lookup(name)
	if !ok {
		return nil
	}

	values := make([]string, len(h.entries[idx].values))
	copy(values, h.entries[idx].values)
	return values
}

func (h Headers) Has(name string) bool {
	_, ok := h.lookup(name)
	return ok
}

func (h *Headers) Del(name string) {
	idx, ok := h.lookup(name)
	if !ok {
		return
	}

	h.entries = append(h.entries[:idx], h.entries[idx+1:]...)
	h.reindex()
}

// Len returns number of distinct field names.
func (h Headers) Len() int { return len(h.entries) }

// Names returns field names in insertion order.
func (h Headers) Names() []string {
	names := make([]string, len(h.entries))
	for i, e := range h.entries {
		names[i] = e.name
	}
	return names
}

// Fields returns field lines in insertion order, as they should be serialized.
func (h Headers) Fields() []Field {
	fields := make([]Field, 0, len(h.entries))
	for _, e := range h.entries {
		if isMultiLine(e.name) {
			for _, v := range e.values {
				fields = append(fields, Field{Name: []byte(e.name), Value: []byte(v)})
			}
			continue
		}

		value := strings.Join(e.values, ", ")
		fields = append(fields, Field{Name: []byte(e.name), Value: []byte(value)})
	}
	return fields
}

func (h Headers) Clone() Headers {
	clone := Headers{entries: make([]headerEntry, len(h.entries))}
	for i, e := range h.entries {
		values := make([]string, len(e.values))
		copy(values, e.values)
		clone.entries[i] = headerEntry{name: e.name, values: values}
	}
	clone.reindex()
	return clone
}

// Equal reports whether both have the same fields in the same order.
func (h Headers) Equal(other Headers) bool {
	if len(h.entries) != len(other.entries) {
		return false
	}
	for i, e := range h.entries {
		o := other.entries[i]
		if e.name != o.name || len(e.values) != len(o.values) {
			return false
		}
		for j := range e.values {
			if e.values[j] != o.values[j] {
				return false
			}
		}
	}
	return true
}

// lookup only reads, so it is safe for concurrent readers. Mutators keep
// index in sync with entries.
func (h Headers) lookup(name string) (int, bool) {
	idx, ok := h.index[strings.ToLower(name)]
	return idx, ok
}

func (h *Headers) insert(name string, values []string) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	h.index[strings.ToLower(name)] = len(h.entries)
	h.entries = append(h.entries, headerEntry{name: canonical(name), values: values})
}

func (h *Headers) reindex() {
	h.index = make(map[string]int, len(h.entries))
	for i, e := range h.entries {
		h.index[strings.ToLower(e.name)] = i
	}
}

func isMultiLine(name string) bool {
	return strings.EqualFold(name, FieldSetCookie)
}

func canonical(s string) string {
	if rule.IsValidToken(s) {
		s = toCanonicalFieldName(s)
	}
	return s
}

// This only works for valid token.
func toCanonicalFieldName(s string) string {
	const capitalDiff = 'a' - 'A'
	b := []byte(s)
	upper := true
	for i, c := range b {
		if upper && 'a' <= c && c <= 'z' {
			c -= capitalDiff
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += capitalDiff
		}
		b[i] = c
		upper = c == '-'
	}
	return string(b)
}
