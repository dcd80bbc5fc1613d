// Package uri implements the subset of Uniform Resource Identifier (URI)
// used as HTTP request targets, and resolution of references found in
// redirect Location fields.
//
// Percent-encoded octets are validated but never decoded,
// since the target is retransmitted as-is.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
//
// - https://datatracker.ietf.org/doc/html/rfc9110#section-4.2
package uri
