// Package uri parses and builds the two wire forms used to reference a
// regulation's output: the canonical "regelrecht://" scheme and the
// file-path form mirroring on-disk repository layout.
package uri

import (
	"fmt"
	"strings"
)

// Scheme is the canonical URI scheme for regulation references.
const Scheme = "regelrecht://"

// Reference is a parsed regulation reference: which law, which output, and
// an optional field selecting one member of a compound output.
type Reference struct {
	LawID  string
	Output string
	Field  string
}

// Build constructs the canonical "regelrecht://{law_id}/{output}[#{field}]"
// form. This is the only sanctioned way to produce a reference
// programmatically; callers must not hand-assemble the string.
func Build(lawID, output, field string) string {
	s := Scheme + lawID + "/" + output
	if field != "" {
		s += "#" + field
	}
	return s
}

// Parse accepts either wire form and returns the reference it names.
//
//   - "regelrecht://{law_id}/{output}[#{field}]" — canonical form.
//   - "regulation/{jurisdiction}/{layer}/{law_id}[#{field}]" — file-path
//     form used where references are written relative to repository
//     layout; law_id is the last path segment, output defaults to the
//     fragment when present, else to law_id.
func Parse(s string) (Reference, error) {
	if strings.HasPrefix(s, Scheme) {
		return parseCanonical(s)
	}
	if strings.HasPrefix(s, "regulation/") {
		return parseFilePath(s)
	}
	return Reference{}, fmt.Errorf("unrecognized reference form: %q", s)
}

func parseCanonical(s string) (Reference, error) {
	rest := strings.TrimPrefix(s, Scheme)
	field := ""
	if idx := strings.Index(rest, "#"); idx >= 0 {
		field = rest[idx+1:]
		rest = rest[:idx]
	}
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return Reference{}, fmt.Errorf("malformed regelrecht URI %q: missing '/' between law id and output", s)
	}
	lawID := rest[:idx]
	output := rest[idx+1:]
	if lawID == "" || output == "" {
		return Reference{}, fmt.Errorf("malformed regelrecht URI %q: law id and output must be non-empty", s)
	}
	return Reference{LawID: lawID, Output: output, Field: field}, nil
}

func parseFilePath(s string) (Reference, error) {
	rest := s
	field := ""
	if idx := strings.Index(rest, "#"); idx >= 0 {
		field = rest[idx+1:]
		rest = rest[:idx]
	}
	segments := strings.Split(rest, "/")
	if len(segments) < 2 {
		return Reference{}, fmt.Errorf("malformed file-path reference %q", s)
	}
	lawID := segments[len(segments)-1]
	if lawID == "" {
		return Reference{}, fmt.Errorf("malformed file-path reference %q: empty law id segment", s)
	}
	output := field
	if output == "" {
		output = lawID
	}
	return Reference{LawID: lawID, Output: output, Field: field}, nil
}

// String re-emits the canonical form, so that Parse followed by String
// round-trips a canonical reference byte-for-byte.
func (r Reference) String() string {
	return Build(r.LawID, r.Output, r.Field)
}
