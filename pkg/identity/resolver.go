// Package identity maps raw feed identifiers onto canonical user identities.
// The preferred key is a lowercased email; a platform login that has no
// mapping stays a valid identity of its own class rather than being dropped,
// so unmapped GitHub users still appear in reports under their login.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sumatoshi-tech/adoptrack/internal/observability"
)

// Error definitions for mapping loading.
var (
	// ErrBadMapping indicates a login mapping file that is not a flat
	// string-to-string JSON object.
	ErrBadMapping = errors.New("identity: invalid login mapping file")
)

// mappingSchema constrains the login→email mapping file to a flat object of
// string values. Validating up front turns a malformed mapping into one
// clear error instead of a report full of unmapped users.
const mappingSchema = `{
	"type": "object",
	"additionalProperties": {"type": "string"}
}`

// Class describes how an identity was resolved.
type Class string

// Resolution classes. ClassLogin is a valid outcome, not an error, but it is
// tallied as a data-quality warning so operators notice mapping gaps.
const (
	ClassMappedEmail Class = "mapped_email"
	ClassDirectEmail Class = "direct_email"
	ClassLogin       Class = "login"
)

// Resolver canonicalizes identity hints using an optional login→email
// mapping and an optional roster allow-list.
type Resolver struct {
	mapping map[string]string
	roster  *Roster
	strict  bool
	stats   *observability.RunStats
}

// NewResolver builds a resolver. mapping and roster may be nil. When strict
// is true and a roster is present, identities absent from the roster are
// excluded from the merged population entirely.
func NewResolver(mapping map[string]string, roster *Roster, strict bool, stats *observability.RunStats) *Resolver {
	return &Resolver{
		mapping: mapping,
		roster:  roster,
		strict:  strict,
		stats:   stats,
	}
}

// Resolve canonicalizes one identity hint. Precedence:
//
//  1. a mapping entry for the hint resolves to the mapped email
//  2. a hint that already looks like an email is lowercased and trimmed
//  3. anything else is kept verbatim as a login-class identity
//
// ok is false only when the strict roster policy excludes the identity.
func (r *Resolver) Resolve(hint string) (canonical string, class Class, ok bool) {
	trimmed := strings.TrimSpace(hint)

	switch {
	case r.mapping[trimmed] != "":
		canonical = strings.ToLower(strings.TrimSpace(r.mapping[trimmed]))
		class = ClassMappedEmail
	case strings.Contains(trimmed, "@"):
		canonical = strings.ToLower(trimmed)
		class = ClassDirectEmail
	default:
		canonical = trimmed
		class = ClassLogin
		r.stats.FallbackIdentities++
	}

	if r.strict && r.roster != nil && !r.roster.Contains(canonical) {
		r.stats.RosterExcluded++

		return "", class, false
	}

	return canonical, class, true
}

// LoadMapping parses and validates a login→email mapping payload.
func LoadMapping(data []byte) (map[string]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(mappingSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMapping, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, issue := range result.Errors() {
			details = append(details, issue.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrBadMapping, strings.Join(details, "; "))
	}

	var mapping map[string]string

	err = json.Unmarshal(data, &mapping)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMapping, err)
	}

	return mapping, nil
}
