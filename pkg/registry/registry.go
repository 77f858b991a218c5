// Package registry holds processor-owned named entities (layers, tables)
// and the ID collision policy every inserting command applies.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ormasoftchile/geoprocessor/pkg/status"
)

// Policy decides what happens when an ID already exists in a registry.
type Policy string

const (
	Replace        Policy = "Replace"
	ReplaceAndWarn Policy = "ReplaceAndWarn"
	Warn           Policy = "Warn"
	Fail           Policy = "Fail"
)

// Policies lists the valid policy names, in the order used for parameter choices.
var Policies = []string{string(Replace), string(ReplaceAndWarn), string(Warn), string(Fail)}

// ParsePolicy parses a policy name case-insensitively. An empty string yields def.
func ParsePolicy(s string, def Policy) (Policy, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	for _, p := range Policies {
		if strings.EqualFold(strings.TrimSpace(s), p) {
			return Policy(p), nil
		}
	}
	return "", fmt.Errorf("invalid collision policy %q (expected one of %s)", s, strings.Join(Policies, ", "))
}

// Decision is the result of applying a Policy to an insert.
type Decision struct {
	Insert bool
	// Record is non-nil when the decision must be logged.
	Record *status.Record
}

// Decide applies policy to an insert of id into a registry holding entities of kind
// ("GeoLayer", "Table"). exists reports whether id is already present.
func Decide(policy Policy, kind, id string, exists bool) Decision {
	if !exists {
		return Decision{Insert: true}
	}
	switch policy {
	case Replace:
		return Decision{Insert: true}
	case ReplaceAndWarn:
		return Decision{Insert: true, Record: &status.Record{
			Severity:       status.Warning,
			Problem:        fmt.Sprintf("%s ID %q already exists and was replaced.", kind, id),
			Recommendation: "Use a unique ID or set the collision policy to Replace to silence this warning.",
		}}
	case Warn:
		return Decision{Insert: false, Record: &status.Record{
			Severity:       status.Warning,
			Problem:        fmt.Sprintf("%s ID %q already exists; the new %s was not added.", kind, id, kind),
			Recommendation: "Use a unique ID or a Replace policy.",
		}}
	default:
		return Decision{Insert: false, Record: &status.Record{
			Severity:       status.Failure,
			Problem:        fmt.Sprintf("%s ID %q already exists.", kind, id),
			Recommendation: "Use a unique ID or a Replace policy.",
		}}
	}
}

// Registry maps string IDs to entity handles. Not safe for concurrent use;
// a processor runs its commands on one goroutine.
type Registry[T any] struct {
	kind  string
	items map[string]T
}

// New creates an empty registry for entities of kind.
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, items: make(map[string]T)}
}

// Kind returns the entity kind name used in log messages.
func (r *Registry[T]) Kind() string { return r.kind }

// Get returns the entity with id.
func (r *Registry[T]) Get(id string) (T, bool) {
	v, ok := r.items[id]
	return v, ok
}

// Has reports whether id exists.
func (r *Registry[T]) Has(id string) bool {
	_, ok := r.items[id]
	return ok
}

// Set stores v under id unconditionally.
func (r *Registry[T]) Set(id string, v T) {
	r.items[id] = v
}

// Insert stores v under id according to policy. Any record the policy produces is
// appended to the Run phase of st. Returns true if v was stored.
func (r *Registry[T]) Insert(st *status.Status, policy Policy, id string, v T) bool {
	d := Decide(policy, r.kind, id, r.Has(id))
	if d.Record != nil && st != nil {
		st.AddRecord(status.Run, *d.Record)
	}
	if d.Insert {
		r.items[id] = v
	}
	return d.Insert
}

// Remove deletes id and reports whether it existed.
func (r *Registry[T]) Remove(id string) bool {
	_, ok := r.items[id]
	delete(r.items, id)
	return ok
}

// IDs returns the sorted IDs.
func (r *Registry[T]) IDs() []string {
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of entities.
func (r *Registry[T]) Len() int { return len(r.items) }
