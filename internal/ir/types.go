package ir

import "fmt"

// ID identifies a resolved term within one Role.
// Zero is reserved and never names a real term.
type ID uint64

// Wildcard is the Pattern slot value that matches any term.
const Wildcard ID = 0

// Role is the position a term occupies in a triple.
// Dictionaries scope ids per role: subject 3 and object 3 are unrelated terms.
type Role int

const (
	// RoleSubject is the first triple component.
	RoleSubject Role = iota + 1
	// RolePredicate is the second triple component.
	RolePredicate
	// RoleObject is the third triple component.
	RoleObject
)

// Roles lists every role in triple order.
var Roles = []Role{RoleSubject, RolePredicate, RoleObject}

// String returns the lowercase role name used in logs, errors and the store schema.
func (r Role) String() string {
	switch r {
	case RoleSubject:
		return "subject"
	case RolePredicate:
		return "predicate"
	case RoleObject:
		return "object"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Valid reports whether r is one of the three triple roles.
func (r Role) Valid() bool {
	return r >= RoleSubject && r <= RoleObject
}

// Triple is a resolved subject/predicate/object record.
type Triple struct {
	Subject   ID `json:"subject"`
	Predicate ID `json:"predicate"`
	Object    ID `json:"object"`
}

// String formats the triple as "(s, p, o)".
func (t Triple) String() string {
	return fmt.Sprintf("(%d, %d, %d)", t.Subject, t.Predicate, t.Object)
}

// IsZero reports whether t is the zero Triple. No stored triple is zero
// because no real term id is zero.
func (t Triple) IsZero() bool {
	return t.Subject == 0 && t.Predicate == 0 && t.Object == 0
}

// Less orders triples subject-major, the canonical cursor order.
func (t Triple) Less(o Triple) bool {
	if t.Subject != o.Subject {
		return t.Subject < o.Subject
	}
	if t.Predicate != o.Predicate {
		return t.Predicate < o.Predicate
	}
	return t.Object < o.Object
}

// Pattern is a triple template. A Wildcard slot matches any term.
type Pattern struct {
	Subject   ID `json:"subject"`
	Predicate ID `json:"predicate"`
	Object    ID `json:"object"`
}

// NewPattern builds a Pattern from its three slots.
func NewPattern(s, p, o ID) Pattern {
	return Pattern{Subject: s, Predicate: p, Object: o}
}

// IsEmpty reports whether every slot is a wildcard. An empty Pattern
// matches every triple; it is not a failed resolution.
func (p Pattern) IsEmpty() bool {
	return p.Subject == Wildcard && p.Predicate == Wildcard && p.Object == Wildcard
}

// Match reports whether every non-wildcard slot equals the triple component.
func (p Pattern) Match(t Triple) bool {
	if p.Subject != Wildcard && p.Subject != t.Subject {
		return false
	}
	if p.Predicate != Wildcard && p.Predicate != t.Predicate {
		return false
	}
	if p.Object != Wildcard && p.Object != t.Object {
		return false
	}
	return true
}

// Slot returns the pattern slot for role r.
func (p Pattern) Slot(r Role) ID {
	switch r {
	case RoleSubject:
		return p.Subject
	case RolePredicate:
		return p.Predicate
	case RoleObject:
		return p.Object
	default:
		return Wildcard
	}
}

// String formats the pattern with "?" for wildcard slots.
func (p Pattern) String() string {
	slot := func(id ID) string {
		if id == Wildcard {
			return "?"
		}
		return fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("(%s, %s, %s)", slot(p.Subject), slot(p.Predicate), slot(p.Object))
}

// TripleString is the textual form of a pattern. An empty component is a wildcard.
type TripleString struct {
	Subject   string `json:"subject" yaml:"subject"`
	Predicate string `json:"predicate" yaml:"predicate"`
	Object    string `json:"object" yaml:"object"`
}

// Term returns the component for role r.
func (ts TripleString) Term(r Role) string {
	switch r {
	case RoleSubject:
		return ts.Subject
	case RolePredicate:
		return ts.Predicate
	case RoleObject:
		return ts.Object
	default:
		return ""
	}
}

// IsEmpty reports whether every component is empty.
func (ts TripleString) IsEmpty() bool {
	return ts.Subject == "" && ts.Predicate == "" && ts.Object == ""
}

// Row is one record emitted by a join. Predicate is set only by two-hop joins.
type Row struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate,omitempty"`
	Object    string `json:"object"`
}

// Fields returns the non-empty row columns in output order.
func (r Row) Fields() []string {
	if r.Predicate == "" {
		return []string{r.Subject, r.Object}
	}
	return []string{r.Subject, r.Predicate, r.Object}
}
