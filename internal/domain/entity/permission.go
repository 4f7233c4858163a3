package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownPermission is returned when a token is outside the known set.
var ErrUnknownPermission = errors.New("unknown permission")

// Permission is a capability token such as "user:read".
// Only the constants below are valid; use ParsePermission for untrusted input.
type Permission string

const (
	PermUserRead   Permission = "user:read"
	PermUserCreate Permission = "user:create"
	PermUserUpdate Permission = "user:update"
	PermUserDelete Permission = "user:delete"

	PermRoleRead   Permission = "role:read"
	PermRoleCreate Permission = "role:create"
	PermRoleUpdate Permission = "role:update"
	PermRoleDelete Permission = "role:delete"

	// PermSystemAdmin is the only permission that grants dashboard access.
	PermSystemAdmin Permission = "system:admin"
)

var allPermissions = []Permission{
	PermUserRead, PermUserCreate, PermUserUpdate, PermUserDelete,
	PermRoleRead, PermRoleCreate, PermRoleUpdate, PermRoleDelete,
	PermSystemAdmin,
}

// AllPermissions returns every known permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

func (p Permission) String() string { return string(p) }

// Valid reports whether p belongs to the known set.
func (p Permission) Valid() bool {
	for _, known := range allPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePermission converts a raw token into a Permission.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.TrimSpace(s))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
	}
	return p, nil
}

// ParsePermissions parses every token and fails on the first unknown one.
func ParsePermissions(raw []string) (PermissionSet, error) {
	set := NewPermissionSet()
	for _, s := range raw {
		p, err := ParsePermission(s)
		if err != nil {
			return nil, err
		}
		set.Add(p)
	}
	return set, nil
}

// PermissionSet is an unordered set of permissions. The zero value is not usable for Add;
// use NewPermissionSet.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions, dropping duplicates.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s PermissionSet) Add(p Permission) { s[p] = struct{}{} }

// Has is safe on a nil set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) Len() int { return len(s) }

// Union adds every member of other into s.
func (s PermissionSet) Union(other PermissionSet) {
	for p := range other {
		s[p] = struct{}{}
	}
}

// Clone returns an independent copy.
func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	out.Union(s)
	return out
}

// Equal reports whether both sets hold the same members.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for p := range s {
		if !other.Has(p) {
			return false
		}
	}
	return true
}

// Sorted returns the members in lexical order.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings is the storage representation (text[]).
func (s PermissionSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, p := range sorted {
		out[i] = string(p)
	}
	return out
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *PermissionSet) UnmarshalJSON(b []byte) error {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	set, err := ParsePermissions(raw)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
