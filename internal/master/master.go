package master

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrNotFound         = errors.New("master configuration not found")
	ErrUnsupportedField = errors.New("unsupported field for this operation")
	ErrEmptyValue       = errors.New("value must not be empty")
	ErrNegative         = errors.New("value must not be negative")
	ErrWouldEmpty       = errors.New("cannot remove the last remaining value")
)

// Field names a member of the master configuration document.
type Field string

const (
	FieldCategories  Field = "categories"
	FieldMembers     Field = "members"
	FieldMinTransfer Field = "minTransfer"
)

// ParseField accepts the canonical names plus the legacy "familyMembers"
// and snake_case spellings.
func ParseField(s string) (Field, error) {
	switch s {
	case "categories":
		return FieldCategories, nil
	case "members", "familyMembers", "family_members":
		return FieldMembers, nil
	case "minTransfer", "min_transfer":
		return FieldMinTransfer, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedField, s)
}

// IsSet reports whether the field holds a set of strings.
func (f Field) IsSet() bool {
	return f == FieldCategories || f == FieldMembers
}

// Set is an insertion-ordered collection of distinct, non-empty strings.
type Set struct {
	values []string
}

func NewSet(values ...string) Set {
	var s Set
	for _, v := range values {
		s.Add(v)
	}

	return s
}

// Add appends v unless it is empty or already present.
func (s *Set) Add(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || s.Contains(v) {
		return false
	}

	s.values = append(s.values, v)

	return true
}

// Remove deletes v; removing an absent value is a no-op.
func (s *Set) Remove(v string) bool {
	i := slices.Index(s.values, strings.TrimSpace(v))
	if i < 0 {
		return false
	}

	s.values = slices.Delete(slices.Clone(s.values), i, i+1)

	return true
}

func (s Set) Contains(v string) bool {
	return slices.Contains(s.values, v)
}

func (s Set) Len() int {
	return len(s.values)
}

// Values returns a copy of the elements in insertion order.
func (s Set) Values() []string {
	return slices.Clone(s.values)
}

// First returns the earliest inserted value, or "" for an empty set.
func (s Set) First() string {
	if len(s.values) == 0 {
		return ""
	}

	return s.values[0]
}

func (s Set) MarshalJSON() ([]byte, error) {
	if s.values == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(s.values)
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}

	*s = NewSet(values...)

	return nil
}

// Config is the singleton master configuration document.
type Config struct {
	Categories  Set   `json:"categories"`
	Members     Set   `json:"members"`
	MinTransfer int64 `json:"minTransfer"`
}

// Clone returns a deep copy safe to mutate.
func (c Config) Clone() Config {
	return Config{
		Categories:  NewSet(c.Categories.values...),
		Members:     NewSet(c.Members.values...),
		MinTransfer: c.MinTransfer,
	}
}

func (c Config) set(field Field) Set {
	if field == FieldCategories {
		return c.Categories
	}

	return c.Members
}
