package models

import (
	"fmt"
	"strings"
	"time"
)

// Gender is stored as a lowercase word
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender accepts male/female in any case
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// Member is a person record within a tree. MotherID and FatherID are a
// projection of the tree's Parent/Child relationships and are only written
// by the relationship synchronizer.
type Member struct {
	ID          int64      `json:"id"`
	TreeID      int64      `json:"treeId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Gender      Gender     `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	DateOfDeath *time.Time `json:"dateOfDeath,omitempty"`
	MotherID    *int64     `json:"motherId"`
	FatherID    *int64     `json:"fatherId"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsMale reports whether the member fills the father slot of their children
func (m *Member) IsMale() bool {
	return m.Gender == GenderMale
}

// FullName returns "First Last"
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}
