// Package profile manages the locally persisted user health profile that
// accompanies every analysis request.
package profile

import (
	"errors"
	"strconv"
	"strings"
)

// Validation errors. Each carries the form field to refocus via Field.
var (
	ErrAgeRequired    = errors.New("age is required")
	ErrGenderRequired = errors.New("gender is required")
)

// Field returns the form field a validation error refers to, or "" for
// non-validation errors.
func Field(err error) string {
	switch {
	case errors.Is(err, ErrAgeRequired):
		return "age"
	case errors.Is(err, ErrGenderRequired):
		return "gender"
	default:
		return ""
	}
}

// Gender values. An empty string means unset.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Profile is the persisted user health record. It is written wholesale on
// every save; fields are never merged into an existing record.
type Profile struct {
	Age       int     `json:"age"`
	Gender    string  `json:"gender"`
	Weight    float64 `json:"weight"`
	Pregnant  bool    `json:"pregnant"`
	Allergies string  `json:"allergies"`
}

// Complete reports whether the profile is usable: a positive age and a
// selected gender. Incomplete profiles route the user back to profile entry.
func (p *Profile) Complete() bool {
	return p != nil && p.Age > 0 && p.Gender != ""
}

// Input holds raw form values as entered by the user.
type Input struct {
	Age       string `json:"age"`
	Gender    string `json:"gender"`
	Weight    string `json:"weight"`
	Pregnant  bool   `json:"pregnant"`
	Allergies string `json:"allergies"`
}

// Normalize validates the input and produces the record to persist. Weight
// defaults to 0 when unparsable; allergies are trimmed. Pregnancy is only
// meaningful for female profiles and is cleared otherwise.
func (in Input) Normalize() (*Profile, error) {
	age, err := strconv.Atoi(strings.TrimSpace(in.Age))
	if strings.TrimSpace(in.Age) == "" || err != nil || age <= 0 {
		return nil, ErrAgeRequired
	}
	if in.Gender == "" {
		return nil, ErrGenderRequired
	}

	weight, err := strconv.ParseFloat(strings.TrimSpace(in.Weight), 64)
	if err != nil || weight < 0 {
		weight = 0
	}

	pregnant := in.Pregnant
	if in.Gender != GenderFemale {
		pregnant = false
	}

	return &Profile{
		Age:       age,
		Gender:    in.Gender,
		Weight:    weight,
		Pregnant:  pregnant,
		Allergies: strings.TrimSpace(in.Allergies),
	}, nil
}
