package onboarding

import (
	"errors"
	"strings"
)

// FormData holds raw answers. Nothing here is validated until completion.
type FormData struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	HeightFeet   string `json:"heightFeet"`
	HeightInches string `json:"heightInches"`
	WeightPounds string `json:"weightPounds"`
	BirthMonth   string `json:"birthMonth"`
	BirthDay     string `json:"birthDay"`
	BirthYear    string `json:"birthYear"`
}

type Field string

const (
	FieldEmail        Field = "email"
	FieldPassword     Field = "password"
	FieldName         Field = "name"
	FieldHeightFeet   Field = "heightFeet"
	FieldHeightInches Field = "heightInches"
	FieldWeightPounds Field = "weightPounds"
	FieldBirthMonth   Field = "birthMonth"
	FieldBirthDay     Field = "birthDay"
	FieldBirthYear    Field = "birthYear"
)

var ErrUnknownField = errors.New("unknown onboarding field")

// ParseField accepts the JSON field names of FormData.
func ParseField(raw string) (Field, error) {
	f := Field(strings.TrimSpace(raw))
	if _, ok := (&FormData{}).slot(f); !ok {
		return "", ErrUnknownField
	}
	return f, nil
}

// Set writes value into the named field.
func (d *FormData) Set(f Field, value string) error {
	p, ok := d.slot(f)
	if !ok {
		return ErrUnknownField
	}
	*p = value
	return nil
}

func (d *FormData) Get(f Field) string {
	if p, ok := d.slot(f); ok {
		return *p
	}
	return ""
}

func (d *FormData) slot(f Field) (*string, bool) {
	switch f {
	case FieldEmail:
		return &d.Email, true
	case FieldPassword:
		return &d.Password, true
	case FieldName:
		return &d.Name, true
	case FieldHeightFeet:
		return &d.HeightFeet, true
	case FieldHeightInches:
		return &d.HeightInches, true
	case FieldWeightPounds:
		return &d.WeightPounds, true
	case FieldBirthMonth:
		return &d.BirthMonth, true
	case FieldBirthDay:
		return &d.BirthDay, true
	case FieldBirthYear:
		return &d.BirthYear, true
	}
	return nil, false
}

// Redacted hides the password so the form can be echoed back to clients.
func (d FormData) Redacted() FormData {
	if d.Password != "" {
		d.Password = strings.Repeat("*", len([]rune(d.Password)))
	}
	return d
}
