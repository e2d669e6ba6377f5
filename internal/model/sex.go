package model

// Sex is the registered sex of a person.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// IsValid reports whether s is a known code.
func (s Sex) IsValid() bool {
	return s == SexMale || s == SexFemale
}

// Description returns the display label, "" for unknown codes.
func (s Sex) Description() string {
	switch s {
	case SexMale:
		return "Male"
	case SexFemale:
		return "Female"
	default:
		return ""
	}
}
