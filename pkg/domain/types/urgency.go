package types

import "fmt"

// Urgency is the scheduling bucket derived from the reaction emoji
type Urgency string

const (
	UrgencyToday    Urgency = "today"
	UrgencyTomorrow Urgency = "tomorrow"
	UrgencyLater    Urgency = "later"
)

// AllUrgencies returns all urgencies in lookup order
func AllUrgencies() []Urgency {
	return []Urgency{
		UrgencyToday,
		UrgencyTomorrow,
		UrgencyLater,
	}
}

// IsValid checks if the urgency is valid
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyToday,
		UrgencyTomorrow,
		UrgencyLater:
		return true
	default:
		return false
	}
}

// Normalize treats an empty or unknown urgency as UrgencyLater
func (u Urgency) Normalize() Urgency {
	if !u.IsValid() {
		return UrgencyLater
	}
	return u
}

func (u Urgency) String() string {
	return string(u)
}

// ParseUrgency parses a string into an Urgency
func ParseUrgency(s string) (Urgency, error) {
	u := Urgency(s)
	if !u.IsValid() {
		return "", fmt.Errorf("invalid urgency: %s", s)
	}
	return u, nil
}
