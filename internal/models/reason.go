package models

// Reason is the travel-exemption justification ticked on the form
type Reason string

const (
	ReasonTravail     Reason = "travail"
	ReasonSante       Reason = "sante"
	ReasonFamille     Reason = "famille"
	ReasonHandicap    Reason = "handicap"
	ReasonConvocation Reason = "convocation"
	ReasonMissions    Reason = "missions"
	ReasonTransits    Reason = "transits"
	ReasonAnimaux     Reason = "animaux"
)

// Reasons lists every reason in the order the form presents them
var Reasons = []Reason{
	ReasonTravail,
	ReasonSante,
	ReasonFamille,
	ReasonHandicap,
	ReasonConvocation,
	ReasonMissions,
	ReasonTransits,
	ReasonAnimaux,
}

// Valid reports whether r belongs to the closed set of reasons
func (r Reason) Valid() bool {
	for _, known := range Reasons {
		if r == known {
			return true
		}
	}
	return false
}

// ParseReason maps a submitted tag to a Reason. Empty input means no
// reason was selected.
func ParseReason(s string) (Reason, bool) {
	r := Reason(s)
	if s == "" || !r.Valid() {
		return "", false
	}
	return r, true
}
