package models

import "strings"

// Profile is the flat record stamped on the certificate. DateSortie is
// already in DD/MM/YYYY form.
type Profile struct {
	LastName      string `json:"lastname"`
	FirstName     string `json:"firstname"`
	Birthday      string `json:"birthday"`
	LieuNaissance string `json:"lieunaissance"`
	Address       string `json:"address"`
	ZipCode       string `json:"zipcode"`
	Town          string `json:"town"`
	DateSortie    string `json:"datesortie"`
	HeureSortie   string `json:"heuresortie"`
}

// FormInput is the raw form snapshot submitted by a client. DateSortie is
// the ISO YYYY-MM-DD value of the date input.
type FormInput struct {
	LastName      string `json:"lastname"`
	FirstName     string `json:"firstname"`
	Birthday      string `json:"birthday"`
	LieuNaissance string `json:"lieunaissance"`
	Address       string `json:"address"`
	ZipCode       string `json:"zipcode"`
	Town          string `json:"town"`
	DateSortie    string `json:"datesortie"`
	HeureSortie   string `json:"heuresortie"`
	Reason        string `json:"reason"`
	Persist       bool   `json:"persist"`
}

// Fields returns the form values keyed by field name
func (f FormInput) Fields() map[string]string {
	return map[string]string{
		"lastname":      f.LastName,
		"firstname":     f.FirstName,
		"birthday":      f.Birthday,
		"lieunaissance": f.LieuNaissance,
		"address":       f.Address,
		"zipcode":       f.ZipCode,
		"town":          f.Town,
		"datesortie":    f.DateSortie,
		"heuresortie":   f.HeureSortie,
	}
}

// Profile snapshots the form into a Profile. The departure date is the only
// value that is transformed.
func (f FormInput) Profile() Profile {
	return Profile{
		LastName:      f.LastName,
		FirstName:     f.FirstName,
		Birthday:      f.Birthday,
		LieuNaissance: f.LieuNaissance,
		Address:       f.Address,
		ZipCode:       f.ZipCode,
		Town:          f.Town,
		DateSortie:    FormatDepartureDate(f.DateSortie),
		HeureSortie:   f.HeureSortie,
	}
}

// FormatDepartureDate turns YYYY-MM-DD into DD/MM/YYYY. Values that do not
// split into three parts are returned untouched.
func FormatDepartureDate(iso string) string {
	parts := strings.Split(iso, "-")
	if len(parts) < 3 {
		return iso
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

// ISODepartureDate is the inverse of FormatDepartureDate, used to prefill
// the date input from a stored profile.
func ISODepartureDate(display string) string {
	parts := strings.Split(display, "/")
	if len(parts) < 3 {
		return display
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

// StoredProfile is the snapshot kept in encrypted storage between visits
type StoredProfile struct {
	Profile Profile `json:"profile"`
	Reason  Reason  `json:"reason,omitempty"`
}
