package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/attestation/backend/internal/models"
)

const payloadSeparator = ";\n "

// EncodePayload builds the text embedded in the QR code. Values are copied
// verbatim, a ';' or newline inside a field is not escaped. The creation
// stamp is formatted in createdAt's location.
func EncodePayload(p models.Profile, reason models.Reason, createdAt time.Time) string {
	lines := []string{
		fmt.Sprintf("Cree le: %s a %s", FrenchDate(createdAt), FrenchHour(createdAt)),
		fmt.Sprintf("Nom: %s", p.LastName),
		fmt.Sprintf("Prenom: %s", p.FirstName),
		fmt.Sprintf("Naissance: %s a %s", p.Birthday, p.LieuNaissance),
		fmt.Sprintf("Adresse: %s %s %s", p.Address, p.ZipCode, p.Town),
		fmt.Sprintf("Sortie: %s a %s", p.DateSortie, p.HeureSortie),
		fmt.Sprintf("Motifs: %s", reason),
	}
	return strings.Join(lines, payloadSeparator)
}

// FrenchDate formats t as DD/MM/YYYY
func FrenchDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FrenchHour formats t as a 24-hour clock with an 'h' separator, e.g. 14h30
func FrenchHour(t time.Time) string {
	return t.Format("15h04")
}

// CertificateFilename is the download name for a certificate created at t
func CertificateFilename(t time.Time) string {
	return fmt.Sprintf("attestation-%s_%s.pdf", t.Format("2006-01-02"), t.Format("15-04"))
}
