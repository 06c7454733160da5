package services

import (
	"testing"
	"time"

	"github.com/attestation/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paris = time.FixedZone("CET", 3600)

func sampleProfile() models.Profile {
	return models.Profile{
		FirstName:     "Jean",
		LastName:      "Dupont",
		Birthday:      "01/01/1980",
		LieuNaissance: "Paris",
		Address:       "1 Rue A",
		ZipCode:       "75001",
		Town:          "Paris",
		DateSortie:    "05/03/2021",
		HeureSortie:   "14:30",
	}
}

func TestEncodePayload(t *testing.T) {
	createdAt := time.Date(2021, 3, 5, 14, 7, 0, 0, paris)

	got := EncodePayload(sampleProfile(), models.ReasonTravail, createdAt)

	expected := "Cree le: 05/03/2021 a 14h07;\n" +
		" Nom: Dupont;\n" +
		" Prenom: Jean;\n" +
		" Naissance: 01/01/1980 a Paris;\n" +
		" Adresse: 1 Rue A 75001 Paris;\n" +
		" Sortie: 05/03/2021 a 14:30;\n" +
		" Motifs: travail"
	assert.Equal(t, expected, got)
}

func TestEncodePayloadIsPure(t *testing.T) {
	createdAt := time.Date(2021, 3, 5, 9, 0, 0, 0, paris)
	first := EncodePayload(sampleProfile(), models.ReasonSante, createdAt)
	second := EncodePayload(sampleProfile(), models.ReasonSante, createdAt)
	assert.Equal(t, first, second)

	later := EncodePayload(sampleProfile(), models.ReasonSante, createdAt.Add(time.Minute))
	assert.NotEqual(t, first, later)
}

func TestEncodePayloadUsesInstantLocation(t *testing.T) {
	utc := time.Date(2021, 3, 5, 23, 30, 0, 0, time.UTC)
	got := EncodePayload(sampleProfile(), models.ReasonTravail, utc.In(paris))
	assert.Contains(t, got, "Cree le: 06/03/2021 a 00h30;")
}

func TestEncodePayloadDoesNotEscape(t *testing.T) {
	p := sampleProfile()
	p.Address = "1 Rue A;\nBat B"

	got := EncodePayload(p, models.ReasonFamille, time.Date(2021, 1, 1, 0, 0, 0, 0, paris))
	require.Contains(t, got, "Adresse: 1 Rue A;\nBat B 75001 Paris;")
}

func TestCertificateFilename(t *testing.T) {
	createdAt := time.Date(2021, 3, 5, 8, 4, 59, 0, paris)
	assert.Equal(t, "attestation-2021-03-05_08-04.pdf", CertificateFilename(createdAt))
}

func TestFrenchDateAndHour(t *testing.T) {
	ts := time.Date(2020, 11, 2, 18, 45, 0, 0, paris)
	assert.Equal(t, "02/11/2020", FrenchDate(ts))
	assert.Equal(t, "18h45", FrenchHour(ts))
}
