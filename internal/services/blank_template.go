package services

import (
	"bytes"
	"fmt"

	"github.com/attestation/backend/internal/models"
	"github.com/jung-kurt/gofpdf"
)

var reasonLabels = map[models.Reason]string{
	models.ReasonTravail:     "Déplacements entre le domicile et le lieu d'exercice de l'activité professionnelle",
	models.ReasonSante:       "Consultations, examens et soins ne pouvant être assurés à distance",
	models.ReasonFamille:     "Déplacements pour motif familial impérieux",
	models.ReasonHandicap:    "Déplacements des personnes en situation de handicap et de leur accompagnant",
	models.ReasonConvocation: "Convocation judiciaire ou administrative",
	models.ReasonMissions:    "Participation à des missions d'intérêt général",
	models.ReasonTransits:    "Déplacements liés à des transits ferroviaires ou aériens",
	models.ReasonAnimaux:     "Déplacements brefs pour les besoins des animaux de compagnie",
}

// BlankTemplate renders a one-page A4 form with the labels of every slot in
// layout. It stands in for the official template when that file is not
// deployed.
func BlankTemplate(layout *Layout) ([]byte, error) {
	const pageHeight = appendedPageHeight

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: appendedPageWidth, Ht: appendedPageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.AddPage()

	label := func(text string, x, y, size float64) {
		pdf.SetFontSize(size)
		pdf.Text(x, pageHeight-y, winAnsi(text))
	}

	pdf.SetFont(certificateFont, "B", 14)
	label("ATTESTATION DE DÉPLACEMENT DÉROGATOIRE", 150, 760, 14)

	pdf.SetFont(certificateFont, "", 10)
	label("Je soussigné(e),", 47, 690, 10)
	label("Mme/M. :", 47, layout.FullName.Y, 10)
	label("Né(e) le :", 47, layout.Birthday.Y, 10)
	label("à :", layout.BirthPlace.X-20, layout.BirthPlace.Y, 10)
	label("Demeurant :", 47, layout.Address.Y, 10)
	label("certifie que mon déplacement est lié au motif suivant :", 47, 580, 10)

	for _, r := range models.Reasons {
		mark, ok := layout.ReasonMark(r)
		if !ok {
			continue
		}
		pdf.Rect(mark.X-3, pageHeight-mark.Y-12, 14, 14, "D")
		label(reasonLabels[r], mark.X+20, mark.Y, 9)
	}

	label("Fait à :", 47, layout.Town.Y, 10)
	label("Le :", 47, layout.DateSortie.Y, 10)
	label("à :", layout.HeureSortie.X-20, layout.HeureSortie.Y, 10)
	label("(Date et heure de début de sortie à mentionner obligatoirement)", 47, layout.DateSortie.Y-14, 8)

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("render blank template: %w", err)
	}
	return out.Bytes(), nil
}
