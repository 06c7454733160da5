package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/attestation/backend/internal/models"
	pdflib "github.com/digitorus/pdf"
	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	certificateFont = "Helvetica"
	qrImageName     = "qrcode"
)

// Metadata is written to the document information dictionary
type Metadata struct {
	Title    string
	Subject  string
	Keywords []string
	Producer string
	Creator  string
	Author   string
}

// CertificateMetadata is the fixed information dictionary of every
// certificate. None of it comes from user input.
var CertificateMetadata = Metadata{
	Title:   "COVID-19 - Déclaration de déplacement",
	Subject: "Attestation de déplacement dérogatoire",
	Keywords: []string{
		"covid19",
		"covid-19",
		"attestation",
		"déclaration",
		"déplacement",
		"officielle",
		"gouvernement",
	},
	Producer: "DNUM/SDIT",
	Creator:  "",
	Author:   "Ministère d l'intérieur",
}

// StampResult is a finished certificate document
type StampResult struct {
	PDF      []byte
	Warnings []FontFitWarning
}

// Stamper writes a profile onto the first page of a certificate template
type Stamper struct {
	layout *Layout
	meta   Metadata
}

func NewStamper(layout *Layout) *Stamper {
	return &Stamper{layout: layout, meta: CertificateMetadata}
}

// Stamp produces the certificate: template page 1 with the profile, the
// reason mark and a small QR code, followed by a page holding a large copy of
// the QR code. The template bytes are only read.
func (s *Stamper) Stamp(template []byte, p models.Profile, reason models.Reason, qrPNG []byte, createdAt time.Time) (*StampResult, error) {
	width, height, err := TemplatePageSize(template)
	if err != nil {
		return nil, renderError(StageTemplate, err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(createdAt)
	s.writeMetadata(pdf)

	pdf.AddPage()
	if err := importTemplatePage(pdf, template, width, height); err != nil {
		return nil, renderError(StageTemplate, err)
	}

	pdf.SetFont(certificateFont, "", defaultTextSize)
	if pdf.Err() {
		return nil, renderError(StageFont, pdf.Error())
	}

	widthOf := func(text string, size float64) float64 {
		pdf.SetFontSize(size)
		return pdf.GetStringWidth(winAnsi(text))
	}
	texts, warnings := s.layout.Texts(p, reason, widthOf)
	for _, t := range texts {
		pdf.SetFontSize(t.Size)
		pdf.Text(t.X, height-t.Y, winAnsi(t.Text))
	}
	if pdf.Err() {
		return nil, renderError(StageFont, pdf.Error())
	}

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(qrImageName, opt, bytes.NewReader(qrPNG))
	if pdf.Err() {
		return nil, renderError(StageEmbed, pdf.Error())
	}

	codes := s.layout.QRCodes(width, appendedPageHeight)
	for _, img := range codes {
		pageHeight := height
		if img.Page == 2 {
			pdf.AddPageFormat("P", gofpdf.SizeType{Wd: appendedPageWidth, Ht: appendedPageHeight})
			pageHeight = appendedPageHeight
		}
		pdf.ImageOptions(qrImageName, img.X, pageHeight-img.Y-img.Height, img.Width, img.Height, false, opt, 0, "")
	}
	if pdf.Err() {
		return nil, renderError(StageEmbed, pdf.Error())
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, renderError(StageSerialize, err)
	}

	return &StampResult{PDF: out.Bytes(), Warnings: warnings}, nil
}

func (s *Stamper) writeMetadata(pdf *gofpdf.Fpdf) {
	pdf.SetTitle(s.meta.Title, true)
	pdf.SetSubject(s.meta.Subject, true)
	pdf.SetKeywords(strings.Join(s.meta.Keywords, " "), true)
	pdf.SetProducer(s.meta.Producer, true)
	pdf.SetCreator(s.meta.Creator, true)
	pdf.SetAuthor(s.meta.Author, true)
}

// importTemplatePage draws page 1 of the template across the current page.
// The importer panics on documents it cannot parse, which is reported as an
// error instead.
func importTemplatePage(pdf *gofpdf.Fpdf, template []byte, width, height float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import template page: %v", r)
		}
	}()

	importer := gofpdi.NewImporter()
	var rs io.ReadSeeker = bytes.NewReader(template)
	tpl := importer.ImportPageFromStream(pdf, &rs, 1, "/MediaBox")
	importer.UseImportedTemplate(pdf, tpl, 0, 0, width, height)
	if pdf.Err() {
		return pdf.Error()
	}
	return nil
}

// TemplatePageSize parses the template and returns the size in points of its
// first page. It fails on anything that is not a readable PDF with at least
// one page.
func TemplatePageSize(template []byte) (width, height float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse template: %v", r)
		}
	}()

	if len(template) == 0 {
		return 0, 0, errors.New("empty template")
	}
	rdr, err := pdflib.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return 0, 0, fmt.Errorf("parse template: %w", err)
	}
	if rdr.NumPage() < 1 {
		return 0, 0, errors.New("template has no pages")
	}

	// MediaBox is inheritable from the page tree
	node := rdr.Page(1).V
	for !node.IsNull() {
		box := node.Key("MediaBox")
		if box.Len() == 4 {
			width = box.Index(2).Float64() - box.Index(0).Float64()
			height = box.Index(3).Float64() - box.Index(1).Float64()
			if width > 0 && height > 0 {
				return width, height, nil
			}
			break
		}
		node = node.Key("Parent")
	}
	return 0, 0, errors.New("template page 1 has no usable MediaBox")
}

// winAnsi converts UTF-8 text to the single-byte encoding of the standard
// PDF fonts. Characters outside Windows-1252 are replaced.
func winAnsi(s string) string {
	out, err := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).String(s)
	if err != nil {
		return s
	}
	return out
}
