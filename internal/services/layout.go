package services

import (
	"fmt"

	"github.com/attestation/backend/internal/models"
)

// Coordinates are PDF points with the origin at the bottom-left corner of
// the page, y growing upwards.
type Point struct {
	X, Y float64
}

// TextStamp is a string drawn on a page with its baseline at (X, Y)
type TextStamp struct {
	Page int
	Text string
	X, Y float64
	Size float64
}

// ImageStamp places an image with its lower-left corner at (X, Y)
type ImageStamp struct {
	Page          int
	X, Y          float64
	Width, Height float64
}

const (
	defaultTextSize = 11.0
	reasonMarkSize  = 18.0
	reasonMarkX     = 73.0

	townMaxWidth = 83.0
	townMinSize  = 7.0

	// pdf-lib's default page size, used for the appended QR page
	appendedPageWidth  = 595.28
	appendedPageHeight = 841.89
)

// Layout binds every stamped value of the certificate to its slot on the
// template.
type Layout struct {
	FullName    Point
	Birthday    Point
	BirthPlace  Point
	Address     Point
	ZipTown     Point
	Town        Point
	DateSortie  Point
	HeureSortie Point

	reasonMarks map[models.Reason]Point
}

var reasonMarkY = map[models.Reason]float64{
	models.ReasonTravail:     539,
	models.ReasonSante:       489,
	models.ReasonFamille:     441,
	models.ReasonHandicap:    384,
	models.ReasonConvocation: 349,
	models.ReasonMissions:    313,
	models.ReasonTransits:    264,
	models.ReasonAnimaux:     229,
}

// NewLayout builds the certificate layout. It fails if a reason has no mark
// slot, a slot belongs to an unknown reason, or two reasons share a slot.
func NewLayout(markY map[models.Reason]float64) (*Layout, error) {
	marks := make(map[models.Reason]Point, len(markY))
	taken := make(map[Point]models.Reason, len(markY))

	for _, r := range models.Reasons {
		y, ok := markY[r]
		if !ok {
			return nil, fmt.Errorf("no mark slot for reason %q", r)
		}
		p := Point{X: reasonMarkX, Y: y}
		if other, dup := taken[p]; dup {
			return nil, fmt.Errorf("reasons %q and %q share mark slot %v", other, r, p)
		}
		taken[p] = r
		marks[r] = p
	}
	for r := range markY {
		if !r.Valid() {
			return nil, fmt.Errorf("mark slot for unknown reason %q", r)
		}
	}

	return &Layout{
		FullName:    Point{119, 669},
		Birthday:    Point{119, 646},
		BirthPlace:  Point{312, 646},
		Address:     Point{133, 622},
		ZipTown:     Point{133, 609},
		Town:        Point{105, 168},
		DateSortie:  Point{91, 146},
		HeureSortie: Point{312, 146},
		reasonMarks: marks,
	}, nil
}

// MustLayout is NewLayout for the built-in table
func MustLayout() *Layout {
	l, err := NewLayout(reasonMarkY)
	if err != nil {
		panic(err)
	}
	return l
}

// ReasonMark returns the slot of the mark for r. Unknown reasons have none.
func (l *Layout) ReasonMark(r models.Reason) (Point, bool) {
	p, ok := l.reasonMarks[r]
	return p, ok
}

// Texts lays out every string drawn on page 1. The town is fitted into its
// slot with widthOf; when even the minimum size is too wide it is drawn at
// the minimum size and a warning is returned.
func (l *Layout) Texts(p models.Profile, reason models.Reason, widthOf WidthFunc) ([]TextStamp, []FontFitWarning) {
	at := func(text string, pt Point, size float64) TextStamp {
		return TextStamp{Page: 1, Text: text, X: pt.X, Y: pt.Y, Size: size}
	}

	stamps := []TextStamp{
		at(p.FirstName+" "+p.LastName, l.FullName, defaultTextSize),
		at(p.Birthday, l.Birthday, defaultTextSize),
		at(p.LieuNaissance, l.BirthPlace, defaultTextSize),
		at(p.Address, l.Address, defaultTextSize),
		at(p.ZipCode+" "+p.Town, l.ZipTown, defaultTextSize),
	}

	if mark, ok := l.ReasonMark(reason); ok {
		stamps = append(stamps, at("x", mark, reasonMarkSize))
	}

	var warnings []FontFitWarning
	townSize, ok := IdealFontSize(widthOf, p.Town, townMaxWidth, townMinSize, defaultTextSize)
	if !ok {
		townSize = townMinSize
		warnings = append(warnings, FontFitWarning{Field: "town", Text: p.Town, Size: townMinSize})
	}

	stamps = append(stamps,
		at(p.Town, l.Town, townSize),
		at(p.DateSortie, l.DateSortie, defaultTextSize),
		at(p.HeureSortie, l.HeureSortie, defaultTextSize),
	)
	return stamps, warnings
}

// QRCodes places the small code on page 1, measured from the page's right
// edge, and the large one near the top of the appended page 2.
func (l *Layout) QRCodes(page1Width, page2Height float64) []ImageStamp {
	return []ImageStamp{
		{Page: 1, X: page1Width - 156, Y: 122, Width: 92, Height: 92},
		{Page: 2, X: 50, Y: page2Height - 350, Width: 300, Height: 300},
	}
}
