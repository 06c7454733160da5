package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReasonMissing is returned when the form was submitted without a reason
var ErrReasonMissing = errors.New("no reason selected")

// ValidationError lists the form fields that failed their rule
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid fields: %s", strings.Join(e.Fields, ", "))
}

// RenderStage names the step of the pipeline that failed
type RenderStage string

const (
	StageTemplate  RenderStage = "template"
	StageQR        RenderStage = "qr"
	StageFont      RenderStage = "font"
	StageEmbed     RenderStage = "embed"
	StageSerialize RenderStage = "serialize"
)

// RenderError is fatal for a generation request. No partial PDF is
// produced when it is returned.
type RenderError struct {
	Stage RenderStage
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func renderError(stage RenderStage, err error) *RenderError {
	return &RenderError{Stage: stage, Err: err}
}

// FontFitWarning reports text that was drawn at the minimum size although it
// is still wider than its slot. Generation continues.
type FontFitWarning struct {
	Field string
	Text  string
	Size  float64
}

// Message is the user-facing wording of the warning
func (w FontFitWarning) Message() string {
	return "Le nom de la ville risque de ne pas être affiché correctement en raison de sa longueur. " +
		"Essayez d'utiliser des abréviations (\"Saint\" en \"St.\" par exemple) quand cela est possible."
}
