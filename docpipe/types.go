package docpipe

import (
	"context"
	"time"

	"github.com/hazyhaar/extractlab/tables"
)

// LibraryID identifies one of the extraction libraries offered to the user.
type LibraryID string

const (
	LibLedongthuc LibraryID = "ledongthuc"
	LibRscPDF     LibraryID = "rscpdf"
	LibDslipak    LibraryID = "dslipak"
	LibTesseract  LibraryID = "tesseract"
	LibBinarize   LibraryID = "binarize"
	LibPdftoppm   LibraryID = "pdftoppm"
	LibLattice    LibraryID = "lattice"
	LibStream     LibraryID = "stream"
	LibPlumber    LibraryID = "plumber"
	LibPdfcpu     LibraryID = "pdfcpu"
	LibTextLines  LibraryID = "textlines"
)

// Handler extracts content from raw upload bytes.
type Handler func(ctx context.Context, raw []byte) (*Output, error)

// Descriptor describes one library. Descriptors are built once by the
// registry and never modified.
type Descriptor struct {
	ID          LibraryID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	// Accepts lists lowercase file extensions without the dot.
	Accepts []string `json:"accepts"`

	handler Handler
}

// AttachmentKind tells the UI how to show a side output.
type AttachmentKind string

const (
	AttachImage AttachmentKind = "image"
	AttachTable AttachmentKind = "table"
)

// Attachment is a side output displayed next to the result. It is never
// part of the result text.
type Attachment struct {
	Kind    AttachmentKind `json:"kind"`
	Caption string         `json:"caption"`
	PNG     []byte         `json:"-"`
	Table   *tables.Table  `json:"table,omitempty"`
}

// Output is what a handler produces on success.
type Output struct {
	Text        string
	Attachments []Attachment
	Quality     *ExtractionQuality
}

// Upload is a file received from the user. It lives for one request.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Result is the outcome of one processing run. Text is the string shown to
// the user and offered for download, whether the run failed or not.
type Result struct {
	Library     LibraryID          `json:"library"`
	Text        string             `json:"text"`
	Failed      bool               `json:"failed"`
	Attachments []Attachment       `json:"attachments,omitempty"`
	Quality     *ExtractionQuality `json:"quality,omitempty"`
	Duration    time.Duration      `json:"duration"`
}
