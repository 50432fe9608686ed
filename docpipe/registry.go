package docpipe

import "fmt"

// Registry maps library ids to descriptors. It is built once and read-only
// afterwards, so it is safe for concurrent use.
type Registry struct {
	order []Descriptor
	byID  map[LibraryID]Descriptor
}

func newRegistry(ds []Descriptor) *Registry {
	r := &Registry{byID: make(map[LibraryID]Descriptor, len(ds))}
	for _, d := range ds {
		if _, dup := r.byID[d.ID]; dup {
			panic("docpipe: duplicate library id " + string(d.ID))
		}
		r.order = append(r.order, d)
		r.byID[d.ID] = d
	}
	return r
}

// Lookup returns the descriptor for id, or an error wrapping ErrNotFound.
func (r *Registry) Lookup(id LibraryID) (Descriptor, error) {
	d, ok := r.byID[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return d, nil
}

// All returns the descriptors in display order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// builtins binds every library to its routine on p.
func (p *Pipeline) builtins() []Descriptor {
	pdf := []string{"pdf"}
	return []Descriptor{
		{ID: LibLedongthuc, Name: "ledongthuc/pdf", Description: "Extração básica de texto de PDFs", Accepts: pdf, handler: p.extractLedongthuc},
		{ID: LibRscPDF, Name: "rsc.io/pdf", Description: "Extração básica de texto de PDFs", Accepts: pdf, handler: p.extractRscPDF},
		{ID: LibDslipak, Name: "dslipak/pdf", Description: "Extração detalhada de texto, layout e metadados", Accepts: pdf, handler: p.extractDslipak},
		{ID: LibTesseract, Name: "gosseract", Description: "OCR para extrair texto de imagens", Accepts: []string{"png", "jpg", "jpeg", "tiff"}, handler: p.extractTesseract},
		{ID: LibBinarize, Name: "x/image + gosseract", Description: "Pré-processamento de imagens para OCR", Accepts: []string{"png", "jpg", "jpeg"}, handler: p.extractBinarized},
		{ID: LibPdftoppm, Name: "pdftoppm + gosseract", Description: "Conversão de PDFs em imagens para OCR", Accepts: pdf, handler: p.extractPdftoppm},
		{ID: LibLattice, Name: "Tabelas em grade", Description: "Extração de tabelas de PDFs", Accepts: pdf, handler: p.extractLattice},
		{ID: LibStream, Name: "Tabelas por alinhamento", Description: "Extração de tabelas de PDFs", Accepts: pdf, handler: p.extractStream},
		{ID: LibPlumber, Name: "Texto e tabelas", Description: "Extrai texto, tabelas e metadados", Accepts: pdf, handler: p.extractPlumber},
		{ID: LibPdfcpu, Name: "pdfcpu", Description: "Processamento versátil de PDFs", Accepts: pdf, handler: p.extractPdfcpu},
		{ID: LibTextLines, Name: "gosseract (linhas)", Description: "OCR multilíngue para imagens", Accepts: []string{"png", "jpg", "jpeg"}, handler: p.extractTextLines},
	}
}

// About is the footer text describing each library, in display order.
var About = []struct{ Name, Text string }{
	{"ledongthuc/pdf, rsc.io/pdf", "Extração básica de texto de PDFs"},
	{"dslipak/pdf", "Extração detalhada de texto, layout e metadados de PDFs"},
	{"gosseract", "OCR para extrair texto de imagens"},
	{"x/image", "Pré-processamento de imagens antes do OCR"},
	{"pdftoppm", "Converte PDFs em imagens para processamento com OCR"},
	{"Tabelas em grade", "Especializada em extrair tabelas com linhas desenhadas"},
	{"Tabelas por alinhamento", "Extrai tabelas pelo alinhamento das colunas de texto"},
	{"Texto e tabelas", "Extrai texto, tabelas e metadados com bom controle sobre o layout"},
	{"pdfcpu", "Biblioteca rápida e versátil para processamento de PDFs"},
	{"gosseract (linhas)", "OCR multilíngue com caixas por linha"},
}
