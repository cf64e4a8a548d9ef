package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// PDF serves the pages of a single document as the image stack, rendered at
// a fixed DPI.
type PDF struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func OpenPDF(path string, dpi int) (*PDF, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &PDF{doc: doc, path: path, dpi: dpi}, nil
}

// Paths identifies the document for the frame store's resume hash. The DPI is
// part of the identity: a different DPI produces different frames.
func (p *PDF) Paths() []string {
	return []string{fmt.Sprintf("%s@%ddpi", p.path, p.dpi)}
}

func (p *PDF) Count() int { return p.doc.NumPage() }

func (p *PDF) Name(i int) string { return fmt.Sprintf("%s page %d", p.path, i+1) }

func (p *PDF) Image(i int) (image.Image, error) {
	return p.doc.ImageDPI(i, float64(p.dpi))
}

func (p *PDF) Close() error { return p.doc.Close() }
