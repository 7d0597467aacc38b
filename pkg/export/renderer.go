package export

import "fmt"

// Format names an export output format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// RendererFor returns the renderer for format.
func RendererFor(format Format) (Renderer, error) {
	switch format {
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
