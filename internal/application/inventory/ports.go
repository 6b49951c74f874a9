package inventory

import (
	"context"
	"io"
)

// EvidenceStore sube archivos de soporte (fotos de pérdidas) y devuelve su URL pública.
type EvidenceStore interface {
	Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
}

// Evidence archivo adjunto a una pérdida.
type Evidence struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
