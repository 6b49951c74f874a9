// Package storage sube evidencias de pérdidas a Google Cloud Storage.
package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
)

// allowedTypes tipos aceptados como evidencia (fotos y soportes escaneados).
var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// GCSUploader implementa inventory.EvidenceStore sobre un bucket.
type GCSUploader struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
	log           zerolog.Logger
}

// NewGCSClient crea el cliente. Sin credentialsJSON usa las credenciales por defecto del entorno.
func NewGCSClient(ctx context.Context, credentialsJSON string) (*gcs.Client, error) {
	if strings.TrimSpace(credentialsJSON) != "" {
		return gcs.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	return gcs.NewClient(ctx)
}

// NewGCSUploader construye el adaptador. Verifica que el bucket exista y sea accesible.
func NewGCSUploader(ctx context.Context, client *gcs.Client, bucket, publicBaseURL string, log zerolog.Logger) (*GCSUploader, error) {
	if bucket == "" {
		return nil, domain.Configuration("GCS_BUCKET es obligatorio para subir evidencias")
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		return nil, domain.Configuration("bucket %q no encontrado o sin acceso: %v", bucket, err)
	}
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com"
	}
	return &GCSUploader{client: client, bucket: bucket, publicBaseURL: strings.TrimRight(publicBaseURL, "/"), log: log}, nil
}

// Upload escribe el objeto folder/filename y devuelve su URL pública.
func (u *GCSUploader) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	mime, err := DetectType(br, contentType)
	if err != nil {
		return "", err
	}
	object := path.Join(folder, filename)

	wc := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	wc.ContentType = mime
	n, err := io.Copy(wc, br)
	if err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("subir evidencia %s: %w", object, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("cerrar evidencia %s: %w", object, err)
	}
	url := ObjectURL(u.publicBaseURL, u.bucket, object)
	u.log.Info().Str("object", object).Int64("bytes", n).Str("content_type", mime).Msg("evidencia subida")
	return url, nil
}

// DetectType identifica el tipo por contenido sin consumir el lector. declared solo se usa
// si el contenido no es concluyente.
func DetectType(br *bufio.Reader, declared string) (string, error) {
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", fmt.Errorf("leer evidencia: %w", err)
	}
	if len(head) == 0 {
		return "", domain.Validation("archivo de evidencia vacío")
	}
	mime := http.DetectContentType(head)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if mime == "application/octet-stream" && declared != "" {
		mime = declared
	}
	if !allowedTypes[mime] {
		return "", domain.Validation("tipo de evidencia no soportado: %s", mime)
	}
	return mime, nil
}

// ObjectURL URL pública de un objeto.
func ObjectURL(baseURL, bucket, object string) string {
	return strings.TrimRight(baseURL, "/") + "/" + bucket + "/" + object
}
