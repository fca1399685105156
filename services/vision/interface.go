package vision

import "context"

// Client turns a scanned document image into the model's raw text response.
// The response should contain a single JSON object but nothing about its
// shape is guaranteed; the extraction pipeline owns making it safe.
type Client interface {
	ExtractInvoice(ctx context.Context, image []byte, mimeType string) (string, error)
	Close() error
}
