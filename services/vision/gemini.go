package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// invoicePrompt asks the model for the exact JSON structure the normalizer
// expects. Kept in French to match the documents this service processes.
const invoicePrompt = `Analysez cette image de facture et extrayez toutes les informations disponibles, essentiellement le nom et les détails du fournisseur.
Retournez uniquement un JSON valide avec la structure suivante :

{
    "invoiceNumber": "string",
    "invoiceDate": "string (format JJ/MM/AAAA)",
    "dueDate": "string (format JJ/MM/AAAA)",
    "supplier": {
        "name": "string",
        "address": "string",
        "taxId": "string"
    },
    "items": [
        {
            "description": "string",
            "quantity": number,
            "unitPrice": number,
            "totalPrice": number
        }
    ],
    "subtotal": number,
    "taxAmount": number,
    "totalAmount": number
}

Si une information est manquante, utilisez null.
Ne retournez rien d'autre que le JSON.`

// GeminiClient implements Client using Google Gemini vision.
type GeminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed vision client.
func NewGeminiClient(apiKey, modelName string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   client.GenerativeModel(modelName),
		timeout: timeout,
	}, nil
}

// ExtractInvoice sends the image and the extraction prompt to Gemini and
// returns the raw text of the response. The call is bounded by the client
// timeout; a timed-out call fails the whole request and nothing is persisted.
func (g *GeminiClient) ExtractInvoice(ctx context.Context, image []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	parts := []genai.Part{
		genai.ImageData(imageFormat(mimeType), image),
		genai.Text(invoicePrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

// Close closes the underlying Gemini client.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// imageFormat maps a MIME type to the bare format suffix genai.ImageData
// expects ("image/png" -> "png").
func imageFormat(mimeType string) string {
	lowered := strings.ToLower(mimeType)
	format := strings.TrimPrefix(lowered, "image/")
	if format == "" || format == lowered {
		return "jpeg"
	}
	if idx := strings.Index(format, ";"); idx != -1 {
		format = format[:idx]
	}
	return format
}
