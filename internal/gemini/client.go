package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/pgnct/internal/apperrors"
	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/httpclient"
	"github.com/oukeidos/pgnct/internal/logger"
	"github.com/oukeidos/pgnct/internal/metadata"
	"google.golang.org/api/option"
)

// DefaultModel is used when GEMINI_MODEL and --model are unset.
const DefaultModel = metadata.DefaultGeminiModel

type requestData struct {
	Source string `json:"source_language"`
	Target string `json:"target_language"`
	Text   string `json:"comment"`
}

type responseData struct {
	Translation *string `json:"translation"`
}

// generator is the subset of *genai.GenerativeModel used by Client.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client translates comments with a Gemini model.
type Client struct {
	client  *genai.Client
	model   generator
	name    string
	timeout time.Duration
}

var _ gateway.Gateway = (*Client)(nil)

// NewClient creates a Gemini client. A zero timeout uses
// httpclient.DefaultTimeout.
func NewClient(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*Client, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	if timeout <= 0 {
		timeout = httpclient.DefaultTimeout
	}
	// option.WithHTTPClient drops the API key header injection, so the
	// timeout is enforced per call through the context instead.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"translation": {Type: genai.TypeString},
		},
		Required: []string{"translation"},
	}
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	return &Client{client: client, model: model, name: modelName, timeout: timeout}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Translate sends one comment and returns the model's translation.
func (c *Client) Translate(ctx context.Context, req gateway.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(requestData{Source: req.Source, Target: req.Target, Text: req.Text})
	if err != nil {
		return "", apperrors.New(apperrors.KindBadRequest, "Could not build the Gemini request.", err)
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(string(payload)))
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", ctx.Err()
		}
		return "", classifyGeminiError(err)
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return "", apperrors.Validation(err)
	}
	logger.Debug("Gemini response", "model", c.name, "bytes", len(text))
	return parseTranslation(text)
}

func parseTranslation(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")

	var out responseData
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		// The raw text is omitted; it may contain the comment.
		return "", apperrors.New(apperrors.KindValidation, "Gemini response format was invalid.", fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if out.Translation == nil {
		return "", apperrors.New(apperrors.KindValidation, "Gemini response did not contain a translation.", nil)
	}
	return *out.Translation, nil
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}
