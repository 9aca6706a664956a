package libretranslate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oukeidos/pgnct/internal/apperrors"
	"github.com/oukeidos/pgnct/internal/gateway"
	"github.com/oukeidos/pgnct/internal/httpclient"
	"github.com/oukeidos/pgnct/internal/logger"
)

const (
	// OfflineURL is where a locally installed LibreTranslate listens by default.
	OfflineURL = "http://localhost:5000"
	// WebURL is the public LibreTranslate service, which requires an API key.
	WebURL = "https://libretranslate.com"
)

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText *string `json:"translatedText"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// LanguageInfo is one entry of GET /languages.
type LanguageInfo struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Targets []string `json:"targets,omitempty"`
}

// Client talks to a LibreTranslate server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ gateway.Gateway = (*Client)(nil)

// NewClient returns a client for baseURL. A zero timeout uses
// httpclient.DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpclient.NewClient(timeout),
	}
}

// Translate sends one text to POST /translate.
func (c *Client) Translate(ctx context.Context, req gateway.Request) (string, error) {
	payload := translateRequest{
		Q:      req.Text,
		Source: req.Source,
		Target: req.Target,
		Format: "text",
		APIKey: c.apiKey,
	}
	httpReq, err := httpclient.NewJSONRequest(ctx, http.MethodPost, c.baseURL+"/translate", payload)
	if err != nil {
		return "", apperrors.New(apperrors.KindBadRequest, "Could not build the translation request.", err)
	}

	body, resp, err := httpclient.DoAndRead(c.http, httpReq)
	if err != nil {
		if resp != nil {
			return "", apperrors.New(apperrors.KindServer, "LibreTranslate returned an oversized or unreadable response.", err)
		}
		return "", classifyTransportError(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, resp.Status, parseErrorMessage(body))
	}

	var result translateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", apperrors.New(apperrors.KindValidation, "LibreTranslate response format was invalid.", fmt.Errorf("failed to decode response: %w", err))
	}
	if result.TranslatedText == nil {
		return "", apperrors.New(apperrors.KindValidation, "LibreTranslate response did not contain a translation.", nil)
	}
	logger.Debug("LibreTranslate response", "status", resp.Status, "bytes", len(body))
	return *result.TranslatedText, nil
}

// Languages lists the languages the server supports.
func (c *Client) Languages(ctx context.Context) ([]LanguageInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return nil, err
	}
	body, resp, err := httpclient.DoAndRead(c.http, httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, resp.Status, parseErrorMessage(body))
	}
	var langs []LanguageInfo
	if err := json.Unmarshal(body, &langs); err != nil {
		return nil, apperrors.New(apperrors.KindValidation, "LibreTranslate language list was invalid.", err)
	}
	return langs, nil
}

// Probe reports whether a LibreTranslate server answers GET /languages at
// baseURL within httpclient.ProbeTimeout.
func Probe(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, httpclient.ProbeTimeout)
	defer cancel()
	_, err := NewClient(baseURL, "", httpclient.ProbeTimeout).Languages(ctx)
	return err == nil
}

// DetectURL prefers a local server and falls back to the public service.
func DetectURL(ctx context.Context) string {
	if Probe(ctx, OfflineURL) {
		return OfflineURL
	}
	return WebURL
}

// IsLocalURL reports whether rawURL points at this machine.
func IsLocalURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func parseErrorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return apperrors.New(apperrors.KindNetwork, "Could not reach the LibreTranslate server.", fmt.Errorf("request failed: %w", err))
}

// classifyStatus maps a non-200 response to an error kind. The server's
// message goes into the cause only; LibreTranslate echoes the input text in
// some error messages.
func classifyStatus(statusCode int, status, message string) error {
	cause := fmt.Errorf("libretranslate status=%s message=%s", status, message)
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return apperrors.New(
			apperrors.KindAuth,
			fmt.Sprintf("LibreTranslate rejected the API key (%d). Please verify your API key.", statusCode),
			cause,
		)
	case statusCode == http.StatusTooManyRequests:
		return apperrors.New(apperrors.KindRateLimit, "LibreTranslate rate limit exceeded (429).", cause)
	case statusCode == http.StatusBadRequest && isLanguageError(message):
		return apperrors.New(apperrors.KindInvalidLanguage, "LibreTranslate does not support the requested language pair.", cause)
	case statusCode >= 500:
		return apperrors.New(apperrors.KindServer, fmt.Sprintf("LibreTranslate server error (%d).", statusCode), cause)
	default:
		return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("LibreTranslate rejected the request (%d).", statusCode), cause)
	}
}

func isLanguageError(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "language") || strings.Contains(m, "not supported")
}
