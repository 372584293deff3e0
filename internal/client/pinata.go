package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	pinataAPI          = "https://api.pinata.cloud"
	defaultIPFSGateway = "https://ipfs.io/ipfs/"

	pinataAuthMessage = "Congratulations! You are communicating with the Pinata API!"
)

// ErrPinataNotConfigured is returned when no JWT or API key pair is set
var ErrPinataNotConfigured = errors.New("pinata credentials not configured")

// UploadError is a pinning-service failure: non-2xx status or transport error
type UploadError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pinata %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pinata %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// IsUploadError checks if error is UploadError
func IsUploadError(err error) bool {
	var ue *UploadError
	return errors.As(err, &ue)
}

// PinataCredentials holds either a JWT or the legacy API key + secret pair.
// JWT wins when both are set.
type PinataCredentials struct {
	JWT       string
	APIKey    string
	SecretKey string
}

// PinResult is the content identifier of pinned content and its gateway URL
type PinResult struct {
	CID  string `json:"cid"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// PinataClient client for the Pinata pinning API
type PinataClient struct {
	baseURL    string
	gatewayURL string
	creds      PinataCredentials
	client     *http.Client
	log        logrus.FieldLogger
	now        func() time.Time
}

// PinataOption configures PinataClient
type PinataOption func(*PinataClient)

// WithPinataBaseURL overrides the API base URL
func WithPinataBaseURL(u string) PinataOption {
	return func(c *PinataClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithPinataGateway sets the gateway prefix used to build content URLs
func WithPinataGateway(u string) PinataOption {
	return func(c *PinataClient) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.gatewayURL = u
	}
}

// WithPinataLogger sets the logger for best-effort operations
func WithPinataLogger(l logrus.FieldLogger) PinataOption {
	return func(c *PinataClient) {
		c.log = l
	}
}

// NewPinataClient creates a new Pinata client
func NewPinataClient(creds PinataCredentials, opts ...PinataOption) *PinataClient {
	c := &PinataClient{
		baseURL:    pinataAPI,
		gatewayURL: defaultIPFSGateway,
		creds:      creds,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: logrus.StandardLogger(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether any credentials are set
func (c *PinataClient) Configured() bool {
	return c.creds.JWT != "" || (c.creds.APIKey != "" && c.creds.SecretKey != "")
}

// GatewayURL returns the public gateway URL for a CID
func (c *PinataClient) GatewayURL(cid string) string {
	return c.gatewayURL + cid
}

type pinataMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

type pinataOptions struct {
	CIDVersion int `json:"cidVersion"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PinJSON pins a JSON document
func (c *PinataClient) PinJSON(ctx context.Context, name string, content any) (*PinResult, error) {
	if name == "" {
		name = "json-metadata"
	}
	return c.pinJSON(ctx, content, pinataMetadata{
		Name:      name,
		KeyValues: map[string]string{"uploadedAt": c.now().UTC().Format(time.RFC3339)},
	})
}

func (c *PinataClient) pinJSON(ctx context.Context, content any, meta pinataMetadata) (*PinResult, error) {
	body, err := json.Marshal(map[string]any{
		"pinataContent":  content,
		"pinataMetadata": meta,
		"pinataOptions":  pinataOptions{CIDVersion: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pin request: %w", err)
	}

	var out pinResponse
	if err := c.do(ctx, "pinJSONToIPFS", http.MethodPost, "/pinning/pinJSONToIPFS", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return c.result(out), nil
}

// PinFile pins a file read from r under the given file name
func (c *PinataClient) PinFile(ctx context.Context, fileName string, r io.Reader) (*PinResult, error) {
	if fileName == "" {
		return nil, errors.New("file name is required")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	meta, _ := json.Marshal(pinataMetadata{
		Name:      fileName,
		KeyValues: map[string]string{"uploadedAt": c.now().UTC().Format(time.RFC3339)},
	})
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, fmt.Errorf("failed to write metadata field: %w", err)
	}
	opts, _ := json.Marshal(pinataOptions{CIDVersion: 1})
	if err := mw.WriteField("pinataOptions", string(opts)); err != nil {
		return nil, fmt.Errorf("failed to write options field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	var out pinResponse
	if err := c.do(ctx, "pinFileToIPFS", http.MethodPost, "/pinning/pinFileToIPFS", &buf, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return c.result(out), nil
}

// TestAuthentication checks the configured credentials against the API
func (c *PinataClient) TestAuthentication(ctx context.Context) error {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, "testAuthentication", http.MethodGet, "/data/testAuthentication", nil, "", &out); err != nil {
		return err
	}
	if out.Message != pinataAuthMessage {
		return &UploadError{Op: "testAuthentication", StatusCode: http.StatusOK, Body: out.Message}
	}
	return nil
}

// Unpin removes a pin by CID
func (c *PinataClient) Unpin(ctx context.Context, cid string) error {
	if cid == "" {
		return errors.New("cid is required")
	}
	return c.do(ctx, "unpin", http.MethodDelete, "/pinning/unpin/"+cid, nil, "", nil)
}

// ReplaceJSON pins new content for a document previously pinned as oldCID, then
// unpins the old CID. Content addressing means the CID always changes; an unpin
// failure is logged and does not fail the replace.
func (c *PinataClient) ReplaceJSON(ctx context.Context, oldCID string, content any) (*PinResult, error) {
	res, err := c.pinJSON(ctx, content, pinataMetadata{
		Name: "updated-" + oldCID,
		KeyValues: map[string]string{
			"originalCID": oldCID,
			"updatedAt":   c.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, err
	}

	if oldCID != "" && oldCID != res.CID {
		if err := c.Unpin(ctx, oldCID); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"old_cid": oldCID,
				"new_cid": res.CID,
			}).Warn("Failed to unpin replaced content")
		}
	}
	return res, nil
}

func (c *PinataClient) result(out pinResponse) *PinResult {
	return &PinResult{
		CID:  out.IpfsHash,
		URL:  c.GatewayURL(out.IpfsHash),
		Size: out.PinSize,
	}
}

func (c *PinataClient) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	if !c.Configured() {
		return &UploadError{Op: op, Err: ErrPinataNotConfigured}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &UploadError{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.creds.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.JWT)
	} else {
		req.Header.Set("pinata_api_key", c.creds.APIKey)
		req.Header.Set("pinata_secret_api_key", c.creds.SecretKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &UploadError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UploadError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UploadError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
