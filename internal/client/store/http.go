package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skylog-app/skylog/internal/common"
)

// SignatureHeader carries the base64 detached append signature.
const SignatureHeader = "X-Signature"

// HTTPClient talks to a store server over its HTTP/JSON wire contract.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

// NewHTTPClient builds a client for the store at baseURL, e.g.
// "https://store.example.com". The timeout bounds every individual request.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
	}
}

type appendRequest struct {
	Ciphertext string `json:"ciphertext"`
}

func (c *HTTPClient) Append(ctx context.Context, pubHex, ciphertextB64 string, sig []byte) (Event, error) {
	body, err := json.Marshal(appendRequest{Ciphertext: ciphertextB64})
	if err != nil {
		return Event{}, err
	}

	u := fmt.Sprintf("%s/api/events/%s", c.baseURL, url.PathEscape(pubHex))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Event{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, base64.StdEncoding.EncodeToString(sig))

	var ev Event
	if err := c.do(req, http.StatusCreated, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (c *HTTPClient) Read(ctx context.Context, pubHex string, after int64, limit int) (Page, error) {
	q := url.Values{}
	q.Set("after", strconv.FormatInt(after, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	u := fmt.Sprintf("%s/api/events/%s?%s", c.baseURL, url.PathEscape(pubHex), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Page{}, err
	}

	var page Page
	if err := c.do(req, http.StatusOK, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

func (c *HTTPClient) Head(ctx context.Context, pubHex string) (Head, error) {
	u := fmt.Sprintf("%s/api/events/%s/head", c.baseURL, url.PathEscape(pubHex))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Head{}, err
	}

	var head Head
	if err := c.do(req, http.StatusOK, &head); err != nil {
		return Head{}, err
	}
	return head, nil
}

// do executes the request, maps status codes onto sentinel errors, and
// decodes the expected JSON body.
func (c *HTTPClient) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", common.ErrInvalidSignature, msg)
		case resp.StatusCode == http.StatusRequestEntityTooLarge:
			return fmt.Errorf("%w: %s", common.ErrPayloadTooLarge, msg)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return fmt.Errorf("%w: %d %s", common.ErrBadRequest, resp.StatusCode, msg)
		default:
			return fmt.Errorf("%w: %d %s", common.ErrUnavailable, resp.StatusCode, msg)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding store response: %w", err)
	}
	return nil
}
