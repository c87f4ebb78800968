package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	fsrepo "NoteKeeper/internal/cli/repo/fs"

	"github.com/gabriel-vasile/mimetype"
)

// CookieName is the auth cookie the server issues on login and register.
const CookieName = "auth_token"

// PostJSON sends a JSON POST request. If token is non-empty, it is passed as auth cookie.
func PostJSON(url string, payload any, token string) (*http.Response, []byte, error) {
	return PostJSONContext(context.Background(), url, payload, token)
}

// PostJSONContext is PostJSON bound to ctx.
func PostJSONContext(ctx context.Context, url string, payload any, token string) (*http.Response, []byte, error) {
	return doJSON(ctx, http.DefaultClient, http.MethodPost, url, payload, token)
}

// AuthToken returns the auth cookie value set by the response.
func AuthToken(resp *http.Response) (string, error) {
	for _, c := range resp.Cookies() {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("no auth cookie in response")
}

// PersistAuthFromResponse извлекает auth cookie из ответа и сохраняет его через файловое хранилище.
func PersistAuthFromResponse(resp *http.Response) error {
	token, err := AuthToken(resp)
	if err != nil {
		return err
	}
	return fsrepo.AuthFSStore{}.Save(token)
}

func doJSON(ctx context.Context, hc *http.Client, method, url string, payload any, token string) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Cookie", CookieName+"="+token)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b, nil
}

// Error is a failed API call: the server answered with success=false.
type Error struct {
	Status  int
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Field)
	}
	if e.Message == "" {
		return fmt.Sprintf("server status %d", e.Status)
	}
	return e.Message
}

// IsAPIError reports whether err came from the server rather than the transport.
func IsAPIError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
}

// Client talks to the NoteKeeper API on behalf of one authenticated user.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Token: token, HTTP: http.DefaultClient}
}

// Call sends a JSON request to path and decodes the envelope data into out.
// out may be nil when the response carries no data.
func (c *Client) Call(ctx context.Context, method, path string, payload, out any) error {
	resp, body, err := doJSON(ctx, c.HTTP, method, c.BaseURL+path, payload, c.Token)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp.StatusCode, body, out)
}

// UploadFiles sends local files as a multipart form under the "files" field.
// The envelope data is decoded into out even when every file was rejected.
func (c *Client) UploadFiles(ctx context.Context, path string, files []string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range files {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filepath.Base(p)))
		h.Set("Content-Type", mimetype.Detect(data).String())
		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(data); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Cookie", CookieName+"="+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if len(env.Data) > 0 && out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
	}
	if !env.Success && len(env.Data) == 0 {
		return &Error{Status: resp.StatusCode, Message: env.Error, Field: env.Field}
	}
	return nil
}

func decodeEnvelope(status int, body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// ответ не в конверте: например, http.Error из middleware
		return &Error{Status: status, Message: strings.TrimSpace(string(body))}
	}
	if !env.Success || status >= http.StatusBadRequest {
		return &Error{Status: status, Message: env.Error, Field: env.Field}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
