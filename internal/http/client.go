package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultUserAgent is sent when no other agent is configured.
const DefaultUserAgent = "fuo/1.0"

// Client wraps the HTTP calls providers and helpers make.
//
// Client provides:
//   - a configured User-Agent and per-request extra headers
//   - status checking that turns non-2xx responses into *StatusError
//   - streaming downloads with progress
//   - line-delimited JSON streaming for long running POSTs
//
// Example usage:
//
//	client := NewClient()
//
//	html, err := client.GetString(ctx, "https://artist.bandcamp.com/album/name")
//
//	err = client.PostLines(ctx, scorerURL, req, func(line []byte) error {
//	    var s Score
//	    return json.Unmarshal(line, &s)
//	})
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the whole-request timeout. Zero disables it, which
// streaming callers usually want.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithHTTPClient replaces the underlying client, e.g. with httptest's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Client with a 60 second timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.Code, e.URL, e.Status)
}

// NotFound returns true for 404 and 410 responses.
func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound || e.Code == http.StatusGone
}

// ProgressWriter wraps a writer to track download progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	Writer io.Writer

	// Total is the expected size from Content-Length, or -1.
	Total int64

	Written int64

	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: url, Code: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// Get performs a GET request and returns the response body.
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/cover.jpg", nil)
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// GetString performs a GET request and returns the body as a string.
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	body, err := c.Get(ctx, url, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetFileSize returns the Content-Length of url via a HEAD request.
func (c *Client) GetFileSize(ctx context.Context, url string, headers map[string]string) (int64, error) {
	resp, err := c.do(ctx, http.MethodHead, url, nil, headers)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("no Content-Length header for %s", url)
	}
	return resp.ContentLength, nil
}

// DownloadFile streams url into destPath.
//
// The body is written to destPath+".part" and renamed on success, so an
// interrupted download never leaves a truncated file under the final name.
// onProgress may be nil.
//
// Example:
//
//	err := client.DownloadFile(ctx, media.URL, media.HTTPHeaders, "/music/song.mp3", func(written, total int64) {
//	    if total > 0 {
//	        fmt.Printf("%.1f%%\r", float64(written)/float64(total)*100)
//	    }
//	})
func (c *Client) DownloadFile(ctx context.Context, url string, headers map[string]string, destPath string, onProgress func(written, total int64)) error {
	resp, err := c.do(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	part := destPath + ".part"
	file, err := os.Create(part)
	if err != nil {
		return err
	}

	var writer io.Writer = file
	if onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: onProgress,
		}
	}

	_, err = io.Copy(writer, resp.Body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(part)
		return err
	}
	return os.Rename(part, destPath)
}

// PostJSON sends payload as JSON and decodes the response into out.
// out may be nil to discard the body.
func (c *Client) PostJSON(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(body), map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// PostLines sends payload as JSON and calls onLine for every non-empty
// line of the response as it arrives. Returning an error from onLine stops
// reading and is returned as is; io.EOF from onLine stops without error.
//
// Example:
//
//	err := client.PostLines(ctx, url, req, func(line []byte) error {
//	    var hit struct{ Index int }
//	    if err := json.Unmarshal(line, &hit); err != nil {
//	        return err
//	    }
//	    hits <- hit.Index
//	    return nil
//	})
func (c *Client) PostLines(ctx context.Context, url string, payload any, onLine func(line []byte) error) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/x-ndjson",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := onLine(line); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return ctx.Err()
}
