// Package transports provides the transport implementations used by the CLI.
package transports

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrStopTail may be returned by a tail callback to end the stream cleanly.
var ErrStopTail = errors.New("transports: stop tail")

// HTTPTransport implements LogTransport over the JSON admin API.
type HTTPTransport struct {
	baseURL func() string
	client  *http.Client
}

// NewHTTPTransport constructs an HTTPTransport. client may be nil.
func NewHTTPTransport(baseURL func() string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: baseURL, client: client}
}

func (t *HTTPTransport) url(path string, q url.Values) string {
	u := strings.TrimRight(t.baseURL(), "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.url(path, q), body)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s %s: %d: %s", method, path, resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return resp, nil
}

func (t *HTTPTransport) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := t.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// Stats fetches ring state and counters.
func (t *HTTPTransport) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := t.getJSON(ctx, "/v1/log/stats", nil, &st)
	return st, err
}

// Records lists live records, optionally filtered by a CEL expression.
func (t *HTTPTransport) Records(ctx context.Context, filter string, limit int) ([]Record, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Records []Record `json:"records"`
	}
	err := t.getJSON(ctx, "/v1/log/records", q, &out)
	return out.Records, err
}

// Read returns raw bytes from offset. limit 0 reads to the end.
func (t *HTTPTransport) Read(ctx context.Context, offset int64, limit int) ([]byte, error) {
	q := url.Values{"offset": {strconv.FormatInt(offset, 10)}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	resp, err := t.do(ctx, http.MethodGet, "/v1/log/read", q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Seek resolves a record position to an absolute offset.
func (t *HTTPTransport) Seek(ctx context.Context, record int, offset int64) (int64, error) {
	q := url.Values{
		"record": {strconv.Itoa(record)},
		"offset": {strconv.FormatInt(offset, 10)},
	}
	var out struct {
		Abs int64 `json:"abs"`
	}
	err := t.getJSON(ctx, "/v1/log/seek", q, &out)
	return out.Abs, err
}

// Write sends data to be assembled into records.
func (t *HTTPTransport) Write(ctx context.Context, data []byte) (WriteResult, error) {
	var wr WriteResult
	resp, err := t.do(ctx, http.MethodPost, "/v1/log/write", nil, bytes.NewReader(data))
	if err != nil {
		return wr, err
	}
	defer resp.Body.Close()
	err = json.NewDecoder(resp.Body).Decode(&wr)
	return wr, err
}

// Tail streams records until ctx is done, the limit is reached, or onRecord
// returns an error.
func (t *HTTPTransport) Tail(ctx context.Context, req TailRequest, onRecord func(Record) error) error {
	q := url.Values{}
	if req.From != "" {
		q.Set("from", req.From)
	}
	if req.Filter != "" {
		q.Set("filter", req.Filter)
	}
	resp, err := t.do(ctx, http.MethodGet, "/v1/log/tail", q, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	n := 0
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &rec); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := onRecord(rec); err != nil {
			if errors.Is(err, ErrStopTail) {
				return nil
			}
			return err
		}
		n++
		if req.Limit > 0 && n >= req.Limit {
			return nil
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Archive lists released records, newest first.
func (t *HTTPTransport) Archive(ctx context.Context, limit int) ([]ArchiveEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Entries []ArchiveEntry `json:"entries"`
	}
	err := t.getJSON(ctx, "/v1/archive", q, &out)
	return out.Entries, err
}
