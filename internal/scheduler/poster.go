package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hedgepy/broker/internal/resource"
	"github.com/hedgepy/broker/internal/wire"
)

// postBody is the wire shape spec.md §4.8's POST / expects: {vendor,
// endpoint, params}. Resource, if present, is the encoded
// <ClassName>$<handle> string, not the live resource.Resource value.
type postBody struct {
	Vendor   string    `json:"vendor"`
	Endpoint string    `json:"endpoint"`
	Params   postParams `json:"params"`
}

type postParams struct {
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Resource   string `json:"resource,omitempty"`
}

// HTTPPoster posts Requests to the broker's own front-end, the production
// Poster spec.md §4.6 describes ("in production an *http.Client against
// the broker's own POST /").
type HTTPPoster struct {
	client *http.Client
	url    string
}

// NewHTTPPoster targets url (the broker's own POST / endpoint) with the
// given client.
func NewHTTPPoster(client *http.Client, url string) *HTTPPoster {
	return &HTTPPoster{client: client, url: url}
}

func (p *HTTPPoster) Post(ctx context.Context, req wire.Request) error {
	body := postBody{
		Vendor:   req.Vendor,
		Endpoint: req.Endpoint,
		Params: postParams{
			Start:      wire.DtToStr(req.Params.Start, wire.TimestampLayout),
			End:        wire.DtToStr(req.Params.End, wire.TimestampLayout),
			Resolution: wire.TdToStr(req.Params.Resolution),
		},
	}
	if req.Params.Resource != nil {
		if r, ok := req.Params.Resource.(resource.Resource); ok {
			body.Params.Resource = resource.Encode(r)
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("scheduler: encode post body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("scheduler: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("scheduler: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("scheduler: post returned status %d", resp.StatusCode)
	}
	return nil
}

// defaultTimeout matches the teacher's monitoring/callbacks clients,
// which all bound their *http.Client at construction rather than per
// request.
const defaultTimeout = 10 * time.Second

// NewDefaultClient builds the *http.Client HTTPPoster is typically
// constructed with in production.
func NewDefaultClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
