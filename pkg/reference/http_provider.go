package reference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPProvider fetches libraries from a web server.  Library "a" is fetched
// with GET <BaseURL>/a<Ext>.
type HTTPProvider struct {
	BaseURL string
	Ext     string
	Timeout time.Duration

	client *fasthttp.Client
}

// NewHTTPProvider constructs an HTTPProvider for the given base URL.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Ext:     DefaultExt,
		Timeout: defaultHTTPTimeout,
		client: &fasthttp.Client{
			Name:                "repl-session",
			MaxIdleConnDuration: 10 * time.Second,
		},
	}
}

// URL returns the location of the named library.
func (p *HTTPProvider) URL(name string) string {
	return p.BaseURL + "/" + name + p.Ext
}

// Fetch implements Provider.
func (p *HTTPProvider) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	url := p.URL(name)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = p.client.DoDeadline(req, resp, deadline)
	} else {
		err = p.client.DoTimeout(req, resp, p.Timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode() == fasthttp.StatusNotFound {
		return nil, fmt.Errorf("GET %s: unexpected status %d: %w", url, resp.StatusCode(), os.ErrNotExist)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode())
	}

	// the response body is owned by resp, which is released on return
	data := append([]byte(nil), resp.Body()...)
	return io.NopCloser(bytes.NewReader(data)), nil
}
