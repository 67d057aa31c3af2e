// Package convert calls out to the PDF conversion collaborator. Conversion
// happens storage-side: the converter reads the Word artifact from the
// shared container and writes the PDF next to it.
package convert

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Converter turns a stored Word artifact into a PDF artifact.
type Converter interface {
	// Convert asks for wordKey to be rendered into pdfKey within the
	// named containers. It returns once the converter acknowledges the
	// request.
	Convert(ctx context.Context, req Request) error
}

// Request addresses the input and output artifacts of one conversion.
type Request struct {
	WordKey         string `json:"word_blob_key"`
	WordContainer   string `json:"word_container"`
	OutputContainer string `json:"output_container"`
	PDFKey          string `json:"pdf_blob_key"`
}

// HTTPConverter posts conversion requests to a converter function
// endpoint.
type HTTPConverter struct {
	client      *resty.Client
	endpoint    string
	functionKey string
}

// Option configures an HTTPConverter.
type Option func(*HTTPConverter)

// WithFunctionKey attaches a function access key as the code query
// parameter.
func WithFunctionKey(key string) Option {
	return func(c *HTTPConverter) { c.functionKey = key }
}

// WithTimeout bounds each conversion request.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPConverter) { c.client.SetTimeout(d) }
}

// NewHTTPConverter creates a converter targeting endpoint.
func NewHTTPConverter(endpoint string, opts ...Option) *HTTPConverter {
	c := &HTTPConverter{
		client:   resty.New().SetTimeout(2 * time.Minute),
		endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert posts the request and treats any non-2xx response as failure.
func (c *HTTPConverter) Convert(ctx context.Context, req Request) error {
	r := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req)
	if c.functionKey != "" {
		r.SetQueryParam("code", c.functionKey)
	}
	resp, err := r.Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("conversion request failed: %w", err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("converter returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
