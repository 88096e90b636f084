// Package notion provides a sink.Sink backed by the Notion REST API. Every
// delivery creates one page in the configured database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"leadintake/pkg/domain"
	"leadintake/pkg/logger"
	"leadintake/pkg/serrors"
	"leadintake/pkg/sink"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public Notion API endpoint.
	DefaultBaseURL = "https://api.notion.com"
	// DefaultVersion is the Notion-Version header sent with every request.
	DefaultVersion = "2022-06-28"
	// DefaultTitleProperty is the title column of a freshly created database.
	DefaultTitleProperty = "Name"
	// UntitledPlaceholder is used as page title when the submitted name is blank.
	UntitledPlaceholder = "Untitled"
)

// Options configure the target database and how submission fields map onto
// its properties. Empty optional property names are not sent.
type Options struct {
	// Secret is the integration token sent as bearer token.
	Secret string
	// DatabaseID identifies the database the pages are created in.
	DatabaseID string
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// Version overrides DefaultVersion.
	Version string
	// TitleProperty is the title property receiving the submitter's name.
	TitleProperty string
	// EmailProperty is an optional property of type email.
	EmailProperty string
	// CompanyProperty is an optional property of type rich_text.
	CompanyProperty string
	// ProfileProperty is an optional property of type rich_text.
	ProfileProperty string
}

// Client talks to the Notion REST API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	options    Options
}

// Ensure Client conforms to the sink.Sink interface at compile time.
var _ sink.Sink = (*Client)(nil)

// New constructs a Client using httpClient for all requests. Defaults are
// applied to empty BaseURL, Version and TitleProperty.
func New(httpClient *http.Client, options Options) *Client {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}
	if options.Version == "" {
		options.Version = DefaultVersion
	}
	if options.TitleProperty == "" {
		options.TitleProperty = DefaultTitleProperty
	}

	return &Client{
		httpClient: httpClient,
		options:    options,
	}
}

// Name returns the sink label.
func (c *Client) Name() string {
	return sink.Notion
}

type text struct {
	Content string `json:"content"`
}

type richText struct {
	Text text `json:"text"`
}

func titleValue(s string) map[string]any {
	return map[string]any{"title": []richText{{Text: text{Content: s}}}}
}

func richTextValue(s string) map[string]any {
	return map[string]any{"rich_text": []richText{{Text: text{Content: s}}}}
}

// Properties maps sub onto the page properties of the target database.
func (c *Client) Properties(sub domain.Submission) map[string]any {
	title := strings.TrimSpace(sub.Name)
	if title == "" {
		title = UntitledPlaceholder
	}

	props := map[string]any{
		c.options.TitleProperty: titleValue(title),
	}
	if c.options.EmailProperty != "" && sub.Email != "" {
		props[c.options.EmailProperty] = map[string]any{"email": sub.Email}
	}
	if c.options.CompanyProperty != "" && sub.Company != "" {
		props[c.options.CompanyProperty] = richTextValue(sub.Company)
	}
	if c.options.ProfileProperty != "" && sub.Profile != "" {
		props[c.options.ProfileProperty] = richTextValue(sub.Profile)
	}

	return props
}

// Deliver creates a page for sub and returns the id of the created page.
func (c *Client) Deliver(ctx context.Context, sub domain.Submission) (string, error) {
	// https://developers.notion.com/reference/post-page
	if c.options.Secret == "" || c.options.DatabaseID == "" {
		return "", serrors.With(serrors.ErrConfiguration, "notion secret or database id is not configured")
	}

	type parent struct {
		DatabaseID string `json:"database_id"`
	}
	type createPageReq struct {
		Parent     parent         `json:"parent"`
		Properties map[string]any `json:"properties"`
	}
	bodyBytes, err := json.Marshal(createPageReq{
		Parent:     parent{DatabaseID: c.options.DatabaseID},
		Properties: c.Properties(sub),
	})
	if err != nil {
		return "", fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		strings.TrimRight(c.options.BaseURL, "/")+"/v1/pages",
		bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.options.Secret)
	req.Header.Set("Notion-Version", c.options.Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrDelivery, err, "could not send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrDelivery, err, "could not read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", serrors.With(serrors.ErrDelivery,
			"notion responded with status %d: %s", resp.StatusCode, string(b))
	}

	// successful; the page exists even when the body cannot be decoded
	var page struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		logger.Warn(ctx, "could not decode notion response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(b)),
			zap.Error(err))

		return "", nil
	}

	return page.ID, nil
}
