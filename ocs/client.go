// Package ocs implements a client for the OpenDesktop OCS content-sharing API.
package ocs

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kabegame/kabegame/log"
	"github.com/kabegame/kabegame/network"
	"github.com/kabegame/kabegame/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// statusOK is the literal success marker the API places in <meta><status>.
const statusOK = "ok"

// StatusError reports a response whose meta status is not the success marker.
// A listing that fails this way is fatal to a crawl; no item can be processed
// without a healthy catalog.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api status %q: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api status %q", e.Status)
}

// Client talks to a single OCS content API instance.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
}

// New returns a Client for the given API base URL using the shared network client.
func New(baseURL string, pageSize int) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		http:     network.Client,
	}
}

// ListContent retrieves every catalog entry of a category in a single page.
// The configured page size is expected to exceed the category's total size.
func (c *Client) ListContent(category int) ([]Summary, error) {
	q := url.Values{}
	q.Set("categories", strconv.Itoa(category))
	q.Set("pagesize", strconv.Itoa(c.pageSize))
	q.Set("page", "0")

	env, err := c.fetch(fmt.Sprintf("%s/content/data?%s", c.baseURL, q.Encode()))
	if err != nil {
		return nil, err
	}

	if env.TotalItems > c.pageSize {
		log.Warnf("catalog reports %d items but page size is %d, listing is truncated", env.TotalItems, c.pageSize)
	}

	return lo.Map(env.Contents, func(p payload, _ int) Summary {
		return p.summary()
	}), nil
}

// ContentByID retrieves the full record of a single content item.
// A response without a <content> element is a legitimate "nothing found"
// outcome and yields None rather than an error.
func (c *Client) ContentByID(id string) (mo.Option[Content], error) {
	env, err := c.fetch(fmt.Sprintf("%s/content/data/%s", c.baseURL, url.PathEscape(id)))
	if err != nil {
		return mo.None[Content](), err
	}

	if len(env.Contents) == 0 {
		return mo.None[Content](), nil
	}

	return mo.Some(env.Contents[0].content()), nil
}

func (c *Client) fetch(rawURL string) (*envelope, error) {
	req, err := network.Request(rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocs request: %w", err)
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ocs request %s: unexpected status %s", rawURL, resp.Status)
	}

	var env envelope
	if err := xml.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode ocs response: %w", err)
	}

	// A missing status field is tolerated; only an explicit non-ok value fails.
	if env.Status != "" && env.Status != statusOK {
		return nil, &StatusError{Status: env.Status, Message: env.Message}
	}

	return &env, nil
}
