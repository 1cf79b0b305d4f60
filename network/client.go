// Package network provides a pre-configured HTTP client for polite catalog communication.
package network

import (
	"net/http"
	"time"

	"github.com/kabegame/kabegame/constant"
)

// Client is the singleton HTTP client shared across the application.
// The generous timeout accommodates large archive downloads on slow mirrors.
var Client = &http.Client{
	Timeout:   2 * time.Minute,
	Transport: newTransport(),
}

// newTransport initializes a tuned http.Transport with sensible pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 10
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	return t
}

// Request builds a GET request carrying the fixed crawler headers.
// Every call to the OCS API and to download mirrors goes through it.
func Request(url string) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", constant.Accept)
	return req, nil
}
