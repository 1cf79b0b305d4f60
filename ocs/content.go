// Package ocs implements a client for the OpenDesktop OCS content-sharing API.
package ocs

import (
	"encoding/xml"
	"fmt"
)

// MaxDownloadLinks is the number of download slots the API exposes per content
// item. Fields are enumerated downloadlink1..downloadlink9; the protocol has
// no way to express more, so anything beyond is truncated by construction.
const MaxDownloadLinks = 9

// Summary is one catalog entry as reported by the listing endpoint.
type Summary struct {
	ID          string
	Name        string
	Version     string
	AuthorID    string
	Description string
	// DownloadLink is the first numbered download link from the listing
	// response. It may be empty; the detail endpoint is authoritative.
	DownloadLink string
}

// Download is one numbered download slot of a content item.
type Download struct {
	URL  string
	Name string
}

// Content is the full record returned by the detail endpoint,
// a superset of Summary carrying every populated download slot.
type Content struct {
	ID          string
	Name        string
	Version     string
	AuthorID    string
	Description string
	Downloads   []Download
}

// envelope mirrors the outer <ocs> document returned by both endpoints.
type envelope struct {
	XMLName    xml.Name  `xml:"ocs"`
	Status     string    `xml:"meta>status"`
	Message    string    `xml:"meta>message"`
	TotalItems int       `xml:"meta>totalitems"`
	Contents   []payload `xml:"data>content"`
}

// payload is a schema-tolerant view of a <content> element. The API's field
// set varies between endpoints, so children are collected generically and
// looked up by element name; an absent field reads as the empty string.
type payload struct {
	Fields []payloadField `xml:",any"`
}

type payloadField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

func (p payload) text(name string) string {
	for _, f := range p.Fields {
		if f.XMLName.Local == name {
			return f.Value
		}
	}
	return ""
}

func (p payload) summary() Summary {
	return Summary{
		ID:           p.text("id"),
		Name:         p.text("name"),
		Version:      p.text("version"),
		AuthorID:     p.text("personid"),
		Description:  p.text("description"),
		DownloadLink: p.text("downloadlink1"),
	}
}

func (p payload) content() Content {
	c := Content{
		ID:          p.text("id"),
		Name:        p.text("name"),
		Version:     p.text("version"),
		AuthorID:    p.text("personid"),
		Description: p.text("description"),
	}

	for i := 1; i <= MaxDownloadLinks; i++ {
		link := p.text(fmt.Sprintf("downloadlink%d", i))
		if link == "" {
			continue
		}

		name := p.text(fmt.Sprintf("downloadname%d", i))
		if name == "" {
			name = fmt.Sprintf("file%d", i)
		}

		c.Downloads = append(c.Downloads, Download{URL: link, Name: name})
	}

	return c
}
