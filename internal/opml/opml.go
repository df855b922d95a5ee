// ABOUTME: Minimal OPML subscription-list reader
// ABOUTME: Extracts feed URLs, including nested folder outlines, for tailing

package opml

import (
	"encoding/xml"
	"fmt"
	"os"
)

type opmlXML struct {
	XMLName xml.Name `xml:"opml"`
	Body    bodyXML  `xml:"body"`
}

type bodyXML struct {
	Outlines []outlineXML `xml:"outline"`
}

type outlineXML struct {
	Type     string       `xml:"type,attr"`
	XMLURL   string       `xml:"xmlUrl,attr"`
	Children []outlineXML `xml:"outline"`
}

// FeedURLs reads an OPML file and returns every feed URL it contains, in
// document order, descending into folder outlines.
func FeedURLs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OPML file: %w", err)
	}

	var doc opmlXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML file %s: %w", path, err)
	}

	var urls []string
	var walk func(outlines []outlineXML)
	walk = func(outlines []outlineXML) {
		for _, o := range outlines {
			if o.XMLURL != "" {
				urls = append(urls, o.XMLURL)
			}
			walk(o.Children)
		}
	}
	walk(doc.Body.Outlines)
	return urls, nil
}
