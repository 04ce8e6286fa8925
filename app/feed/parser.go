package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// rssDateLayout is the RFC-822 style pubDate format podcast feeds use,
// e.g. "Mon, 02 Jan 2024 15:04:05 +0000".
const rssDateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses a feed document. Field-level faults (bad dates, unparseable
// enclosure lengths, missing optional elements) degrade to zero values; only
// a malformed document as a whole returns an error.
func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       strings.TrimSpace(parsed.Title),
		Description: strings.TrimSpace(parsed.Description),
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		items = append(items, p.normalizeItem(item))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		Duration:    p.itunesField(item, "duration"),
	}

	if normalized.Description == "" {
		normalized.Description = p.itunesField(item, "summary")
	}

	normalized.PublishedAt = p.parsePublished(item)

	// Extract first enclosure if available (RSS 2.0 spec allows only one per item)
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		enclosure := item.Enclosures[0]
		normalized.EnclosureURL = enclosure.URL

		if enclosure.Length != "" {
			if length, err := strconv.ParseInt(enclosure.Length, 10, 64); err == nil {
				normalized.EnclosureLength = &length
			} else {
				slog.Warn("Failed to parse enclosure length", "value", enclosure.Length)
			}
		}
	}

	return normalized
}

// itunesField looks up an itunes-namespace child. gofeed folds both known
// itunes namespace URIs (the DTDs and dtds variants) onto the "itunes"
// extension prefix; the typed extension is preferred, the raw extension map
// covers documents gofeed does not promote.
func (p *Parser) itunesField(item *gofeed.Item, field string) string {
	if item.ITunesExt != nil {
		switch field {
		case "duration":
			if item.ITunesExt.Duration != "" {
				return strings.TrimSpace(item.ITunesExt.Duration)
			}
		case "summary":
			if item.ITunesExt.Summary != "" {
				return strings.TrimSpace(item.ITunesExt.Summary)
			}
		}
	}

	if extensions, ok := item.Extensions["itunes"]; ok {
		if values, ok := extensions[field]; ok && len(values) > 0 {
			return strings.TrimSpace(values[0].Value)
		}
	}

	return ""
}

func (p *Parser) parsePublished(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		t := *item.PublishedParsed
		return &t
	}

	if item.Published != "" {
		if t, err := time.Parse(rssDateLayout, strings.TrimSpace(item.Published)); err == nil {
			return &t
		}
		slog.Warn("Failed to parse publish date", "value", item.Published)
	}

	return nil
}
