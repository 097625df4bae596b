package docdrip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// FeedConverter handles RSS and Atom feeds (and generic XML that
// parses as a feed): feed title as H1, one H2 section per item with
// its publication date and content.
type FeedConverter struct {
	engine *Engine
}

// NewFeedConverter creates a new FeedConverter.
func NewFeedConverter(e *Engine) *FeedConverter {
	return &FeedConverter{engine: e}
}

func (c *FeedConverter) Validate(data []byte, info SourceInfo) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return errors.New("content does not look like XML")
	}
	return nil
}

func (c *FeedConverter) Convert(ctx context.Context, data []byte, info SourceInfo) (*ConversionResult, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	res := &ConversionResult{Title: feed.Title}
	var b strings.Builder

	if feed.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", feed.Title)
	}
	if feed.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", feed.Description)
	}

	for _, item := range feed.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if item.Title != "" {
			fmt.Fprintf(&b, "## %s\n\n", item.Title)
		}
		if item.Published != "" {
			fmt.Fprintf(&b, "Published: %s\n\n", item.Published)
		} else if item.Updated != "" {
			fmt.Fprintf(&b, "Updated: %s\n\n", item.Updated)
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content != "" {
			if strings.Contains(content, "<") && strings.Contains(content, ">") {
				if md, err := htmlToMarkdown(content); err == nil {
					content = md
				} else {
					res.Warnings = append(res.Warnings, "item content could not be rendered from HTML")
				}
			}
			b.WriteString(content)
			b.WriteString("\n\n")
		}
	}

	res.Markdown = b.String()
	return res, nil
}
