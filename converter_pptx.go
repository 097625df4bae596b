// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package docdrip

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/docdrip/docdrip/internal/ooxml"
)

// PptxConverter handles PPTX files, emitting one section per slide
// with the slide's text paragraphs. Media and speaker notes are not
// carried over.
type PptxConverter struct{}

// NewPptxConverter creates a new PptxConverter.
func NewPptxConverter() *PptxConverter {
	return &PptxConverter{}
}

func (c *PptxConverter) Validate(data []byte, info SourceInfo) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.New("not a valid zip container")
	}
	if !ooxml.HasFile(zr, "ppt/presentation.xml") {
		return errors.New("missing ppt/presentation.xml part")
	}
	return nil
}

func (c *PptxConverter) Convert(ctx context.Context, data []byte, info SourceInfo) (*ConversionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PPTX container: %w", err)
	}

	res := &ConversionResult{}
	var md strings.Builder

	for _, num := range slideNumbers(zr) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := fmt.Sprintf("ppt/slides/slide%d.xml", num)
		slideData, err := ooxml.ReadFile(zr, name)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("slide %d could not be read", num))
			continue
		}

		fmt.Fprintf(&md, "## Slide %d\n\n", num)
		for _, para := range slideParagraphs(slideData) {
			md.WriteString(para)
			md.WriteString("\n\n")
		}
	}

	if hasMedia(zr) {
		res.Warnings = append(res.Warnings, "embedded media was omitted")
	}

	res.Markdown = md.String()
	return res, nil
}

// slideNumbers lists slide indices present in the archive, ascending.
func slideNumbers(zr *zip.Reader) []int {
	var nums []int
	for _, f := range zr.File {
		var n int
		if _, err := fmt.Sscanf(f.Name, "ppt/slides/slide%d.xml", &n); err == nil {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums
}

// slideParagraphs extracts the text paragraphs (a:p elements joined
// from their a:t runs) of one slide, in document order.
func slideParagraphs(slideData []byte) []string {
	decoder := xml.NewDecoder(bytes.NewReader(slideData))

	var (
		paras   []string
		current strings.Builder
		textBuf strings.Builder
		inPara  bool
		inText  bool
	)

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = true
				textBuf.Reset()
			}

		case xml.CharData:
			if inText {
				textBuf.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				if inText && inPara {
					current.WriteString(textBuf.String())
				}
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					paras = append(paras, text)
				}
				inPara = false
			}
		}
	}

	return paras
}

func hasMedia(zr *zip.Reader) bool {
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/media/") {
			return true
		}
	}
	return false
}
