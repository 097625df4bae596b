package docdrip

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/docdrip/docdrip/internal/ooxml"
)

// EpubConverter handles EPUB books: OPF metadata first, then the spine
// documents rendered in reading order.
type EpubConverter struct {
	engine *Engine
}

// NewEpubConverter creates a new EpubConverter.
func NewEpubConverter(e *Engine) *EpubConverter {
	return &EpubConverter{engine: e}
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

func (c *EpubConverter) Validate(data []byte, info SourceInfo) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.New("not a valid zip container")
	}
	if !ooxml.HasFile(zr, "META-INF/container.xml") {
		return errors.New("missing META-INF/container.xml")
	}
	return nil
}

func (c *EpubConverter) Convert(ctx context.Context, data []byte, info SourceInfo) (*ConversionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open EPUB container: %w", err)
	}

	opfPath, err := c.findOPFPath(zr)
	if err != nil {
		return nil, err
	}

	pkg, err := c.parseOPF(zr, opfPath)
	if err != nil {
		return nil, err
	}

	res := &ConversionResult{Title: pkg.title}
	var md strings.Builder

	if pkg.title != "" {
		fmt.Fprintf(&md, "# %s\n\n", pkg.title)
	}
	if pkg.creator != "" {
		fmt.Fprintf(&md, "By %s\n\n", pkg.creator)
	}

	for _, href := range pkg.spine {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		docPath := ooxml.ResolveTarget(opfPath, href)
		docData, err := ooxml.ReadFile(zr, docPath)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("spine document %q missing", href))
			continue
		}

		section, err := NewHTMLConverter(c.engine).ConvertString(string(docData))
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("spine document %q could not be rendered", href))
			continue
		}
		md.WriteString(section.Markdown)
		md.WriteString("\n\n")
	}

	res.Markdown = md.String()
	return res, nil
}

func (c *EpubConverter) findOPFPath(zr *zip.Reader) (string, error) {
	data, err := ooxml.ReadFile(zr, "META-INF/container.xml")
	if err != nil {
		return "", fmt.Errorf("read container.xml: %w", err)
	}

	var container epubContainer
	if err := xml.Unmarshal(data, &container); err != nil {
		return "", fmt.Errorf("parse container.xml: %w", err)
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return "", errors.New("container.xml declares no rootfile")
	}
	return container.Rootfiles[0].FullPath, nil
}

// opfInfo is the flattened view of the OPF package document.
type opfInfo struct {
	title   string
	creator string
	spine   []string // hrefs in reading order
}

func (c *EpubConverter) parseOPF(zr *zip.Reader, opfPath string) (*opfInfo, error) {
	data, err := ooxml.ReadFile(zr, opfPath)
	if err != nil {
		return nil, fmt.Errorf("read OPF: %w", err)
	}

	// Stream-parse: OPF uses Dublin Core namespaces that do not map
	// cleanly onto struct tags.
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		info      opfInfo
		hrefByID  = map[string]string{}
		idrefs    []string
		inTitle   bool
		inCreator bool
	)

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "title":
				inTitle = true
			case "creator":
				inCreator = true
			case "item":
				var id, href string
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "id":
						id = attr.Value
					case "href":
						href = attr.Value
					}
				}
				if id != "" {
					hrefByID[id] = href
				}
			case "itemref":
				for _, attr := range t.Attr {
					if attr.Name.Local == "idref" {
						idrefs = append(idrefs, attr.Value)
					}
				}
			}

		case xml.CharData:
			if inTitle && info.title == "" {
				info.title = strings.TrimSpace(string(t))
			}
			if inCreator && info.creator == "" {
				info.creator = strings.TrimSpace(string(t))
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "title":
				inTitle = false
			case "creator":
				inCreator = false
			}
		}
	}

	for _, idref := range idrefs {
		if href, ok := hrefByID[idref]; ok && href != "" {
			info.spine = append(info.spine, href)
		}
	}

	return &info, nil
}
