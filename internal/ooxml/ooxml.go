// Package ooxml holds the small amount of zip-and-relationships
// plumbing shared by the OOXML-family converters (DOCX, PPTX, EPUB).
package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// Relationship is one entry of an OOXML .rels part.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Relationships []Relationship `xml:"Relationship"`
}

// Relationships parses a .rels part from the archive, keyed by
// relationship ID. A missing part yields an empty map, not an error.
func Relationships(zr *zip.Reader, relsPath string) (map[string]Relationship, error) {
	f := find(zr, relsPath)
	if f == nil {
		return map[string]Relationship{}, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var rels relationships
	if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
		return nil, fmt.Errorf("decode relationships: %w", err)
	}

	out := make(map[string]Relationship, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		out[rel.ID] = rel
	}
	return out, nil
}

// ReadFile reads a single named part out of the archive.
func ReadFile(zr *zip.Reader, name string) ([]byte, error) {
	f := find(zr, name)
	if f == nil {
		return nil, fmt.Errorf("part %q not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// HasFile reports whether the archive contains the named part.
func HasFile(zr *zip.Reader, name string) bool {
	return find(zr, name) != nil
}

// ResolveTarget resolves a relationship target relative to the part
// that declared it.
func ResolveTarget(basePath, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(basePath), target)
}

func find(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}
