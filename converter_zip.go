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
	"errors"
	"fmt"
	"io"
	"strings"
)

// ZipConverter handles generic zip archives by converting each entry
// through the engine's registry and concatenating the sections.
// Nested archives and unrecognized entries are skipped with warnings.
type ZipConverter struct {
	engine *Engine
}

// NewZipConverter creates a new ZipConverter.
func NewZipConverter(e *Engine) *ZipConverter {
	return &ZipConverter{engine: e}
}

func (c *ZipConverter) Validate(data []byte, info SourceInfo) error {
	if _, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		return errors.New("not a valid zip archive")
	}
	return nil
}

func (c *ZipConverter) Convert(ctx context.Context, data []byte, info SourceInfo) (*ConversionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}

	archiveName := info.Filename
	if archiveName == "" {
		archiveName = "archive"
	}

	res := &ConversionResult{}
	var md strings.Builder
	fmt.Fprintf(&md, "Contents of `%s`:\n\n", archiveName)

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entryData, err := readZipEntry(f)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("entry %q could not be read", f.Name))
			continue
		}

		format := DetectFormat(entryData, f.Name)
		if format == FormatZip {
			res.Warnings = append(res.Warnings, fmt.Sprintf("nested archive %q skipped", f.Name))
			continue
		}

		conv, ok := c.engine.converters[format]
		if format == FormatUnknown || !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("entry %q has unsupported format", f.Name))
			continue
		}

		entryRes, err := conv.Convert(ctx, entryData, sourceInfoFor(format, f.Name))
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("entry %q failed to convert", f.Name))
			continue
		}

		fmt.Fprintf(&md, "## %s\n\n", f.Name)
		md.WriteString(entryRes.Markdown)
		md.WriteString("\n\n")
		res.Warnings = append(res.Warnings, entryRes.Warnings...)
	}

	res.Markdown = md.String()
	return res, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
