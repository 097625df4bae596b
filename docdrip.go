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

// Package docdrip converts uploaded documents to normalized markdown.
//
// The package is organized as a pipeline: DetectFormat classifies raw
// bytes, Engine.Validate runs structural checks, and Engine.Process
// dispatches to a format-specific DocumentConverter and assembles the
// markdown plus metadata into a Result.
package docdrip

import (
	"sort"
)

// DefaultMaxFileSize is the upload size cap applied when no explicit
// limit is configured (10 MiB).
const DefaultMaxFileSize = 10 << 20

// Engine holds the converter registry and conversion policy. A single
// Engine is safe for concurrent use; it carries no per-request state.
type Engine struct {
	converters   map[Format]DocumentConverter
	maxFileSize  int64
	keepDataURIs bool
}

// New creates an Engine with all built-in converters registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		converters:  make(map[Format]DocumentConverter),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registerBuiltins()
	return e
}

// Register installs (or replaces) the converter for a format.
func (e *Engine) Register(f Format, c DocumentConverter) {
	e.converters[f] = c
}

// MaxFileSize returns the configured upload size limit in bytes.
func (e *Engine) MaxFileSize() int64 { return e.maxFileSize }

// SupportedFormats lists the formats with a registered converter,
// sorted for stable output.
func (e *Engine) SupportedFormats() []Format {
	formats := make([]Format, 0, len(e.converters))
	for f := range e.converters {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// SupportedExtensions lists the filename extensions that map to a
// registered converter, sorted.
func (e *Engine) SupportedExtensions() []string {
	var exts []string
	for ext, f := range extensionFormats {
		if _, ok := e.converters[f]; ok {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

func (e *Engine) registerBuiltins() {
	e.Register(FormatCSV, NewCsvConverter())
	e.Register(FormatFeed, NewFeedConverter(e))
	e.Register(FormatIpynb, NewIpynbConverter())
	e.Register(FormatDocx, NewDocxConverter(e))
	e.Register(FormatXlsx, NewXlsxConverter())
	e.Register(FormatXls, NewXlsConverter())
	e.Register(FormatPptx, NewPptxConverter())
	e.Register(FormatPDF, NewPdfConverter())
	e.Register(FormatEpub, NewEpubConverter(e))
	e.Register(FormatHTML, NewHTMLConverter(e))
	e.Register(FormatZip, NewZipConverter(e))
	e.Register(FormatText, NewPlainTextConverter())
}
