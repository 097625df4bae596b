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

import "context"

// SourceInfo holds what is known about an upload before conversion.
type SourceInfo struct {
	Format    Format
	Filename  string
	Extension string
	MIMEType  string
	Charset   string
}

// ConversionResult holds the output of a single converter.
//
// Markdown is always valid UTF-8 and never nil, even for documents that
// turn out to be empty. Warnings records constructs the converter could
// not represent (embedded images, math, unreadable archive entries);
// they surface in response metadata, never as fatal errors.
type ConversionResult struct {
	Markdown string
	Title    string
	Warnings []string
}

// DocumentConverter is implemented once per supported format and
// registered with an Engine under its Format key.
type DocumentConverter interface {
	// Validate performs a structural sanity check (magic bytes,
	// container layout) without fully parsing the document. It must be
	// side-effect free so it can serve standalone validation requests.
	Validate(data []byte, info SourceInfo) error

	// Convert transforms the document into markdown. It should honor
	// ctx cancellation between expensive steps.
	Convert(ctx context.Context, data []byte, info SourceInfo) (*ConversionResult, error)
}
