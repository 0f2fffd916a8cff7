// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "encoding/json"

// Answer is the text produced by a completed run plus its ordered
// annotation list. Annotation order defines citation numbering: the
// visible labels are 1-based and follow order of first appearance.
type Answer struct {
	Text        string
	Annotations []Annotation
}

// Annotation is one marker inside generated text. Text is the exact
// substring of Answer.Text the marker occupies. FileID is set only for
// file-citation annotations; other kinds carry an empty FileID and are
// skipped by the extractor, leaving their marker text visible verbatim.
type Annotation struct {
	Type   string
	Text   string
	FileID string
}

// Citation is an extracted, resolved document citation.
//
// # Fields
//
//   - Index: 0-based position in the answer's annotation list. The
//     rendered label is Index+1.
//   - MarkerText: the marker substring to replace in the answer text.
//   - Filename: display name of the cited source document, resolved
//     from the assistant service's file metadata.
type Citation struct {
	Index      int
	MarkerText string
	Filename   string
}

// rawAnnotation mirrors the assistant service's annotation payload. The
// client library surfaces annotations untyped, so they are decoded here
// through a JSON round trip.
type rawAnnotation struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	FileCitation *struct {
		FileID string `json:"file_id"`
	} `json:"file_citation,omitempty"`
}

// DecodeAnnotations converts the untyped annotation values returned by
// the assistant client into typed Annotations, preserving order. Values
// that do not decode are kept as annotations with an empty FileID so
// indexing stays aligned with the service's annotation list.
func DecodeAnnotations(raw []any) []Annotation {
	if len(raw) == 0 {
		return nil
	}
	out := make([]Annotation, 0, len(raw))
	for _, item := range raw {
		var ann Annotation
		if b, err := json.Marshal(item); err == nil {
			var ra rawAnnotation
			if err := json.Unmarshal(b, &ra); err == nil {
				ann.Type = ra.Type
				ann.Text = ra.Text
				if ra.FileCitation != nil {
					ann.FileID = ra.FileCitation.FileID
				}
			}
		}
		out = append(out, ann)
	}
	return out
}
