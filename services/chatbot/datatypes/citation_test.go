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

import "testing"

func TestDecodeAnnotations(t *testing.T) {
	raw := []any{
		map[string]any{
			"type": "file_citation",
			"text": "【4:0†source】",
			"file_citation": map[string]any{
				"file_id": "file-1",
			},
		},
		map[string]any{
			"type": "file_path",
			"text": "【4:1†path】",
		},
	}

	anns := DecodeAnnotations(raw)

	if len(anns) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(anns))
	}
	if anns[0].Type != "file_citation" || anns[0].Text != "【4:0†source】" || anns[0].FileID != "file-1" {
		t.Errorf("annotation 0 wrong: %+v", anns[0])
	}
	if anns[1].FileID != "" {
		t.Errorf("non-citation annotation should carry no file id: %+v", anns[1])
	}
}

func TestDecodeAnnotationsEmpty(t *testing.T) {
	if got := DecodeAnnotations(nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestDecodeAnnotationsKeepsMalformedEntriesInPlace(t *testing.T) {
	// A value that does not decode must still occupy its slot so indices
	// stay aligned with the service's annotation list.
	raw := []any{
		"garbage",
		map[string]any{
			"type": "file_citation",
			"text": "【4:1†b】",
			"file_citation": map[string]any{
				"file_id": "file-2",
			},
		},
	}

	anns := DecodeAnnotations(raw)

	if len(anns) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(anns))
	}
	if anns[0].FileID != "" {
		t.Errorf("malformed entry should decode to empty annotation: %+v", anns[0])
	}
	if anns[1].FileID != "file-2" {
		t.Errorf("well-formed entry displaced: %+v", anns[1])
	}
}
