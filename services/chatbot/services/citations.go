// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
	"github.com/naisha196/fasttrack-chatbot/services/chatbot/observability"
)

// ExtractCitations walks the answer's annotation list in order and
// resolves every file-citation annotation to its source filename via the
// assistant service's file metadata endpoint.
//
// Annotations without a file citation are skipped: they produce no
// source card and their marker text stays visible verbatim in the final
// output. A failed file lookup degrades the same way: the citation is
// dropped with a warning rather than failing the whole request.
//
// The Index of each returned citation is its 0-based position in the
// annotation list, which fixes the 1-based visible numbering.
func (s *ChatService) ExtractCitations(ctx context.Context, answer *datatypes.Answer) []datatypes.Citation {
	ctx, span := chatTracer.Start(ctx, "ChatService.ExtractCitations")
	defer span.End()

	var citations []datatypes.Citation
	for i, ann := range answer.Annotations {
		if ann.FileID == "" {
			continue
		}
		file, err := s.api.GetFile(ctx, ann.FileID)
		if err != nil {
			slog.Warn("Failed to resolve cited file, skipping citation",
				"index", i, "fileId", ann.FileID, "error", err)
			if observability.DefaultMetrics != nil {
				observability.DefaultMetrics.RecordCitationError()
			}
			continue
		}
		citations = append(citations, datatypes.Citation{
			Index:      i,
			MarkerText: ann.Text,
			Filename:   file.FileName,
		})
	}

	span.SetAttributes(
		attribute.Int("annotations.count", len(answer.Annotations)),
		attribute.Int("citations.count", len(citations)),
	)
	return citations
}
