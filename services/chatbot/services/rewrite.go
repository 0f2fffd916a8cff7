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
	"fmt"
	"net/url"
	"strings"

	"github.com/naisha196/fasttrack-chatbot/services/chatbot/datatypes"
)

// The rewriter emits a fixed HTML contract consumed by the static viewer
// page: an inline superscript reference per citation and one source card
// per citation, collected under a single sources container. The
// openDocument handler on the client opens the pdf.js viewer seeded with
// the search phrase for in-document highlight.

// citationPlaceholder formats the intermediate marker token for one
// citation index.
func citationPlaceholder(index int) string {
	return fmt.Sprintf("%%%%CITATION_%d%%%%", index)
}

// RewriteAnswer replaces each citation's marker text with an inline
// reference element and builds one source card per citation.
//
// Replacement is two-phase to keep it exhaustive and order-preserving:
// first, in index order, the first remaining occurrence of each marker
// becomes a placeholder token; then every placeholder becomes its final
// HTML. Markers are never matched against already-inserted markup, and
// colliding marker substrings resolve deterministically by index.
//
// Citations sharing a filename produce distinct inline references and
// distinct cards (no deduplication). The phrase for each citation comes
// from the phrases map keyed by filename; a missing or empty phrase
// leaves the reference working without auto-highlight.
func RewriteAnswer(text string, citations []datatypes.Citation, phrases map[string]string) (string, []string) {
	for _, c := range citations {
		text = strings.Replace(text, c.MarkerText, citationPlaceholder(c.Index), 1)
	}

	cards := make([]string, 0, len(citations))
	for _, c := range citations {
		viewer := viewerURL(c.Filename)
		name := cleanFilename(c.Filename)
		phrase := escapePhrase(phrases[c.Filename])
		label := c.Index + 1

		ref := fmt.Sprintf(
			` <sup class='citation-ref'><a href='#' onclick="openDocument('%s', '%s', '%s'); return false;" style='color:#007bff; text-decoration:none; font-weight:bold;'>[%d]</a></sup>`,
			viewer, name, phrase, label)
		text = strings.Replace(text, citationPlaceholder(c.Index), ref, 1)

		card := fmt.Sprintf(
			`<div class='citation-card' style='margin-top:8px; padding:10px; background:#f0f8ff; border:1px solid #cce5ff; border-radius:6px;'>`+
				`<strong style='color:#0056b3;'>[%d] %s</strong><br>`+
				`<button onclick="openDocument('%s', '%s', '%s')" `+
				`style='margin-top:5px; background:#007bff; color:white; border:none; padding:6px 12px; border-radius:4px; cursor:pointer; font-size:13px;'>`+
				`View &amp; Highlight`+
				`</button>`+
				`</div>`,
			label, name, viewer, name, phrase)
		cards = append(cards, card)
	}

	return text, cards
}

// RenderSourcesBlock wraps the source cards in the single appended
// sources container. Callers must skip it when no cards exist.
func RenderSourcesBlock(cards []string) string {
	return "<br><br><div class='sources-container'><strong>Sources:</strong>" +
		strings.Join(cards, "") +
		"</div>"
}

// viewerURL builds the pdf.js viewer locator for a source document. The
// filename is escaped with encodeURIComponent semantics: the viewer
// decodes the file parameter with decodeURIComponent, which leaves a
// literal "+" intact, so spaces must be "%20" rather than "+".
func viewerURL(filename string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(filename), "+", "%20")
	return "/static/pdfjs-5/web/viewer.html?file=/data_files/" + escaped
}

// cleanFilename strips quote characters from a display name so it cannot
// break out of the quoted attribute context it is embedded in.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(name, "'", "")
	return strings.ReplaceAll(name, `"`, "")
}

// escapePhrase neutralizes the phrase for the JS-string-in-attribute
// context of the openDocument call: backslashes doubled, single quotes
// backslash-escaped, double quotes entity-escaped. The client unescapes
// back to the intended phrase when the handler runs.
func escapePhrase(phrase string) string {
	phrase = strings.ReplaceAll(phrase, `\`, `\\`)
	phrase = strings.ReplaceAll(phrase, "'", `\'`)
	return strings.ReplaceAll(phrase, `"`, "&quot;")
}
