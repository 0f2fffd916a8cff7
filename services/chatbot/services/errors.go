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
	"errors"
	"fmt"
	"time"
)

// Terminal run failures. The handler maps each to its own 500 detail
// string; cancelled is architecturally distinct from failed but both are
// failures from the caller's point of view.
var (
	// ErrRunFailed indicates the assistant run reached the failed state.
	ErrRunFailed = errors.New("Run Failed")

	// ErrRunCancelled indicates the assistant run was cancelled upstream.
	ErrRunCancelled = errors.New("Run Cancelled")

	// ErrSinkNotConfigured indicates the feedback sink URL is missing.
	ErrSinkNotConfigured = errors.New("feedback sink not configured")

	// ErrEmptyAnswer indicates a completed run produced no text content.
	ErrEmptyAnswer = errors.New("assistant returned no text content")
)

// RunTimeoutError reports that run polling exceeded its deadline before
// the run reached a terminal state. The run keeps consuming provider-side
// resources after this error; it is not cancelled remotely.
type RunTimeoutError struct {
	RunID   string
	Elapsed time.Duration
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("run %s did not reach a terminal state within %s", e.RunID, e.Elapsed)
}

// SinkStatusError reports a non-2xx response from the feedback sink.
type SinkStatusError struct {
	StatusCode int
}

func (e *SinkStatusError) Error() string {
	return fmt.Sprintf("feedback sink returned status %d", e.StatusCode)
}
