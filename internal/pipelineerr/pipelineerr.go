// Copyright 2026 The isbn-atlas Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// ----------------

// Package pipelineerr declares the typed error kinds shared across the
// decoding and aggregation packages, so that splitfinder, pipeline, and
// bookrecord don't each redeclare their own sentinels for the same kind
// of failure.
package pipelineerr

import "fmt"

// Kind classifies an error so callers can decide whether it is a
// recoverable data-quality problem or a fatal structural one.
type Kind int

const (
	// MalformedLine means one JSON-lines record failed to parse or was
	// missing a required field. Recoverable: the line is skipped.
	MalformedLine Kind = iota
	// FramingError means a split point's target offset never led to a
	// decodable zstd frame boundary before the scan gave up. Fatal.
	FramingError
	// CodecIncomplete means a bookrecord byte stream ended mid-record.
	// Fatal for the stream it occurred in.
	CodecIncomplete
	// ISBNMalformed means a string failed ISBN-10/13 checksum
	// verification. Recoverable: the ISBN is dropped.
	ISBNMalformed
	// BackpressureFull means a bounded channel could not accept a value
	// before its deadline. Fatal: indicates a stuck consumer.
	BackpressureFull
	// Cancelled means the pipeline's cancel flag was observed set.
	// Fatal by design: every worker stops.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case MalformedLine:
		return "malformed_line"
	case FramingError:
		return "framing_error"
	case CodecIncomplete:
		return "codec_incomplete"
	case ISBNMalformed:
		return "isbn_malformed"
	case BackpressureFull:
		return "backpressure_full"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind so callers can
// errors.Is/errors.As against the kind without string-matching messages.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind wrapping err.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Is reports whether err is a pipelineerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !asError(err, &e) {
		return false
	}
	return e.Kind == kind
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// FrameScanError carries the three byte offsets an operator needs to
// tell "the frame's magic was never found" apart from "the frame's JSON
// never diverged in OCLC id": the originally requested split target, the
// offset where the scan actually gave up (the last frame examined, or the
// start of the last magic search when no further magic was found), and
// the absolute stream offset at which the scan ended. It is always wrapped in
// an Error of kind FramingError.
type FrameScanError struct {
	TargetOffset int64
	FrameOffset  int64
	ScanEnd      int64
	Reason       string
}

func (e *FrameScanError) Error() string {
	return fmt.Sprintf("no usable split near offset %d (last frame at %d, scan ended at %d): %s",
		e.TargetOffset, e.FrameOffset, e.ScanEnd, e.Reason)
}
