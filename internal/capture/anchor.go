// Copyright (c) 2024-2026 HiresightAI
// Author: Hiresight Engineering <eng@hiresight.ai>
//
// Licensed under the Apache License, Version 2.0.
// See LICENSE for details.

package internal_capture

import "time"

// Provenance tags how an anchor was obtained.
type Provenance string

const (
	// ProvenanceSelfMeasured means the unit measured its own start.
	ProvenanceSelfMeasured Provenance = "self-measured"
	// ProvenanceBorrowed means adopted from the other unit to enforce alignment.
	ProvenanceBorrowed Provenance = "borrowed"
)

// Anchor is the single timestamp treated as a stream's true start time for
// alignment purposes: floating-point seconds since the Unix epoch. A unit's
// anchor is set at most once and never revised.
type Anchor struct {
	Seconds    float64
	Provenance Provenance
}

// epochSeconds converts t to floating-point seconds since the Unix epoch.
func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Reconcile chooses the audio unit's provisional anchor at the moment its
// media access resolves. A hint chronologically ahead of now is an anomaly
// (video starts first in the call sequence) and is adopted verbatim as a
// defensive choice. In the normal case, hint in the past or absent, the
// unit's own "now" stands, because the actual PCM samples begin flowing
// from this moment; an earlier timestamp would make the audio appear to
// have existed before it was captured.
func Reconcile(hint *Anchor, now float64) Anchor {
	if hint != nil && hint.Seconds > now {
		return Anchor{Seconds: hint.Seconds, Provenance: ProvenanceBorrowed}
	}
	return Anchor{Seconds: now, Provenance: ProvenanceSelfMeasured}
}

// Finalize re-anchors immediately before the recorder loop starts: the merge
// step aligns both tracks to a single shared origin, so the video anchor is
// ground truth whenever a hint exists at all. The measured anchor remains
// authoritative only on the no-hint path (and is retained for diagnostics
// otherwise).
func Finalize(hint *Anchor, provisional Anchor) Anchor {
	if hint != nil {
		return Anchor{Seconds: hint.Seconds, Provenance: ProvenanceBorrowed}
	}
	return provisional
}
