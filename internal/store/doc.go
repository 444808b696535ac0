// Package store persists segment audio results and lesson run history in
// SQLite so reruns can resume a lesson without re-synthesizing finished
// segments.
//
// Segment results are keyed by (lesson id, segment id). Lesson runs record
// each build attempt with its outcome and, on failure, the segment and error
// kind that aborted it.
package store
