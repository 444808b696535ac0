// Package pipeline builds a lesson end to end: it assembles every segment in
// script order, optionally merges the segment audio into one lesson track, and
// compiles the timeline.
//
// Progress is reported as a stream of events rather than callbacks. Stream
// starts a build and hands back its event channel; Run drains that channel
// into a Report. Any segment failure aborts the lesson with a single
// *SegmentError and no timeline is written. Segments already recorded in the
// store whose audio still exists are reused on the next run.
package pipeline
