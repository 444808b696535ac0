// Package assembly turns one segment script into one audio file plus the
// measured timing of every fragment inside it.
//
// Fragments are merged, synthesized one at a time, probed, and joined with
// ffmpeg. A segment that merges down to a single fragment is synthesized
// straight to its final path and never touches the concatenator. Part files
// are removed on every exit path.
package assembly
