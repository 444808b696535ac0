// Package audio wraps the ffmpeg tooling the engine relies on: duration
// probing with a deterministic size-based fallback, and ordered
// concatenation of per-fragment clips (lossless stream copy first, one
// re-encode retry at a fixed sample format).
//
// Both types take their binaries and logger explicitly and accept injected
// runners so tests never shell out.
package audio
