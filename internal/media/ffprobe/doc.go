// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties (codec, sample format, rate)
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect executes ffprobe and returns the parsed Result; Parse decodes
// captured output. Helper methods on Result expose audio duration, size, and
// sample rate.
package ffprobe
