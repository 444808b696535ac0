// Package services defines shared utilities consumed by the synthesis engine
// stages and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp lesson IDs, segment IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so every failure carries
//     a classifiable kind (missing input, synthesis, probe, concatenation, io).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the engine.
package services
