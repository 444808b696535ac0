// Package main hosts the cadence CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, builds the synthesis
// provider, prober, concatenator, result store, and optional NATS sink, then
// hands lesson scripts to the pipeline. Build progress is rendered as status
// lines from the pipeline's event stream; compiled timelines can be inspected
// on the frame grid or replayed against a simulated clock to preview pauses.
//
// Keep this package lean: add behaviour to the internal packages first and
// surface it here through commands or flags.
package main
