// Package telemetry owns the OpenTelemetry meter used by the lesson pipeline.
//
// Instruments are created once per run and passed explicitly to the assembler
// and runner. A ManualReader backs the meter provider so the CLI can print a
// run summary and tests can assert on recorded values without an exporter.
package telemetry
