// Package textutil provides text helpers shared by the fragment merger, the
// assembler, and CLI rendering: Unicode-aware length measurement, filename
// sanitization, and display casing.
package textutil
