// Package synth defines the single speech synthesis capability the engine
// consumes. Concrete providers live in subpackages (azure, command, tone) and
// one of them is selected at startup by the providers package.
package synth
