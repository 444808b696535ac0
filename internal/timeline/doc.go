// Package timeline compiles per-segment audio results into the lesson's
// synchronized timeline and writes it, with the timing manifest, as JSON
// artifacts under the lesson directory.
//
// A timeline is immutable once written. Its presence at the deterministic
// path is the cache marker: CompileLesson loads it instead of recompiling.
package timeline
