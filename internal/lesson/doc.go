// Package lesson defines the lesson script model (segments made of L1/L2 text
// fragments), the measured audio results produced per segment, and the loader
// that reads scripts from JSON or YAML documents.
package lesson
