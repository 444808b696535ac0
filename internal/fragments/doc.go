// Package fragments merges pathologically short text fragments (bare
// punctuation, connectors) into same-language neighbours before synthesis.
package fragments
