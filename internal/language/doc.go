// Package language maps the lesson's L1/L2 language settings to ISO 639-1
// codes, speech locales, and display names.
package language
