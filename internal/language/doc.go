// Package language normalizes the language hints accepted by transcription.
//
// Codes may arrive as ISO 639-1, ISO 639-2, English words, or BCP 47 tags
// such as en-US; everything resolves to the two-letter code the transcriber
// expects, limited to the supported set.
package language
