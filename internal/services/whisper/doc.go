// Package whisper runs speech-to-text through the openai-whisper command line
// (python -m whisper) and reads back its JSON transcript.
package whisper
