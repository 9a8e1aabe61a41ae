// Package myaudio serves recorded detection clips from the audio directory
// and reads stream information from their WAV or FLAC headers.
package myaudio
