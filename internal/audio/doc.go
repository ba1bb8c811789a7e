// Package audio holds synthesized speech as revocable temp-file resources
// and plays it through oto/v3 after decoding with ffmpeg.
package audio
