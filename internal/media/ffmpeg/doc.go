// Package ffmpeg wraps the ffmpeg invocations of the dubbing pipeline:
// splitting the input into audio and video, cutting utterance chunks, trimming
// synthesized speech, time-stretching, mixing the dubbed vocals with the
// background and remuxing the final video.
//
// Operations that modify a file in place write to a hidden temporary file in
// the same directory and rename it over the original on success.
package ffmpeg
