// Package subtitles writes SRT files for the original and dubbed utterances
// and embeds them into the final MP4 as mov_text tracks.
package subtitles
