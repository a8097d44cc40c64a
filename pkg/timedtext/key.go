package timedtext

import (
	"path"
	"regexp"
	"strings"
)

// Mode is the kind of timed text track, encoded as the last "_" separated
// token of an uploaded object key: <stamp>_<language>_<mode>.
type Mode string

const (
	ModeSubtitle      Mode = "st"
	ModeTranscript    Mode = "ts"
	ModeClosedCaption Mode = "cc"
	ModeUnknown       Mode = ""
)

// ModeFromKey returns the track mode encoded in an object key.
func ModeFromKey(key string) Mode {
	parts := strings.Split(path.Base(key), "_")
	if len(parts) < 3 {
		return ModeUnknown
	}
	switch m := Mode(parts[len(parts)-1]); m {
	case ModeSubtitle, ModeTranscript, ModeClosedCaption:
		return m
	}
	return ModeUnknown
}

// Escape reports whether cue text must be HTML escaped. Transcripts are shown
// as plain text and are the only unescaped mode.
func (m Mode) Escape() bool {
	return m != ModeTranscript
}

var timedTextTrackRe = regexp.MustCompile(`/timedtexttrack/.*/`)

// DestinationKey returns the key of the WebVTT rendition of an uploaded track.
func DestinationKey(key string) string {
	return timedTextTrackRe.ReplaceAllLiteralString(key, "/timedtext/") + ".vtt"
}

// SourceKey returns the key under which the uploaded track is kept as is.
func SourceKey(key string) string {
	return timedTextTrackRe.ReplaceAllLiteralString(key, "/timedtext/source/")
}
