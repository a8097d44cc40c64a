// Package timedtext reads subtitle, caption and transcript files in the formats
// accepted by Marsha and renders them as WebVTT.
package timedtext

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownFormat means the content could not be read as any supported format
var ErrUnknownFormat = errors.New("unknown timed text format")

// Format identifies a timed text format by its usual file extension.
type Format string

const (
	FormatVTT Format = "vtt"
	FormatSRT Format = "srt"
	FormatSBV Format = "sbv"
	FormatSSA Format = "ssa"
	FormatASS Format = "ass"
	FormatSUB Format = "sub"
	FormatLRC Format = "lrc"
)

func (f Format) String() string {
	return string(f)
}

// Caption is a single cue: a span of time and the text shown during it.
type Caption struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type reader struct {
	detect func(content string) (Format, bool)
	parse  func(content string) ([]Caption, error)
}

// detection order matters: the earlier formats have stricter signatures
var readers = []reader{
	{detectVTT, parseVTT},
	{detectSRT, parseSRT},
	{detectSBV, parseSBV},
	{detectSSA, parseSSA},
	{detectSUB, parseSUB},
	{detectLRC, parseLRC},
}

// Detect returns the format of content, if it is one of the supported formats.
func Detect(content string) (Format, bool) {
	content = normalize(content)
	for _, r := range readers {
		if f, ok := r.detect(content); ok {
			return f, true
		}
	}
	return "", false
}

// Parse detects the format of content and reads its captions. It returns
// [ErrUnknownFormat] when the format is not recognised or no caption could be
// read from it.
func Parse(content string) (Format, []Caption, error) {
	content = normalize(content)
	for _, r := range readers {
		f, ok := r.detect(content)
		if !ok {
			continue
		}
		captions, err := r.parse(content)
		if err != nil {
			return f, nil, fmt.Errorf("%w: reading %s: %w", ErrUnknownFormat, f, err)
		}
		if len(captions) == 0 {
			return f, nil, fmt.Errorf("%w: no captions in %s content", ErrUnknownFormat, f)
		}
		return f, captions, nil
	}
	return "", nil, ErrUnknownFormat
}

func normalize(content string) string {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimLeft(content, " \t\n")
}

var blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)

// blocks splits content on blank lines, dropping empty blocks.
func blocks(content string) []string {
	var out []string
	for _, b := range blankLineRe.Split(content, -1) {
		b = strings.Trim(b, "\n")
		if strings.TrimSpace(b) != "" {
			out = append(out, b)
		}
	}
	return out
}

var timestampRe = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{1,2})(?:[.,](\d{1,3}))?$`)

// parseTimestamp reads [hh:]mm:ss[.fff] with either '.' or ',' before the
// fraction. The fraction is decimal, so "1.5" is one and a half seconds.
func parseTimestamp(s string) (time.Duration, error) {
	m := timestampRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	var hours int
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	frac := m[4]
	for len(frac) < 3 {
		frac += "0"
	}
	millis, _ := strconv.Atoi(frac)
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

var timingRe = regexp.MustCompile(`^\s*([\d:.,]+)\s*-->\s*([\d:.,]+)`)

// parseTiming reads a "start --> end" line, ignoring anything after the end
// timestamp (WebVTT cue settings).
func parseTiming(line string) (time.Duration, time.Duration, error) {
	m := timingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	start, err := parseTimestamp(m[1])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimestamp(m[2])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
