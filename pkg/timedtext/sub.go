package timedtext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MicroDVD files count frames; this is the rate assumed when the file does
// not declare one on its first line.
const defaultFrameRate = 25.0

var (
	subSignatureRe = regexp.MustCompile(`^\{\d+\}\{\d+\}`)
	subLineRe      = regexp.MustCompile(`^\{(\d+)\}\{(\d+)\}(.*)$`)
	subStyleRe     = regexp.MustCompile(`\{[a-zA-Z]:[^}]*\}`)
)

func detectSUB(content string) (Format, bool) {
	return FormatSUB, subSignatureRe.MatchString(content)
}

func parseSUB(content string) ([]Caption, error) {
	var captions []Caption
	fps := defaultFrameRate
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := subLineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("invalid line %q", line)
		}
		startFrame, _ := strconv.Atoi(m[1])
		endFrame, _ := strconv.Atoi(m[2])
		// {1}{1}23.976 declares the frame rate
		if i == 0 && startFrame <= 1 && endFrame <= 1 {
			if rate, err := strconv.ParseFloat(strings.TrimSpace(m[3]), 64); err == nil && rate > 0 {
				fps = rate
				continue
			}
		}
		text := subStyleRe.ReplaceAllString(m[3], "")
		captions = append(captions, Caption{
			Start: frameTime(startFrame, fps),
			End:   frameTime(endFrame, fps),
			Text:  strings.ReplaceAll(text, "|", "\n"),
		})
	}
	return captions, nil
}

func frameTime(frame int, fps float64) time.Duration {
	return time.Duration(float64(frame) / fps * float64(time.Second)).Round(time.Millisecond)
}
