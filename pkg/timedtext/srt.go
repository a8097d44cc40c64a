package timedtext

import (
	"regexp"
	"strings"
)

var srtSignatureRe = regexp.MustCompile(`^\d+[ \t]*\n\s*\d+:\d{1,2}:\d{1,2}(?:[.,]\d{1,3})?\s*-->`)

func detectSRT(content string) (Format, bool) {
	return FormatSRT, srtSignatureRe.MatchString(content)
}

func parseSRT(content string) ([]Caption, error) {
	var captions []Caption
	for _, block := range blocks(content) {
		lines := strings.Split(block, "\n")
		if !strings.Contains(lines[0], "-->") {
			// sequence number
			lines = lines[1:]
		}
		if len(lines) == 0 {
			continue
		}
		start, end, err := parseTiming(lines[0])
		if err != nil {
			return nil, err
		}
		captions = append(captions, Caption{Start: start, End: end, Text: strings.Join(lines[1:], "\n")})
	}
	return captions, nil
}
