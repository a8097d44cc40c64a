package timedtext

import (
	"fmt"
	"regexp"
	"strings"
)

var sbvSignatureRe = regexp.MustCompile(`^\d{1,2}:\d{1,2}:\d{1,2}\.\d{1,3},\d{1,2}:\d{1,2}:\d{1,2}\.\d{1,3}`)

func detectSBV(content string) (Format, bool) {
	return FormatSBV, sbvSignatureRe.MatchString(content)
}

func parseSBV(content string) ([]Caption, error) {
	var captions []Caption
	for _, block := range blocks(content) {
		lines := strings.Split(block, "\n")
		times := strings.SplitN(lines[0], ",", 2)
		if len(times) != 2 {
			return nil, fmt.Errorf("invalid timing line %q", lines[0])
		}
		start, err := parseTimestamp(times[0])
		if err != nil {
			return nil, err
		}
		end, err := parseTimestamp(times[1])
		if err != nil {
			return nil, err
		}
		captions = append(captions, Caption{Start: start, End: end, Text: strings.Join(lines[1:], "\n")})
	}
	return captions, nil
}
