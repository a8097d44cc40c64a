package timedtext

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// lyrics only carry start times, the last line is shown this long
const lrcLastLineDuration = 2 * time.Second

var (
	lrcFirstLineRe = regexp.MustCompile(`^\[(?:\d{1,2}:\d{1,2}(?:[.,]\d{1,3})?|[a-zA-Z#]+:[^\]]*)\]`)
	lrcTimedLineRe = regexp.MustCompile(`(?m)^\[\d{1,2}:\d{1,2}(?:[.,]\d{1,3})?\]`)
	lrcStampRe     = regexp.MustCompile(`^\[(\d{1,2}:\d{1,2}(?:[.,]\d{1,3})?)\]`)
)

func detectLRC(content string) (Format, bool) {
	return FormatLRC, lrcFirstLineRe.MatchString(content) && lrcTimedLineRe.MatchString(content)
}

type lrcEntry struct {
	start time.Duration
	text  string
}

func parseLRC(content string) ([]Caption, error) {
	var entries []lrcEntry
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		var starts []time.Duration
		// a line may carry several timestamps sharing the same text
		for {
			m := lrcStampRe.FindStringSubmatch(line)
			if m == nil {
				break
			}
			start, err := parseTimestamp(m[1])
			if err != nil {
				return nil, err
			}
			starts = append(starts, start)
			line = line[len(m[0]):]
		}
		for _, start := range starts {
			entries = append(entries, lrcEntry{start: start, text: strings.TrimSpace(line)})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].start < entries[j].start })

	var captions []Caption
	for i, e := range entries {
		// empty lines only mark the end of the previous one
		if e.text == "" {
			continue
		}
		end := e.start + lrcLastLineDuration
		if i+1 < len(entries) {
			end = entries[i+1].start
		}
		captions = append(captions, Caption{Start: e.start, End: end, Text: e.text})
	}
	return captions, nil
}
