package timedtext

import (
	"fmt"
	"strings"
	"time"
)

// Options controls how captions are rendered.
type Options struct {
	// Escape replaces '&', '<' and '>' in cue text with HTML entities.
	Escape bool
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// BuildVTT renders captions as a WebVTT document. Cues are numbered from 1.
func BuildVTT(captions []Caption, opts Options) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for i, c := range captions {
		text := c.Text
		if opts.Escape {
			text = htmlEscaper.Replace(text)
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, formatTimestamp(c.Start), formatTimestamp(c.End), text)
	}
	return b.String()
}

func formatTimestamp(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}

func detectVTT(content string) (Format, bool) {
	return FormatVTT, strings.HasPrefix(content, "WEBVTT")
}

func parseVTT(content string) ([]Caption, error) {
	var captions []Caption
	for i, block := range blocks(content) {
		if i == 0 && strings.HasPrefix(block, "WEBVTT") {
			continue
		}
		if strings.HasPrefix(block, "NOTE") || strings.HasPrefix(block, "STYLE") || strings.HasPrefix(block, "REGION") {
			continue
		}
		lines := strings.Split(block, "\n")
		if !strings.Contains(lines[0], "-->") {
			// cue identifier
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
