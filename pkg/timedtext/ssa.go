package timedtext

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	ssaSignatureRe  = regexp.MustCompile(`(?i)^\[script info\]`)
	assScriptTypeRe = regexp.MustCompile(`(?im)^\s*scripttype:\s*v4\.00\+`)
	ssaOverrideRe   = regexp.MustCompile(`\{[^}]*\}`)
)

// column layout used when the [Events] section has no Format line
var ssaDefaultColumns = []string{"marked", "start", "end", "style", "name", "marginl", "marginr", "marginv", "effect", "text"}

func detectSSA(content string) (Format, bool) {
	if !ssaSignatureRe.MatchString(content) {
		return "", false
	}
	if assScriptTypeRe.MatchString(content) {
		return FormatASS, true
	}
	return FormatSSA, true
}

func parseSSA(content string) ([]Caption, error) {
	var captions []Caption
	inEvents := false
	columns := ssaDefaultColumns
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inEvents = strings.EqualFold(line, "[events]")
			continue
		}
		if !inEvents {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "format":
			columns = nil
			for _, c := range strings.Split(value, ",") {
				columns = append(columns, strings.ToLower(strings.TrimSpace(c)))
			}
		case "dialogue":
			c, err := parseSSADialogue(columns, value)
			if err != nil {
				return nil, err
			}
			captions = append(captions, c)
		}
	}
	return captions, nil
}

func parseSSADialogue(columns []string, value string) (Caption, error) {
	fields := strings.SplitN(value, ",", len(columns))
	if len(fields) != len(columns) {
		return Caption{}, fmt.Errorf("dialogue has %d fields, expected %d", len(fields), len(columns))
	}
	var c Caption
	for i, col := range columns {
		var err error
		switch col {
		case "start":
			c.Start, err = parseTimestamp(fields[i])
		case "end":
			c.End, err = parseTimestamp(fields[i])
		case "text":
			c.Text = cleanSSAText(fields[i])
		}
		if err != nil {
			return Caption{}, err
		}
	}
	return c, nil
}

func cleanSSAText(text string) string {
	text = ssaOverrideRe.ReplaceAllString(text, "")
	text = strings.NewReplacer(`\N`, "\n", `\n`, "\n", `\h`, " ").Replace(text)
	return strings.TrimSpace(text)
}
