// Package presets holds the MediaConvert output presets used to transcode
// Marsha videos.
package presets

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed mediaconvert/*.json
var files embed.FS

// Preset is a MediaConvert preset definition. Settings is the raw JSON of the
// preset settings as accepted by the MediaConvert API.
type Preset struct {
	Name        string          `json:"-"`
	Description string          `json:"Description"`
	Category    string          `json:"Category"`
	Settings    json.RawMessage `json:"Settings"`
}

// QualifiedName prefixes the preset name with the deployment environment so
// several environments can share an account.
func (p Preset) QualifiedName(env string) string {
	if env == "" {
		return p.Name
	}
	return env + "_" + p.Name
}

// All returns every embedded preset, sorted by name.
func All() ([]Preset, error) {
	names, err := fs.Glob(files, "mediaconvert/*.json")
	if err != nil {
		return nil, err
	}
	presets := make([]Preset, 0, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading preset %s: %w", name, err)
		}
		var p Preset
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding preset %s: %w", name, err)
		}
		p.Name = strings.TrimSuffix(path.Base(name), ".json")
		presets = append(presets, p)
	}
	return presets, nil
}
