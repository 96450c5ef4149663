package export

import (
	"encoding/json"
	"os"

	"github.com/boilthesea/cleanvid/internal/scrub"
)

// PlexAutoSkip mirrors the fixed configuration schema consumed by the
// PlexAutoSkip plugin. Only markers and mode carry content; the rest
// of the skeleton must be present verbatim.
type PlexAutoSkip struct {
	Markers map[string][]scrub.PlexMarker `json:"markers"`
	Offsets map[string]json.RawMessage    `json:"offsets"`
	Tags    map[string]json.RawMessage    `json:"tags"`
	Allowed PlexAccessLists               `json:"allowed"`
	Blocked PlexAccessLists               `json:"blocked"`
	Clients map[string]json.RawMessage    `json:"clients"`
	Mode    map[string]string             `json:"mode"`
}

type PlexAccessLists struct {
	Users   []string `json:"users"`
	Clients []string `json:"clients"`
	Keys    []string `json:"keys"`
}

// BuildPlexAutoSkip keys the markers under the caller-supplied content
// identifier with volume mode.
func BuildPlexAutoSkip(contentID string, markers []scrub.PlexMarker) PlexAutoSkip {
	return PlexAutoSkip{
		Markers: map[string][]scrub.PlexMarker{contentID: markers},
		Offsets: map[string]json.RawMessage{},
		Tags:    map[string]json.RawMessage{},
		Allowed: PlexAccessLists{Users: []string{}, Clients: []string{}, Keys: []string{}},
		Blocked: PlexAccessLists{Users: []string{}, Clients: []string{}, Keys: []string{}},
		Clients: map[string]json.RawMessage{},
		Mode:    map[string]string{contentID: "volume"},
	}
}

// WritePlexAutoSkipFile writes the marker file. The file is only
// produced when at least one marker exists.
func WritePlexAutoSkipFile(path, contentID string, markers []scrub.PlexMarker) error {
	if len(markers) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(BuildPlexAutoSkip(contentID, markers), "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
