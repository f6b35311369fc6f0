package index

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/wheelres/pkg/pep"
)

// ReleaseURL returns the legacy JSON API URL of one release:
// <base>/<project>/<version>/json.
func ReleaseURL(base, project, version string) string {
	return fmt.Sprintf("%s/%s/%s/json", strings.TrimRight(base, "/"), pep.NormalizeName(project), version)
}

// Release is the metadata the legacy JSON API reports for one release.
type Release struct {
	Name           string
	Version        string
	RequiresPython string
	RequiresDist   []string
}

type apiResponse struct {
	Info apiInfo `json:"info"`
}

type apiInfo struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	RequiresPython string   `json:"requires_python"`
	RequiresDist   []string `json:"requires_dist"`
}

// ParseRelease decodes a legacy JSON API release document.
func ParseRelease(data []byte) (*Release, error) {
	var resp apiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	if resp.Info.Name == "" || resp.Info.Version == "" {
		return nil, fmt.Errorf("decode release: missing name or version")
	}
	return &Release{
		Name:           resp.Info.Name,
		Version:        resp.Info.Version,
		RequiresPython: resp.Info.RequiresPython,
		RequiresDist:   resp.Info.RequiresDist,
	}, nil
}

// CoreMetadata renders the release as a METADATA document, so it can be
// consumed by the same parser as sidecar and in-wheel metadata.
func (r *Release) CoreMetadata() []byte {
	var b strings.Builder
	b.WriteString("Metadata-Version: 2.1\n")
	b.WriteString("Name: " + r.Name + "\n")
	b.WriteString("Version: " + r.Version + "\n")
	if r.RequiresPython != "" {
		b.WriteString("Requires-Python: " + r.RequiresPython + "\n")
	}
	for _, d := range r.RequiresDist {
		b.WriteString("Requires-Dist: " + strings.ReplaceAll(d, "\n", " ") + "\n")
	}
	return []byte(b.String())
}
