package index

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/matzehuels/wheelres/pkg/pep"
)

// SimpleJSONType is the PEP 691 JSON content type.
const SimpleJSONType = "application/vnd.pypi.simple.v1+json"

// SimpleJSONHeaders requests the JSON form of the simple API.
var SimpleJSONHeaders = map[string]string{"Accept": SimpleJSONType}

// ProjectURL returns the simple API URL of a project: <base>/<normalized>/.
func ProjectURL(base, project string) string {
	return strings.TrimRight(base, "/") + "/" + pep.NormalizeName(project) + "/"
}

// Project is a PEP 691 project listing.
type Project struct {
	Name     string   `json:"name"`
	Files    []File   `json:"files"`
	Versions []string `json:"versions,omitempty"`
}

// File is one distribution file in a project listing.
type File struct {
	Filename       string            `json:"filename"`
	URL            string            `json:"url"`
	Hashes         map[string]string `json:"hashes"`
	RequiresPython string            `json:"requires-python,omitempty"`
	Yanked         Yanked            `json:"yanked"`
	CoreMetadata   *CoreMetadata     `json:"core-metadata,omitempty"`
	// Pre-PEP 714 spelling of CoreMetadata.
	DistInfoMetadata *CoreMetadata `json:"data-dist-info-metadata,omitempty"`
}

// Yanked is the PEP 691 yanked field: false, true, or a reason string.
type Yanked struct {
	Yanked bool
	Reason string
}

// UnmarshalJSON accepts a bool or a string.
func (y *Yanked) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*y = Yanked{Yanked: b}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("yanked: want bool or string, got %s", data)
	}
	*y = Yanked{Yanked: true, Reason: s}
	return nil
}

// MarshalJSON writes the reason when present, otherwise a bool.
func (y Yanked) MarshalJSON() ([]byte, error) {
	if y.Yanked && y.Reason != "" {
		return json.Marshal(y.Reason)
	}
	return json.Marshal(y.Yanked)
}

// CoreMetadata is the PEP 714 core-metadata field: a bool, or a map of
// hashes of the separately served METADATA file.
type CoreMetadata struct {
	Available bool
	Hashes    map[string]string
}

// UnmarshalJSON accepts a bool or a hash map.
func (m *CoreMetadata) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*m = CoreMetadata{Available: b}
		return nil
	}
	var hashes map[string]string
	if err := json.Unmarshal(data, &hashes); err != nil {
		return fmt.Errorf("core-metadata: want bool or object, got %s", data)
	}
	*m = CoreMetadata{Available: true, Hashes: hashes}
	return nil
}

// MarshalJSON writes the hashes when present, otherwise a bool.
func (m CoreMetadata) MarshalJSON() ([]byte, error) {
	if len(m.Hashes) > 0 {
		return json.Marshal(m.Hashes)
	}
	return json.Marshal(m.Available)
}

// Metadata returns the effective core metadata advertisement, preferring
// the PEP 714 field. ok is false when the index said nothing.
func (f File) Metadata() (md CoreMetadata, ok bool) {
	if f.CoreMetadata != nil {
		return *f.CoreMetadata, true
	}
	if f.DistInfoMetadata != nil {
		return *f.DistInfoMetadata, true
	}
	return CoreMetadata{}, false
}

// hashPreference lists usable hash algorithms, strongest-supported first.
var hashPreference = []struct {
	name string
	alg  digest.Algorithm
	size int
}{
	{"sha256", digest.SHA256, 64},
	{"sha512", digest.SHA512, 128},
	{"sha384", digest.SHA384, 96},
}

// BestHash picks the preferred valid hash from hashes (sha256, then sha512,
// then sha384). Malformed hex values are skipped.
func BestHash(hashes map[string]string) (digest.Digest, bool) {
	for _, h := range hashPreference {
		v := strings.ToLower(strings.TrimSpace(hashes[h.name]))
		if len(v) != h.size {
			continue
		}
		if _, err := hex.DecodeString(v); err != nil {
			continue
		}
		return digest.NewDigestFromEncoded(h.alg, v), true
	}
	return "", false
}

// ParseProject decodes a PEP 691 JSON listing. Relative file URLs are
// resolved against listingURL.
func ParseProject(data []byte, listingURL string) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode project listing: %w", err)
	}
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("listing URL %q: %w", listingURL, err)
	}
	for i := range p.Files {
		ref, err := url.Parse(p.Files[i].URL)
		if err != nil {
			return nil, fmt.Errorf("file %q: invalid url: %w", p.Files[i].Filename, err)
		}
		p.Files[i].URL = base.ResolveReference(ref).String()
		if p.Files[i].Filename == "" {
			p.Files[i].Filename = pathBase(ref.Path)
		}
	}
	return &p, nil
}

func pathBase(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
