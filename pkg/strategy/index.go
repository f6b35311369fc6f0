package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	jsoncanonicalizer "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/matzehuels/wheelres/pkg/index"
)

// IndexHTTP fetches PEP 691 JSON project listings.
type IndexHTTP struct {
	base
	client *index.Client
}

// NewIndexHTTP creates the listing strategy. A zero timeout means none.
func NewIndexHTTP(info Info, client *index.Client, timeout time.Duration) *IndexHTTP {
	return &IndexHTTP{base: base{info, timeout}, client: client}
}

// Resolve fetches <base>/<project>/. An unknown project is not applicable.
func (s *IndexHTTP) Resolve(ctx context.Context, key IndexKey) (*Artifact, error) {
	if key.IndexBase == "" || !isHTTP(key.IndexBase) {
		return nil, ErrNotApplicable
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	url := index.ProjectURL(key.IndexBase, key.Project)
	data, err := s.client.Fetch(ctx, url, index.SimpleJSONHeaders)
	if errors.Is(err, index.ErrNotFound) {
		return nil, ErrNotApplicable
	}
	if err != nil {
		return nil, err
	}
	// Store the listing with absolute file URLs in canonical form, so cached
	// bytes are independent of where they were fetched from.
	project, err := index.ParseProject(data, url)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(project)
	if err != nil {
		return nil, err
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, err
	}
	return newArtifact(canonical, url, SourceHTTP), nil
}
