package strategy

import (
	"context"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/matzehuels/wheelres/pkg/index"
	"github.com/matzehuels/wheelres/pkg/model"
)

// WheelHTTP downloads wheels over http(s).
type WheelHTTP struct {
	base
	client *index.Client
}

// NewWheelHTTP creates the http wheel strategy. A zero timeout means none.
func NewWheelHTTP(info Info, client *index.Client, timeout time.Duration) *WheelHTTP {
	return &WheelHTTP{base: base{info, timeout}, client: client}
}

// Resolve downloads key.URI and checks it against key.Hash when set.
func (s *WheelHTTP) Resolve(ctx context.Context, key model.WheelKey) (*Artifact, error) {
	if !isHTTP(key.URI) {
		return nil, ErrNotApplicable
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	data, err := s.client.Fetch(ctx, key.URI, nil)
	if err != nil {
		return nil, err
	}
	if err := verify(data, key.Hash); err != nil {
		return nil, fmt.Errorf("%s: %w", key.Filename, err)
	}
	return newArtifact(data, key.URI, SourceHTTP), nil
}

// WheelFile reads wheels from the local filesystem (file:// URIs or bare paths).
type WheelFile struct {
	base
}

// NewWheelFile creates the local wheel strategy.
func NewWheelFile(info Info) *WheelFile {
	return &WheelFile{base: base{info: info}}
}

// Resolve reads the wheel at key.URI.
func (s *WheelFile) Resolve(ctx context.Context, key model.WheelKey) (*Artifact, error) {
	path, ok := localPath(key.URI)
	if !ok {
		return nil, ErrNotApplicable
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := verify(data, key.Hash); err != nil {
		return nil, fmt.Errorf("%s: %w", key.Filename, err)
	}
	return newArtifact(data, key.URI, SourceFile), nil
}

func isHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// localPath maps file:// URIs and bare paths to a filesystem path.
func localPath(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if filepath.IsAbs(raw) || strings.HasPrefix(raw, ".") {
		return raw, true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "file":
		return filepath.FromSlash(u.Path), true
	case "":
		return raw, true
	}
	return "", false
}

// verify checks data against want. An empty want always passes.
func verify(data []byte, want digest.Digest) error {
	if want == "" {
		return nil
	}
	if err := want.Validate(); err != nil {
		return err
	}
	if got := want.Algorithm().FromBytes(data); got != want {
		return fmt.Errorf("digest mismatch: got %s, want %s", got, want)
	}
	return nil
}
