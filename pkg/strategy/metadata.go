package strategy

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/matzehuels/wheelres/pkg/index"
	"github.com/matzehuels/wheelres/pkg/model"
)

// SidecarHTTP fetches PEP 658 core metadata served next to the wheel at
// <wheel url>.metadata.
type SidecarHTTP struct {
	base
	client *index.Client
	probe  bool
}

// NewSidecarHTTP creates the sidecar strategy. With probe set, files whose
// listing entry says nothing about a sidecar are tried anyway.
func NewSidecarHTTP(info Info, client *index.Client, timeout time.Duration, probe bool) *SidecarHTTP {
	return &SidecarHTTP{base: base{info, timeout}, client: client, probe: probe}
}

// Resolve fetches the sidecar. A 404 is not applicable; a body that does
// not match an advertised hash is an error.
func (s *SidecarHTTP) Resolve(ctx context.Context, key MetadataKey) (*Artifact, error) {
	if !isHTTP(key.Wheel.URI) {
		return nil, ErrNotApplicable
	}
	switch key.Hints.Sidecar {
	case model.SidecarAbsent:
		return nil, ErrNotApplicable
	case model.SidecarUnknown:
		if !s.probe {
			return nil, ErrNotApplicable
		}
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	url := sidecarURL(key.Wheel.URI)
	data, err := s.client.Fetch(ctx, url, nil)
	if errors.Is(err, index.ErrNotFound) {
		return nil, ErrNotApplicable
	}
	if err != nil {
		return nil, err
	}
	if want, ok := index.BestHash(key.Hints.SidecarHashes); ok {
		if err := verify(data, want); err != nil {
			return nil, fmt.Errorf("sidecar %s: %w", url, err)
		}
	}
	return newArtifact(data, url, SourceSidecar), nil
}

func sidecarURL(wheelURL string) string {
	if i := strings.IndexAny(wheelURL, "#?"); i >= 0 {
		wheelURL = wheelURL[:i]
	}
	return wheelURL + ".metadata"
}

// ReleaseJSON reads release metadata from an index's JSON API
// (<base>/<project>/<version>/json) and renders it as core metadata.
type ReleaseJSON struct {
	base
	client  *index.Client
	apiBase string
}

// NewReleaseJSON creates the JSON API strategy. With an empty apiBase the
// strategy never applies.
func NewReleaseJSON(info Info, client *index.Client, timeout time.Duration, apiBase string) *ReleaseJSON {
	return &ReleaseJSON{base: base{info, timeout}, client: client, apiBase: apiBase}
}

// Resolve fetches the release document. An unknown release, or one that
// reports a different name or version, is not applicable.
func (s *ReleaseJSON) Resolve(ctx context.Context, key MetadataKey) (*Artifact, error) {
	if s.apiBase == "" || !isHTTP(key.Wheel.URI) {
		return nil, ErrNotApplicable
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	url := index.ReleaseURL(s.apiBase, key.Wheel.Name, key.Wheel.Version)
	data, err := s.client.Fetch(ctx, url, map[string]string{"Accept": "application/json"})
	if errors.Is(err, index.ErrNotFound) {
		return nil, ErrNotApplicable
	}
	if err != nil {
		return nil, err
	}
	rel, err := index.ParseRelease(data)
	if err != nil {
		return nil, err
	}
	// The JSON API lists requires_dist as null both for "no dependencies"
	// and for "unknown"; only trust it when it says something.
	if rel.RequiresDist == nil {
		return nil, ErrNotApplicable
	}
	return newArtifact(rel.CoreMetadata(), url, SourceReleaseAPI), nil
}

// LocalWheelMetadata reads METADATA straight out of a wheel on the local
// filesystem.
type LocalWheelMetadata struct {
	base
}

// NewLocalWheelMetadata creates the local wheel metadata strategy.
func NewLocalWheelMetadata(info Info) *LocalWheelMetadata {
	return &LocalWheelMetadata{base: base{info: info}}
}

// Resolve opens the wheel and extracts its METADATA.
func (s *LocalWheelMetadata) Resolve(ctx context.Context, key MetadataKey) (*Artifact, error) {
	path, ok := localPath(key.Wheel.URI)
	if !ok {
		return nil, ErrNotApplicable
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	md, err := ExtractMetadata(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return newArtifact(md, key.Wheel.URI, SourceFile), nil
}

// WheelInspection downloads the whole wheel through the wheel chain and
// extracts its METADATA.
type WheelInspection struct {
	base
	wheels *Chain[model.WheelKey]
}

// NewWheelInspection creates the extraction fallback on top of wheels.
func NewWheelInspection(info Info, wheels *Chain[model.WheelKey]) *WheelInspection {
	return &WheelInspection{base: base{info: info}, wheels: wheels}
}

// Resolve fetches the wheel and extracts METADATA. If no wheel strategy
// applies, neither does this one.
func (s *WheelInspection) Resolve(ctx context.Context, key MetadataKey) (*Artifact, error) {
	if s.wheels.Len() == 0 {
		return nil, ErrNotApplicable
	}
	art, _, err := s.wheels.Resolve(ctx, nil, key.Wheel)
	if errors.Is(err, ErrExhausted) {
		return nil, ErrNotApplicable
	}
	if err != nil {
		return nil, err
	}
	md, err := ExtractMetadata(art.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key.Wheel.Filename, err)
	}
	return newArtifact(md, art.Origin, SourceExtracted), nil
}

// ErrNoMetadata is returned by ExtractMetadata for archives without a
// *.dist-info/METADATA member.
var ErrNoMetadata = errors.New("wheel has no *.dist-info/METADATA")

// ExtractMetadata returns the contents of the *.dist-info/METADATA member
// of a wheel archive. When several match, the lexically first is used.
func ExtractMetadata(wheel []byte) ([]byte, error) {
	if !isZip(mimetype.Detect(wheel)) {
		return nil, fmt.Errorf("not a zip archive (%s)", mimetype.Detect(wheel).String())
	}
	zr, err := zip.NewReader(bytes.NewReader(wheel), int64(len(wheel)))
	if err != nil {
		return nil, fmt.Errorf("open wheel: %w", err)
	}

	var names []string
	files := make(map[string]*zip.File)
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".dist-info/METADATA") {
			names = append(names, f.Name)
			files[f.Name] = f
		}
	}
	if len(names) == 0 {
		return nil, ErrNoMetadata
	}
	sort.Strings(names)

	rc, err := files[names[0]].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", names[0], err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isZip(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}
