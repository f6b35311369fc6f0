package pep

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strings"
)

// Metadata holds the core metadata fields the resolver reads.
type Metadata struct {
	Name           string
	Version        string
	RequiresPython string
	RequiresDist   []string
	ProvidesExtra  []string
}

// ParseMetadata parses a METADATA (or PKG-INFO) document. Only the header
// block is read; the description body is ignored.
func ParseMetadata(data []byte) (*Metadata, error) {
	r := textproto.NewReader(bufio.NewReader(bytes.NewReader(data)))
	h, err := r.ReadMIMEHeader()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	md := &Metadata{
		Name:           strings.TrimSpace(h.Get("Name")),
		Version:        strings.TrimSpace(h.Get("Version")),
		RequiresPython: strings.TrimSpace(h.Get("Requires-Python")),
	}
	if md.Name == "" || md.Version == "" {
		return nil, fmt.Errorf("parse metadata: missing Name or Version")
	}
	for _, v := range h.Values("Requires-Dist") {
		if v = strings.TrimSpace(v); v != "" {
			md.RequiresDist = append(md.RequiresDist, v)
		}
	}
	for _, v := range h.Values("Provides-Extra") {
		if v = strings.TrimSpace(v); v != "" {
			md.ProvidesExtra = append(md.ProvidesExtra, NormalizeExtra(v))
		}
	}
	return md, nil
}
