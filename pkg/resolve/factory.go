package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wheelres/pkg/cache"
	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/index"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/pep"
	"github.com/matzehuels/wheelres/pkg/strategy"
	"github.com/matzehuels/wheelres/pkg/tags"
	"github.com/matzehuels/wheelres/pkg/trace"
)

// DefaultConcurrency bounds concurrent listing prefetches.
const DefaultConcurrency = 8

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	Strategies  *strategy.Set
	Cache       *cache.Cache
	IndexBase   string
	Logger      *log.Logger
	Concurrency int
}

// Factory discovers candidates and reads dependencies. Everything it
// fetches goes through the cache first; parsed listings and metadata are
// additionally memoized for the Factory's lifetime, which is one resolution.
type Factory struct {
	strategies  *strategy.Set
	cache       *cache.Cache
	indexBase   string
	logger      *log.Logger
	concurrency int

	mu       sync.Mutex
	listings map[string]*index.Project
	metadata map[model.WheelKey]*metadataRecord
}

// NewFactory creates a factory. A nil cache means a private memory cache.
func NewFactory(cfg FactoryConfig) *Factory {
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Factory{
		strategies:  cfg.Strategies,
		cache:       cfg.Cache,
		indexBase:   cfg.IndexBase,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
		listings:    make(map[string]*index.Project),
		metadata:    make(map[model.WheelKey]*metadataRecord),
	}
}

// MakeRequirement parses a requirement string.
func (f *Factory) MakeRequirement(text string) (model.Requirement, error) {
	return model.ParseRequirement(text)
}

// identity is what makes two candidates the same choice for the solver.
type identity struct {
	name, version string
	tag           pep.Tag
}

func identityOf(k model.WheelKey) identity {
	return identity{k.Name, k.Version, k.Tag}
}

// FindCandidates returns the candidates of project name that satisfy every
// requirement in reqs, excluding those in incompatible. Index candidates
// are one per version (the best-ranked file of that version), newest first.
//
// When any requirement is a direct reference, only direct candidates are
// considered.
func (f *Factory) FindCandidates(ctx context.Context, env *model.Environment, name string, reqs []model.Requirement, incompatible []*model.Candidate) ([]*model.Candidate, error) {
	bad := make(map[identity]bool, len(incompatible))
	for _, c := range incompatible {
		bad[identityOf(c.Key)] = true
	}

	var direct []model.Requirement
	for _, r := range reqs {
		if r.IsDirect() {
			direct = append(direct, r)
		}
	}
	if len(direct) > 0 {
		return f.directCandidates(env, name, reqs, direct, bad)
	}

	project, err := f.listing(ctx, name)
	if err != nil {
		return nil, err
	}
	return f.indexCandidates(env, name, project, reqs, bad), nil
}

func (f *Factory) directCandidates(env *model.Environment, name string, reqs, direct []model.Requirement, bad map[identity]bool) ([]*model.Candidate, error) {
	seen := make(map[string]bool)
	var out []*model.Candidate
	for _, r := range direct {
		if seen[r.URI()] {
			continue
		}
		seen[r.URI()] = true
		c, err := directCandidate(env, name, r)
		if err != nil {
			return nil, err
		}
		if c == nil || bad[identityOf(c.Key)] || !satisfiesAll(reqs, c) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// directCandidate builds the candidate a "name @ uri" requirement points
// at. It returns nil when the file is for another project or has no tag
// the environment accepts.
func directCandidate(env *model.Environment, name string, r model.Requirement) (*model.Candidate, error) {
	u, err := url.Parse(r.URI())
	if err != nil || u.Scheme == "" {
		return nil, perrors.New(perrors.ErrCodeInvalidRequirement, "direct reference %q has no URL scheme", r.URI())
	}
	wf, err := pep.ParseWheelFilename(r.URI())
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "direct reference for %s is not a wheel", name)
	}
	if wf.Name != name {
		return nil, nil
	}
	tag, _, ok := env.TagPolicy().Best(wf.Tags)
	if !ok {
		return nil, nil
	}
	v, err := pep.ParseVersion(wf.Version)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "direct reference %q", r.URI())
	}

	key := model.WheelKey{Name: name, Version: wf.Version, Tag: tag, Filename: wf.Filename, URI: r.URI()}
	if h, ok := fragmentHash(u.Fragment); ok {
		key.Hash = h
	}
	md := key.Enrich(model.Enrichment{
		TagSet:        wf.Tags,
		SatisfiedTags: env.TagPolicy().Satisfied(wf.Tags),
		Origin:        r.URI(),
	})
	return model.NewCandidate(key, v, &md, model.FileHints{}), nil
}

// fragmentHash reads a "#sha256=<hex>" URL fragment.
func fragmentHash(fragment string) (digest.Digest, bool) {
	alg, hex, found := strings.Cut(fragment, "=")
	if !found {
		return "", false
	}
	return index.BestHash(map[string]string{alg: hex})
}

// fileEntry is one compatible wheel of a listing.
type fileEntry struct {
	key     model.WheelKey
	version pep.Version
	wheel   pep.WheelFilename
	file    index.File
}

func (e fileEntry) RankTags() []pep.Tag   { return e.wheel.Tags }
func (e fileEntry) RankFilename() string  { return e.wheel.Filename }
func (e fileEntry) RankURI() string       { return e.file.URL }
func (e fileEntry) isPreRelease() bool    { return e.version.IsPreRelease() }
func (e fileEntry) less(o fileEntry) bool { return e.version.Compare(o.version) > 0 }

func (f *Factory) indexCandidates(env *model.Environment, name string, project *index.Project, reqs []model.Requirement, bad map[identity]bool) []*model.Candidate {
	policy := env.Policy()
	python, hasPython := env.PythonVersion()

	var entries []fileEntry
	for _, file := range project.Files {
		if !pep.IsWheel(file.Filename) {
			continue
		}
		if file.Yanked.Yanked && policy.Yanked == model.YankedSkip {
			continue
		}
		wf, err := pep.ParseWheelFilename(file.Filename)
		if err != nil {
			f.logger.Debug("skipping unparsable wheel", "project", name, "file", file.Filename, "error", err)
			continue
		}
		if wf.Name != name {
			continue
		}
		v, err := pep.ParseVersion(wf.Version)
		if err != nil || !matchesAll(reqs, v) {
			continue
		}
		if file.RequiresPython != "" && hasPython {
			if spec, err := pep.ParseSpecifiers(file.RequiresPython); err == nil && !spec.Contains(python) {
				continue
			}
		}
		tag, _, ok := env.TagPolicy().Best(wf.Tags)
		if !ok {
			continue
		}
		key := model.WheelKey{Name: name, Version: wf.Version, Tag: tag, Filename: wf.Filename, URI: file.URL}
		if h, ok := index.BestHash(file.Hashes); ok {
			key.Hash = h
		}
		if bad[identityOf(key)] {
			continue
		}
		entries = append(entries, fileEntry{key: key, version: v, wheel: wf, file: file})
	}
	entries = filterPreReleases(entries, policy.PreRelease, reqs)

	// Newest first; within a version the tag policy picks the file.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].less(entries[j]) })
	var out []*model.Candidate
	for start := 0; start < len(entries); {
		end := start + 1
		for end < len(entries) && entries[end].version.Compare(entries[start].version) == 0 {
			end++
		}
		best := tags.Rank(entries[start:end], env.TagPolicy())[0]
		out = append(out, candidateFromFile(env, best))
		start = end
	}
	return out
}

func candidateFromFile(env *model.Environment, e fileEntry) *model.Candidate {
	md := e.key.Enrich(model.Enrichment{
		TagSet:         e.wheel.Tags,
		SatisfiedTags:  env.TagPolicy().Satisfied(e.wheel.Tags),
		Origin:         e.file.URL,
		RequiresPython: e.file.RequiresPython,
	})
	hints := model.FileHints{Yanked: e.file.Yanked.Yanked}
	switch cm, ok := e.file.Metadata(); {
	case !ok:
		hints.Sidecar = model.SidecarUnknown
	case cm.Available:
		hints.Sidecar = model.SidecarPresent
		hints.SidecarHashes = cm.Hashes
	default:
		hints.Sidecar = model.SidecarAbsent
	}
	return model.NewCandidate(e.key, e.version, &md, hints)
}

// filterPreReleases applies the pre-release policy. Under the default
// policy pre-releases are kept when a specifier names one, or when nothing
// else is left.
func filterPreReleases(entries []fileEntry, policy model.PreReleasePolicy, reqs []model.Requirement) []fileEntry {
	switch policy {
	case model.PreReleaseAllow:
		return entries
	case model.PreReleaseDefault:
		for _, r := range reqs {
			if r.Specifiers().MentionsPreRelease() {
				return entries
			}
		}
	}
	var final []fileEntry
	for _, e := range entries {
		if !e.isPreRelease() {
			final = append(final, e)
		}
	}
	if len(final) == 0 && policy == model.PreReleaseDefault {
		return entries
	}
	return final
}

func matchesAll(reqs []model.Requirement, v pep.Version) bool {
	for _, r := range reqs {
		if !r.Specifiers().Contains(v) {
			return false
		}
	}
	return true
}

// satisfies reports whether c meets r without any network access.
func satisfies(r model.Requirement, c *model.Candidate) bool {
	if r.Name() != c.Name() {
		return false
	}
	if r.IsDirect() {
		return c.Key.URI == r.URI()
	}
	return r.Specifiers().Contains(c.Version)
}

func satisfiesAll(reqs []model.Requirement, c *model.Candidate) bool {
	for _, r := range reqs {
		if !satisfies(r, c) {
			return false
		}
	}
	return true
}

// listing returns the parsed index listing of name. A project the index
// does not know has an empty listing.
func (f *Factory) listing(ctx context.Context, name string) (*index.Project, error) {
	f.mu.Lock()
	p, ok := f.listings[name]
	f.mu.Unlock()
	if ok {
		return p, nil
	}

	sink := trace.FromContext(ctx)
	key := f.cache.Keyer().IndexKey(f.indexBase, name)
	data, err := f.cache.Indexes().Load(ctx, sink, key, func(ctx context.Context) ([]byte, error) {
		art, attempts, err := f.strategies.Index.Resolve(ctx, sink, strategy.IndexKey{Project: name, IndexBase: f.indexBase})
		if err != nil {
			return nil, &chainError{attempts: attempts, err: err}
		}
		return art.Data, nil
	})
	switch {
	case err == nil:
		p, err = index.ParseProject(data, index.ProjectURL(f.indexBase, name))
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeArtifactFetch, err, "listing for %s", name)
		}
	case errors.Is(err, strategy.ErrExhausted):
		f.logger.Debug("project not on index", "project", name, "index", f.indexBase)
		p = &index.Project{Name: name}
	case ctx.Err() != nil:
		return nil, err
	default:
		return nil, perrors.ArtifactFetch(name, "", attemptsOf(err), err)
	}

	f.mu.Lock()
	f.listings[name] = p
	f.mu.Unlock()
	return p, nil
}

// Prefetch warms the listings of names concurrently. Errors are ignored:
// the solver will meet them again, in order, when it asks for candidates.
func (f *Factory) Prefetch(ctx context.Context, names []string) {
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for _, name := range names {
		f.mu.Lock()
		_, done := f.listings[name]
		f.mu.Unlock()
		if done {
			continue
		}
		g.Go(func() error {
			_, _ = f.listing(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
}

// metadataRecord is what the metadata mapping stores: the core metadata
// text plus where it came from.
type metadataRecord struct {
	Metadata string `json:"metadata"`
	Origin   string `json:"origin"`
	Source   string `json:"source"`
	Strategy string `json:"strategy"`
	Digest   string `json:"digest"`

	parsed *pep.Metadata
}

// coreMetadata returns the parsed core metadata of c's wheel.
func (f *Factory) coreMetadata(ctx context.Context, c *model.Candidate) (*metadataRecord, error) {
	f.mu.Lock()
	rec, ok := f.metadata[c.Key]
	f.mu.Unlock()
	if ok {
		return rec, nil
	}

	sink := trace.FromContext(ctx)
	key := f.cache.Keyer().MetadataKey(c.Key.URI, string(c.Key.Hash))
	data, err := f.cache.Metadata().Load(ctx, sink, key, func(ctx context.Context) ([]byte, error) {
		art, attempts, err := f.strategies.Metadata.Resolve(ctx, sink, strategy.MetadataKey{Wheel: c.Key, Hints: c.Hints})
		if err != nil {
			return nil, &chainError{attempts: attempts, err: err}
		}
		return json.Marshal(metadataRecord{
			Metadata: string(art.Data),
			Origin:   art.Origin,
			Source:   art.Source,
			Strategy: art.Strategy,
			Digest:   art.Digest.String(),
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, perrors.MetadataUnavailable(c.Name(), c.Key.Version, attemptsOf(err), err)
	}

	rec = &metadataRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeMetadataUnavailable, err, "cached metadata for %s", c)
	}
	if rec.parsed, err = pep.ParseMetadata([]byte(rec.Metadata)); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeMetadataUnavailable, err, "metadata for %s from %s", c, rec.Origin)
	}
	if pep.NormalizeName(rec.parsed.Name) != c.Name() {
		f.logger.Warn("metadata names another project", "candidate", c.String(), "name", rec.parsed.Name, "origin", rec.Origin)
	}

	f.mu.Lock()
	f.metadata[c.Key] = rec
	f.mu.Unlock()
	return rec, nil
}

// GetDependencies returns the dependencies of c that apply in env when the
// given extras are requested. The result is also stored on c.
func (f *Factory) GetDependencies(ctx context.Context, env *model.Environment, c *model.Candidate, extras []string) ([]model.Requirement, error) {
	rec, err := f.coreMetadata(ctx, c)
	if err != nil {
		return nil, err
	}
	policy := env.Policy()

	deps := []model.Requirement{}
	for _, raw := range rec.parsed.RequiresDist {
		req, keep, err := dependency(env, policy, raw, extras)
		if err != nil {
			if policy.InvalidRequiresDist == model.InvalidRaise || errors.Is(err, errURLPolicy) {
				return nil, perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "%s declares %q", c, raw)
			}
			f.logger.Debug("skipping dependency", "candidate", c.String(), "requirement", raw, "error", err)
			continue
		}
		if keep {
			deps = append(deps, req)
		}
	}
	c.SetDependencies(deps)
	return deps, nil
}

// errURLPolicy rejects a direct reference regardless of the invalid
// requires-dist policy.
var errURLPolicy = errors.New("direct reference rejected by policy")

// dependency turns one Requires-Dist entry into a requirement. keep is
// false when the marker excludes it or the URL policy drops it.
func dependency(env *model.Environment, policy model.Policy, raw string, extras []string) (req model.Requirement, keep bool, err error) {
	pr, err := pep.ParseRequirement(raw)
	if err != nil {
		return model.Requirement{}, false, err
	}
	req = model.FromPEP(pr)
	ok, err := req.Applies(env, extras)
	if err != nil || !ok {
		return model.Requirement{}, false, err
	}
	if !req.IsDirect() {
		return req, true, nil
	}

	switch policy.RequiresDistURL {
	case model.URLIgnore:
		pr.URL = ""
		return model.FromPEP(pr), true, nil
	case model.URLRaise:
		return model.Requirement{}, false, fmt.Errorf("%w: %q", errURLPolicy, req.URI())
	}
	if !schemeAllowed(req.URI(), policy.AllowedURLSchemes) {
		return model.Requirement{}, false, fmt.Errorf("%w: %q uses a scheme outside %v", errURLPolicy, req.URI(), policy.AllowedURLSchemes)
	}
	return req, true, nil
}

func schemeAllowed(raw string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	for _, s := range allowed {
		if strings.EqualFold(s, u.Scheme) {
			return true
		}
	}
	return false
}

// chainError carries the attempt list of a failed chain through the cache.
type chainError struct {
	attempts []perrors.Attempt
	err      error
}

func (e *chainError) Error() string { return e.err.Error() }
func (e *chainError) Unwrap() error { return e.err }

func attemptsOf(err error) []perrors.Attempt {
	var ce *chainError
	if errors.As(err, &ce) {
		return ce.attempts
	}
	return nil
}
