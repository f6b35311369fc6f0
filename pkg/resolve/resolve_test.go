package resolve

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/graph"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/strategy"
	"github.com/matzehuels/wheelres/pkg/trace"
)

func mustResolve(t *testing.T, e *Engine, env *model.Environment, roots ...string) *graph.Graph {
	t.Helper()
	res := e.Resolve(context.Background(), roots, env)
	if !res.OK() {
		t.Fatalf("Resolve(%v) failed: %v", roots, res.Err)
	}
	return res.Graph
}

func resolveErr(t *testing.T, e *Engine, env *model.Environment, roots ...string) *perrors.Error {
	t.Helper()
	res := e.Resolve(context.Background(), roots, env)
	if res.OK() {
		t.Fatalf("Resolve(%v) succeeded, want error", roots)
	}
	if res.Graph != nil {
		t.Errorf("failed result carries a graph")
	}
	return res.Err
}

func pins(g *graph.Graph) map[string]string {
	out := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.ID] = n.Version
	}
	return out
}

func TestResolvePrefersPlatformWheel(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any", deps: []string{"dep>=1.0"}},
		wheel{project: "app", version: "1.0", tag: "cp311-cp311-linux_x86_64", deps: []string{"dep>=1.0"}},
		wheel{project: "dep", version: "1.0", tag: "py3-none-any"},
		wheel{project: "dep", version: "2.0", tag: "py3-none-any", sidecar: true},
	)
	g := mustResolve(t, newTestEngine(t, fi, Options{}), linuxEnv(t), "app")

	app, ok := g.Node("app")
	if !ok {
		t.Fatal("app not in graph")
	}
	if app.Tag != "cp311-cp311-linux_x86_64" {
		t.Errorf("app.Tag = %q, want cp311-cp311-linux_x86_64", app.Tag)
	}
	if !strings.HasPrefix(app.Hash, "sha256:") {
		t.Errorf("app.Hash = %q, want sha256 digest", app.Hash)
	}
	if !strings.HasSuffix(app.MetadataOrigin, ".whl") {
		t.Errorf("app.MetadataOrigin = %q, want the wheel itself", app.MetadataOrigin)
	}

	dep, ok := g.Node("dep")
	if !ok {
		t.Fatal("dep not in graph")
	}
	if dep.Version != "2.0" {
		t.Errorf("dep.Version = %q, want 2.0", dep.Version)
	}
	if !strings.HasSuffix(dep.MetadataOrigin, ".whl.metadata") {
		t.Errorf("dep.MetadataOrigin = %q, want the sidecar", dep.MetadataOrigin)
	}
	if fi.count("/files/dep-2.0-py3-none-any.whl") != 0 {
		t.Error("dep wheel downloaded although a sidecar was advertised")
	}

	if len(g.Edges) != 1 || g.Edges[0].From != "app" || g.Edges[0].To != "dep" {
		t.Errorf("Edges = %+v, want app -> dep", g.Edges)
	}
	if len(g.Roots) != 1 || g.Roots[0].To != "app" {
		t.Errorf("Roots = %+v, want app", g.Roots)
	}
}

func TestResolveBacktracks(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "pkga", version: "1.0", tag: "py3-none-any", deps: []string{"pkgb"}},
		wheel{project: "pkga", version: "2.0", tag: "py3-none-any", deps: []string{"pkgb<2"}},
		wheel{project: "pkgb", version: "1.0", tag: "py3-none-any"},
		wheel{project: "pkgb", version: "2.0", tag: "py3-none-any"},
	)
	e := newTestEngine(t, fi, Options{})

	tests := []struct {
		name  string
		roots []string
		want  map[string]string
	}{
		{"Newest", []string{"pkga"}, map[string]string{"pkga": "2.0", "pkgb": "1.0"}},
		{"Conflict", []string{"pkga", "pkgb>=2"}, map[string]string{"pkga": "1.0", "pkgb": "2.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pins(mustResolve(t, e, linuxEnv(t), tt.roots...))
			if len(got) != len(tt.want) {
				t.Fatalf("pins = %v, want %v", got, tt.want)
			}
			for id, v := range tt.want {
				if got[id] != v {
					t.Errorf("%s = %q, want %q", id, got[id], v)
				}
			}
		})
	}
}

func TestResolveBacktracksToDependencyFreeVersion(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "pkgA", version: "1.0", tag: "py3-none-any"},
		wheel{project: "pkgA", version: "2.0", tag: "py3-none-any", deps: []string{"pkgB==1.0"}},
		wheel{project: "pkgB", version: "1.0", tag: "py3-none-any"},
		wheel{project: "pkgB", version: "2.0", tag: "py3-none-any"},
	)
	e := newTestEngine(t, fi, Options{})

	tests := []struct {
		name  string
		roots []string
		want  map[string]string
	}{
		{"NoPin", []string{"pkgA>=1.0"}, map[string]string{"pkga": "2.0", "pkgb": "1.0"}},
		{"ConflictingPin", []string{"pkgA>=1.0", "pkgB==2.0"}, map[string]string{"pkga": "1.0", "pkgb": "2.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pins(mustResolve(t, e, linuxEnv(t), tt.roots...))
			if len(got) != len(tt.want) {
				t.Fatalf("pins = %v, want %v", got, tt.want)
			}
			for id, v := range tt.want {
				if got[id] != v {
					t.Errorf("%s = %q, want %q", id, got[id], v)
				}
			}
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any", deps: []string{"left", "right"}},
		wheel{project: "left", version: "1.0", tag: "py3-none-any", deps: []string{"shared>=1"}},
		wheel{project: "right", version: "1.0", tag: "py3-none-any", deps: []string{"shared<3"}},
		wheel{project: "shared", version: "1.0", tag: "py3-none-any"},
		wheel{project: "shared", version: "2.0", tag: "py3-none-any", sidecar: true},
		wheel{project: "shared", version: "3.0", tag: "py3-none-any"},
	)

	first, err := mustResolve(t, newTestEngine(t, fi, Options{}), linuxEnv(t), "app").Marshal()
	if err != nil {
		t.Fatal(err)
	}
	fi.setReverse(true)
	second, err := mustResolve(t, newTestEngine(t, fi, Options{}), linuxEnv(t), "app").Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("graph depends on listing order:\n%s\n%s", first, second)
	}
}

func TestResolveMetadataUnavailable(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any", missing: true},
	)
	err := resolveErr(t, newTestEngine(t, fi, Options{}), linuxEnv(t), "app")
	if err.Code != perrors.ErrCodeMetadataUnavailable {
		t.Fatalf("Code = %s, want %s (%v)", err.Code, perrors.ErrCodeMetadataUnavailable, err)
	}
	if err.Project != "app" || err.Version != "1.0" {
		t.Errorf("Project, Version = %q, %q, want app, 1.0", err.Project, err.Version)
	}
	if len(err.Attempts) == 0 {
		t.Error("no strategy attempts recorded")
	}
	last := err.Attempts[len(err.Attempts)-1]
	if last.Strategy != strategy.NameWheelExtraction || last.Outcome != "error" {
		t.Errorf("last attempt = %+v, want %s error", last, strategy.NameWheelExtraction)
	}
}

func TestResolveWheelDownloadTimeout(t *testing.T) {
	fi := newFakeIndex(t, wheel{project: "app", version: "1.0", tag: "py3-none-any"})
	fi.setStall(2 * time.Second)

	set, err := strategy.Default().Plan([]strategy.Config{
		{Strategy: strategy.NameWheelHTTP, Options: strategy.Options{"timeout": "20ms"}},
	}, strategy.Deps{})
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(Config{Strategies: set, Options: Options{IndexBase: fi.base()}})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	start := time.Now()
	res := e.Resolve(ctx, []string{"app"}, linuxEnv(t))
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Resolve took %v after a 20ms download timeout", elapsed)
	}
	if res.OK() {
		t.Fatal("Resolve succeeded against a stalled wheel host")
	}
	if res.Err.Code != perrors.ErrCodeMetadataUnavailable {
		t.Fatalf("Code = %s, want %s (%v)", res.Err.Code, perrors.ErrCodeMetadataUnavailable, res.Err)
	}
	if res.Err.Project != "app" || res.Err.Version != "1.0" {
		t.Errorf("Project, Version = %q, %q, want app, 1.0", res.Err.Project, res.Err.Version)
	}
	if len(res.Err.Attempts) == 0 {
		t.Error("no strategy attempts recorded")
	}
	if n := fi.count("/files/app-1.0-py3-none-any.whl"); n > 5 {
		t.Errorf("wheel downloads = %d, want a bounded number", n)
	}
}

func TestResolveSkipsMarkerExcludedDependencies(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any", deps: []string{
			"winonly; sys_platform == 'win32'",
			"dep; python_version >= '3.8'",
		}},
		wheel{project: "dep", version: "1.0", tag: "py3-none-any"},
	)
	g := mustResolve(t, newTestEngine(t, fi, Options{}), linuxEnv(t), "app", "ignored; sys_platform == 'darwin'")

	if got := pins(g); len(got) != 2 || got["dep"] != "1.0" {
		t.Errorf("pins = %v, want app and dep", got)
	}
	for _, path := range []string{"/simple/winonly/", "/simple/ignored/"} {
		if n := fi.count(path); n != 0 {
			t.Errorf("%s fetched %d times, want 0", path, n)
		}
	}
	if len(g.Roots) != 1 {
		t.Errorf("Roots = %+v, want only app", g.Roots)
	}
}

func TestResolveExtras(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any", deps: []string{
			"dep",
			"clikit>=2; extra == 'cli'",
		}},
		wheel{project: "dep", version: "1.0", tag: "py3-none-any"},
		wheel{project: "clikit", version: "2.1", tag: "py3-none-any"},
	)
	e := newTestEngine(t, fi, Options{})

	plain := pins(mustResolve(t, e, linuxEnv(t), "app"))
	if _, ok := plain["clikit"]; ok {
		t.Errorf("pins = %v, clikit pulled in without the extra", plain)
	}

	g := mustResolve(t, e, linuxEnv(t), "app[cli]")
	if got := pins(g); got["clikit"] != "2.1" {
		t.Errorf("pins = %v, want clikit 2.1", got)
	}
	app, _ := g.Node("app")
	if len(app.Extras) != 1 || app.Extras[0] != "cli" {
		t.Errorf("app.Extras = %v, want [cli]", app.Extras)
	}
}

func TestResolveFiltersFiles(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "yanked", version: "1.0", tag: "py3-none-any"},
		wheel{project: "yanked", version: "2.0", tag: "py3-none-any", yanked: true},
		wheel{project: "modern", version: "1.0", tag: "py3-none-any"},
		wheel{project: "modern", version: "2.0", tag: "py3-none-any", requiresPython: ">=3.12"},
		wheel{project: "native", version: "1.0", tag: "py3-none-any"},
		wheel{project: "native", version: "2.0", tag: "cp312-cp312-win_amd64"},
		wheel{project: "pre", version: "1.0", tag: "py3-none-any"},
		wheel{project: "pre", version: "2.0b1", tag: "py3-none-any"},
	)
	e := newTestEngine(t, fi, Options{})

	tests := []struct {
		name string
		root string
		want string
	}{
		{"Yanked", "yanked", "1.0"},
		{"RequiresPython", "modern", "1.0"},
		{"UnsupportedTag", "native", "1.0"},
		{"PreRelease", "pre", "1.0"},
		{"PreReleaseRequested", "pre>=2.0b1", "2.0b1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustResolve(t, e, linuxEnv(t), tt.root)
			project := g.Roots[0].To
			if got := pins(g)[project]; got != tt.want {
				t.Errorf("%s = %q, want %q", project, got, tt.want)
			}
		})
	}
}

func TestResolveDirectReference(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any", deps: []string{"dep"}},
		wheel{project: "dep", version: "1.0", tag: "py3-none-any"},
		wheel{project: "dep", version: "2.0", tag: "py3-none-any"},
	)
	uri := fi.fileURL("dep-1.0-py3-none-any.whl")
	g := mustResolve(t, newTestEngine(t, fi, Options{PreferDirect: true}), linuxEnv(t), "app", "dep @ "+uri)

	dep, ok := g.Node("dep")
	if !ok {
		t.Fatal("dep not in graph")
	}
	if dep.Version != "1.0" || dep.URI != uri {
		t.Errorf("dep = %s @ %s, want 1.0 @ %s", dep.Version, dep.URI, uri)
	}
	if dep.Hash != "" {
		t.Errorf("dep.Hash = %q, want none without a hash fragment", dep.Hash)
	}
}

func TestResolveErrors(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any", deps: []string{"dep>=5"}},
		wheel{project: "dep", version: "1.0", tag: "py3-none-any"},
	)

	tests := []struct {
		name  string
		opts  Options
		roots []string
		want  perrors.Code
	}{
		{"InvalidRequirement", Options{}, []string{"app>=>1"}, perrors.ErrCodeInvalidRequirement},
		{"NotAWheel", Options{}, []string{"app @ https://example.com/app-1.0.tar.gz"}, perrors.ErrCodeInvalidRequirement},
		{"NoSuchVersion", Options{}, []string{"app>=5"}, perrors.ErrCodeUnsatisfiable},
		{"NoSuchVersionFastFail", Options{FastFail: true}, []string{"app>=5"}, perrors.ErrCodeUnsatisfiable},
		{"UnknownProject", Options{}, []string{"nosuch"}, perrors.ErrCodeUnsatisfiable},
		{"TransitiveConflict", Options{}, []string{"app"}, perrors.ErrCodeUnsatisfiable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := resolveErr(t, newTestEngine(t, fi, tt.opts), linuxEnv(t), tt.roots...)
			if err.Code != tt.want {
				t.Fatalf("Code = %s, want %s (%v)", err.Code, tt.want, err)
			}
			if tt.want == perrors.ErrCodeUnsatisfiable && len(err.Conflicts) == 0 {
				t.Error("no conflicts reported")
			}
		})
	}
}

func TestResolveInvalidRootMakesNoRequests(t *testing.T) {
	fi := newFakeIndex(t, wheel{project: "app", version: "1.0", tag: "py3-none-any"})
	err := resolveErr(t, newTestEngine(t, fi, Options{}), linuxEnv(t), "app", "bad name!")
	if err.Code != perrors.ErrCodeInvalidRequirement {
		t.Errorf("Code = %s, want %s", err.Code, perrors.ErrCodeInvalidRequirement)
	}
	if n := fi.total(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestResolveFastFailNamesRoot(t *testing.T) {
	fi := newFakeIndex(t, wheel{project: "native", version: "1.0", tag: "cp312-cp312-win_amd64"})
	err := resolveErr(t, newTestEngine(t, fi, Options{FastFail: true}), linuxEnv(t), "native")
	if err.Code != perrors.ErrCodeUnsatisfiable {
		t.Fatalf("Code = %s, want %s", err.Code, perrors.ErrCodeUnsatisfiable)
	}
	if len(err.Conflicts) != 1 || err.Conflicts[0].Parent != "" || err.Conflicts[0].Requirement != "native" {
		t.Errorf("Conflicts = %+v, want the native root", err.Conflicts)
	}
}

func TestResolveCancelled(t *testing.T) {
	fi := newFakeIndex(t, wheel{project: "app", version: "1.0", tag: "py3-none-any"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestEngine(t, fi, Options{}).Resolve(ctx, []string{"app"}, linuxEnv(t))
	if res.OK() {
		t.Fatal("Resolve succeeded on a cancelled context")
	}
	if res.Err.Code != perrors.ErrCodeCancelled {
		t.Errorf("Code = %s, want %s", res.Err.Code, perrors.ErrCodeCancelled)
	}
}

func TestResolveNoEnvironment(t *testing.T) {
	fi := newFakeIndex(t)
	err := resolveErr(t, newTestEngine(t, fi, Options{}), nil, "app")
	if err.Code != perrors.ErrCodeInvalidEnvironment {
		t.Errorf("Code = %s, want %s", err.Code, perrors.ErrCodeInvalidEnvironment)
	}
}

func TestResolveGraphCache(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any", deps: []string{"dep"}},
		wheel{project: "dep", version: "1.0", tag: "py3-none-any"},
	)
	e := newTestEngine(t, fi, Options{})
	env := linuxEnv(t)

	first := e.Resolve(context.Background(), []string{"app"}, env)
	if !first.OK() || first.Diagnostics.GraphCached {
		t.Fatalf("first resolve: err=%v cached=%v", first.Err, first.Diagnostics.GraphCached)
	}
	calls := fi.total()

	second := e.Resolve(context.Background(), []string{"app"}, env)
	if !second.OK() {
		t.Fatal(second.Err)
	}
	if !second.Diagnostics.GraphCached {
		t.Error("second resolve did not hit the graph cache")
	}
	if n := fi.total(); n != calls {
		t.Errorf("requests = %d after cache hit, want %d", n, calls)
	}
	a, _ := first.Graph.Marshal()
	b, _ := second.Graph.Marshal()
	if !bytes.Equal(a, b) {
		t.Errorf("cached graph differs:\n%s\n%s", a, b)
	}
}

func TestResolveSharesCacheAcrossEnvironments(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any"},
	)
	e := newTestEngine(t, fi, Options{})

	mustResolve(t, e, linuxEnv(t), "app")
	listings := fi.count("/simple/app/")
	mustResolve(t, e, testEnv(t, "py3-none-any"), "app")
	if n := fi.count("/simple/app/"); n != listings {
		t.Errorf("listing fetched %d times, want %d", n, listings)
	}
}

func TestResolveMany(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any"},
		wheel{project: "lib", version: "3.2", tag: "py3-none-any"},
	)
	e := newTestEngine(t, fi, Options{Concurrency: 2})
	env := linuxEnv(t)

	results := e.ResolveMany(context.Background(), []Request{
		{Roots: []string{"app"}, Environment: env},
		{Roots: []string{"app>=9"}, Environment: env},
		{Roots: []string{"lib"}, Environment: env},
	})
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if !results[0].OK() || pins(results[0].Graph)["app"] != "1.0" {
		t.Errorf("results[0] = %+v, want app 1.0", results[0])
	}
	if results[1].OK() || results[1].Err.Code != perrors.ErrCodeUnsatisfiable {
		t.Errorf("results[1].Err = %v, want %s", results[1].Err, perrors.ErrCodeUnsatisfiable)
	}
	if !results[2].OK() || pins(results[2].Graph)["lib"] != "3.2" {
		t.Errorf("results[2] = %+v, want lib 3.2", results[2])
	}
}

func TestResolveEmitsTrace(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "app", version: "1.0", tag: "py3-none-any", deps: []string{"dep"}},
		wheel{project: "dep", version: "1.0", tag: "py3-none-any"},
	)
	rec := &trace.Recorder{}
	set, err := strategy.Default().Plan(nil, strategy.Deps{})
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(Config{Strategies: set, Sink: rec, Options: Options{IndexBase: fi.base()}})
	if err != nil {
		t.Fatal(err)
	}

	res := e.Resolve(context.Background(), []string{"app"}, linuxEnv(t))
	if !res.OK() {
		t.Fatal(res.Err)
	}
	if n := rec.Count(trace.EventResolveDone); n != 1 {
		t.Errorf("%s events = %d, want 1", trace.EventResolveDone, n)
	}
	if n := rec.Count(trace.EventSolverPin); n != 2 {
		t.Errorf("%s events = %d, want 2", trace.EventSolverPin, n)
	}
	if rec.Count(trace.EventStrategyAttempt) == 0 {
		t.Errorf("no %s events", trace.EventStrategyAttempt)
	}
	for _, r := range rec.Records() {
		if r.RunID != res.RunID {
			t.Fatalf("event %s has run id %q, want %q", r.Event, r.RunID, res.RunID)
		}
	}
	if res.Diagnostics.Pins != 2 {
		t.Errorf("Diagnostics.Pins = %d, want 2", res.Diagnostics.Pins)
	}
}

func TestFindCandidatesIsCached(t *testing.T) {
	fi := newFakeIndex(t,
		wheel{project: "dep", version: "1.0", tag: "py3-none-any"},
		wheel{project: "dep", version: "1.5", tag: "cp311-cp311-linux_x86_64"},
		wheel{project: "dep", version: "1.5", tag: "py3-none-any"},
		wheel{project: "dep", version: "2.0", tag: "py3-none-any"},
	)
	set, err := strategy.Default().Plan(nil, strategy.Deps{})
	if err != nil {
		t.Fatal(err)
	}
	f := NewFactory(FactoryConfig{Strategies: set, IndexBase: fi.base()})
	env := linuxEnv(t)
	req, err := f.MakeRequirement("dep<2")
	if err != nil {
		t.Fatal(err)
	}

	first, err := f.FindCandidates(context.Background(), env, "dep", []model.Requirement{req}, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.FindCandidates(context.Background(), env, "dep", []model.Requirement{req}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := fi.count("/simple/dep/"); n != 1 {
		t.Errorf("listing fetched %d times, want 1", n)
	}

	want := []string{"dep-1.5-cp311-cp311-linux_x86_64.whl", "dep-1.0-py3-none-any.whl"}
	for _, got := range [][]*model.Candidate{first, second} {
		if len(got) != len(want) {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
		for i, c := range got {
			if c.Key.Filename != want[i] {
				t.Errorf("candidate[%d] = %s, want %s", i, c.Key.Filename, want[i])
			}
		}
	}

	excluded, err := f.FindCandidates(context.Background(), env, "dep", []model.Requirement{req}, first[:1])
	if err != nil {
		t.Fatal(err)
	}
	// Excluding one wheel of a release leaves its other wheels eligible.
	if len(excluded) != 2 || excluded[0].Key.Filename != "dep-1.5-py3-none-any.whl" {
		t.Errorf("candidates = %v, want the pure 1.5 wheel first", excluded)
	}
}
