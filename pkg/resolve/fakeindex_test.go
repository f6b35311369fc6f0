package resolve

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/wheelres/pkg/index"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/pep"
	"github.com/matzehuels/wheelres/pkg/strategy"
)

// wheel describes one file served by a fakeIndex.
type wheel struct {
	project        string
	version        string
	tag            string // compressed tag triple, e.g. "py3-none-any"
	deps           []string
	requiresPython string
	yanked         bool
	sidecar        bool // serve <file>.metadata and advertise it
	missing        bool // listed, but the download 404s
}

func (w wheel) filename() string {
	return strings.ReplaceAll(w.project, "-", "_") + "-" + w.version + "-" + w.tag + ".whl"
}

func (w wheel) metadata() []byte {
	var b strings.Builder
	b.WriteString("Metadata-Version: 2.1\n")
	b.WriteString("Name: " + w.project + "\n")
	b.WriteString("Version: " + w.version + "\n")
	if w.requiresPython != "" {
		b.WriteString("Requires-Python: " + w.requiresPython + "\n")
	}
	for _, d := range w.deps {
		b.WriteString("Requires-Dist: " + d + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

func (w wheel) archive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	dist := strings.ReplaceAll(w.project, "-", "_") + "-" + w.version + ".dist-info/"
	for name, body := range map[string][]byte{
		dist + "METADATA": w.metadata(),
		dist + "WHEEL":    []byte("Wheel-Version: 1.0\n"),
	} {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(body)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fakeIndex is a PEP 691 index with file downloads and sidecar metadata,
// recording every request path.
type fakeIndex struct {
	srv      *httptest.Server
	projects map[string][]wheel
	archives map[string][]byte
	byFile   map[string]wheel

	mu    sync.Mutex
	calls map[string]int
	// reverse lists files in reverse order, for order-independence tests.
	reverse bool
	// stall holds every wheel download this long before answering.
	stall time.Duration
}

func newFakeIndex(t *testing.T, wheels ...wheel) *fakeIndex {
	t.Helper()
	fi := &fakeIndex{
		projects: make(map[string][]wheel),
		archives: make(map[string][]byte),
		byFile:   make(map[string]wheel),
		calls:    make(map[string]int),
	}
	for _, w := range wheels {
		name := pep.NormalizeName(w.project)
		fi.projects[name] = append(fi.projects[name], w)
		fi.archives[w.filename()] = w.archive(t)
		fi.byFile[w.filename()] = w
	}

	r := chi.NewRouter()
	r.Use(fi.record)
	r.Get("/simple/{project}/", fi.listing)
	r.Get("/files/{file}", fi.download)
	fi.srv = httptest.NewServer(r)
	t.Cleanup(fi.srv.Close)
	return fi
}

func (fi *fakeIndex) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fi.mu.Lock()
		fi.calls[r.URL.Path]++
		fi.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (fi *fakeIndex) base() string { return fi.srv.URL + "/simple" }

func (fi *fakeIndex) fileURL(filename string) string { return fi.srv.URL + "/files/" + filename }

func (fi *fakeIndex) setReverse(v bool) {
	fi.mu.Lock()
	fi.reverse = v
	fi.mu.Unlock()
}

// count returns how many requests hit path.
func (fi *fakeIndex) setStall(d time.Duration) {
	fi.mu.Lock()
	fi.stall = d
	fi.mu.Unlock()
}

func (fi *fakeIndex) count(path string) int {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	return fi.calls[path]
}

// total returns the number of requests served.
func (fi *fakeIndex) total() int {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	n := 0
	for _, c := range fi.calls {
		n += c
	}
	return n
}

func (fi *fakeIndex) listing(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "project")
	wheels, ok := fi.projects[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	files := make([]index.File, 0, len(wheels))
	for _, wh := range wheels {
		f := index.File{
			Filename:       wh.filename(),
			URL:            "../../files/" + wh.filename(),
			Hashes:         map[string]string{"sha256": sha256Hex(fi.archives[wh.filename()])},
			RequiresPython: wh.requiresPython,
			Yanked:         index.Yanked{Yanked: wh.yanked},
			CoreMetadata:   &index.CoreMetadata{},
		}
		if wh.sidecar {
			f.CoreMetadata = &index.CoreMetadata{Available: true, Hashes: map[string]string{"sha256": sha256Hex(wh.metadata())}}
		}
		files = append(files, f)
	}
	fi.mu.Lock()
	reverse := fi.reverse
	fi.mu.Unlock()
	sort.SliceStable(files, func(i, j int) bool {
		if reverse {
			return files[i].Filename > files[j].Filename
		}
		return files[i].Filename < files[j].Filename
	})
	w.Header().Set("Content-Type", index.SimpleJSONType)
	json.NewEncoder(w).Encode(index.Project{Name: name, Files: files})
}

func (fi *fakeIndex) download(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	if name, ok := strings.CutSuffix(file, ".metadata"); ok {
		wh, found := fi.byFile[name]
		if !found || !wh.sidecar {
			http.NotFound(w, r)
			return
		}
		w.Write(wh.metadata())
		return
	}
	wh, found := fi.byFile[file]
	if !found || wh.missing {
		http.NotFound(w, r)
		return
	}
	fi.mu.Lock()
	stall := fi.stall
	fi.mu.Unlock()
	if stall > 0 {
		select {
		case <-time.After(stall):
		case <-r.Context().Done():
			return
		}
	}
	w.Write(fi.archives[file])
}

// linuxEnv accepts a CPython 3.11 Linux wheel before a pure one.
func linuxEnv(t *testing.T) *model.Environment {
	return testEnv(t, "cp311-cp311-linux_x86_64", "py3-none-any")
}

func testEnv(t *testing.T, accepted ...string) *model.Environment {
	t.Helper()
	var ts []pep.Tag
	for _, s := range accepted {
		tag, err := pep.ParseTag(s)
		if err != nil {
			t.Fatalf("ParseTag(%s): %v", s, err)
		}
		ts = append(ts, tag)
	}
	env, err := model.NewEnvironment(strings.Join(accepted, ","), ts, pep.MarkerEnv{
		"python_version":      "3.11",
		"python_full_version": "3.11.4",
		"sys_platform":        "linux",
		"platform_system":     "Linux",
		"platform_machine":    "x86_64",
		"os_name":             "posix",
	}, model.Policy{})
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func newTestEngine(t *testing.T, fi *fakeIndex, opts Options) *Engine {
	t.Helper()
	set, err := strategy.Default().Plan(nil, strategy.Deps{})
	if err != nil {
		t.Fatal(err)
	}
	opts.IndexBase = fi.base()
	e, err := NewEngine(Config{Strategies: set, Options: opts})
	if err != nil {
		t.Fatal(err)
	}
	return e
}
