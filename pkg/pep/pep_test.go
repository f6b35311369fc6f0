package pep

import (
	"reflect"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"requests", "requests"},
		{"Flask", "flask"},
		{"typing_extensions", "typing-extensions"},
		{"zope.interface", "zope-interface"},
		{"A__b-.C", "a-b-c"},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.10", "1.9", 1},
		{"1.0", "2.0", -1},
		{"1.0rc1", "1.0", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := MustParseVersion(tt.a).Compare(MustParseVersion(tt.b)); got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsPreRelease(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{"1.0", false},
		{"1.0.post1", false},
		{"1.0a1", true},
		{"1.0b2", true},
		{"1.0rc1", true},
		{"1.0.dev0", true},
		{"2.0+local.dev", false},
	}
	for _, tt := range tests {
		t.Run(tt.v, func(t *testing.T) {
			if got := MustParseVersion(tt.v).IsPreRelease(); got != tt.want {
				t.Errorf("IsPreRelease(%s) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestSpecifierSet(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"", "0.1", true},
		{">=1.0", "1.0", true},
		{">=1.0", "0.9", false},
		{">=1.0,<2", "1.5", true},
		{">=1.0,<2", "2.0", false},
		{"==1.0", "1.0", true},
		{"== 1.0", "1.1", false},
		{"(>=2.0)", "2.1", true},
		{"!=1.5", "1.5", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec+"@"+tt.version, func(t *testing.T) {
			s, err := ParseSpecifiers(tt.spec)
			if err != nil {
				t.Fatalf("ParseSpecifiers(%q) error = %v", tt.spec, err)
			}
			if got := s.Contains(MustParseVersion(tt.version)); got != tt.want {
				t.Errorf("Contains(%s) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestSpecifierSetString(t *testing.T) {
	s, err := ParseSpecifiers(" >= 1.0 , < 2 ")
	if err != nil {
		t.Fatal(err)
	}
	if s.String() != ">=1.0,<2" {
		t.Errorf("String() = %q, want %q", s.String(), ">=1.0,<2")
	}
	if s.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		input      string
		wantName   string
		wantExtras []string
		wantSpec   string
		wantURL    string
		wantMarker string
	}{
		{"requests", "requests", nil, "", "", ""},
		{"requests>=2.28", "requests", nil, ">=2.28", "", ""},
		{"requests[socks,Security]>=2.28,<3", "requests", []string{"security", "socks"}, ">=2.28,<3", "", ""},
		{`six; python_version < "3"`, "six", nil, "", "", `python_version < "3"`},
		{"name (>=1.0)", "name", nil, ">=1.0", "", ""},
		{"pkg @ https://host/pkg-1.0-py3-none-any.whl", "pkg", nil, "", "https://host/pkg-1.0-py3-none-any.whl", ""},
		{`pkg @ https://host/p.whl ; sys_platform == "linux"`, "pkg", nil, "", "https://host/p.whl", `sys_platform == "linux"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			req, err := ParseRequirement(tt.input)
			if err != nil {
				t.Fatalf("ParseRequirement(%q) error = %v", tt.input, err)
			}
			if req.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", req.Name, tt.wantName)
			}
			if !reflect.DeepEqual(req.Extras, tt.wantExtras) {
				t.Errorf("Extras = %v, want %v", req.Extras, tt.wantExtras)
			}
			if req.Specifiers.String() != tt.wantSpec {
				t.Errorf("Specifiers = %q, want %q", req.Specifiers.String(), tt.wantSpec)
			}
			if req.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", req.URL, tt.wantURL)
			}
			if req.Marker.String() != tt.wantMarker {
				t.Errorf("Marker = %q, want %q", req.Marker.String(), tt.wantMarker)
			}
		})
	}
}

func TestParseRequirementInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		">=1.0",
		"pkg[unterminated",
		"pkg >=>=1",
		`pkg; bogus_var == "1"`,
		`pkg; python_version >= "3.8`,
		"pkg @ ",
	} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseRequirement(input); err == nil {
				t.Errorf("ParseRequirement(%q) error = nil, want error", input)
			}
		})
	}
}

func TestMarkerEvaluate(t *testing.T) {
	env := MarkerEnv{
		"python_version":      "3.11",
		"python_full_version": "3.11.4",
		"sys_platform":        "linux",
		"platform_machine":    "x86_64",
		"implementation_name": "cpython",
	}
	tests := []struct {
		marker string
		want   bool
	}{
		{`python_version >= "3.8"`, true},
		{`python_version < "3.10"`, false},
		{`python_version > "3.9"`, true},
		{`sys_platform == "win32"`, false},
		{`sys_platform != "win32"`, true},
		{`sys_platform == "win32" or python_version >= "3"`, true},
		{`(sys_platform == "linux" and platform_machine == "x86_64") or os_name == "nt"`, true},
		{`"linux" in sys_platform`, true},
		{`platform_machine not in "arm64 aarch64"`, true},
		{`extra == "test"`, false},
		{`python_full_version >= "3.11.5"`, false},
		{`sys.platform == "linux"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			m, err := ParseMarker(tt.marker)
			if err != nil {
				t.Fatalf("ParseMarker error = %v", err)
			}
			got, err := m.Evaluate(env)
			if err != nil {
				t.Fatalf("Evaluate error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%s) = %v, want %v", tt.marker, got, tt.want)
			}
		})
	}
}

func TestMarkerEvaluateExtras(t *testing.T) {
	m, err := ParseMarker(`extra == "Socks"`)
	if err != nil {
		t.Fatal(err)
	}
	env := MarkerEnv{"python_version": "3.11"}

	if ok, _ := m.EvaluateExtras(env, nil); ok {
		t.Error("EvaluateExtras(no extras) = true, want false")
	}
	if ok, _ := m.EvaluateExtras(env, []string{"socks"}); !ok {
		t.Error("EvaluateExtras(socks) = false, want true")
	}

	var nilMarker *Marker
	if ok, _ := nilMarker.EvaluateExtras(env, nil); !ok {
		t.Error("nil marker = false, want true")
	}
}

func TestParseWheelFilename(t *testing.T) {
	w, err := ParseWheelFilename("https://files.example/Foo_Bar-1.2.0-1-py2.py3-none-any.whl#sha256=abc")
	if err != nil {
		t.Fatalf("ParseWheelFilename error = %v", err)
	}
	if w.Name != "foo-bar" || w.Version != "1.2.0" || w.Build != "1" {
		t.Errorf("got %s %s %s, want foo-bar 1.2.0 1", w.Name, w.Version, w.Build)
	}
	want := []Tag{{"py2", "none", "any"}, {"py3", "none", "any"}}
	if !reflect.DeepEqual(w.Tags, want) {
		t.Errorf("Tags = %v, want %v", w.Tags, want)
	}
	if w.Filename != "Foo_Bar-1.2.0-1-py2.py3-none-any.whl" {
		t.Errorf("Filename = %q", w.Filename)
	}
}

func TestParseWheelFilenameInvalid(t *testing.T) {
	for _, name := range []string{
		"foo-1.0.tar.gz",
		"foo-1.0-py3-none.whl",
		"foo-1.0-x-py3-none-any.whl",
		"foo-notaversion!!-py3-none-any.whl",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseWheelFilename(name); err == nil {
				t.Errorf("ParseWheelFilename(%q) error = nil, want error", name)
			}
		})
	}
}

func TestParseTagSet(t *testing.T) {
	tags, err := ParseTagSet("cp311-abi3.none-manylinux1_x86_64")
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0].String() != "cp311-abi3-manylinux1_x86_64" || tags[1].ABI != "none" {
		t.Errorf("ParseTagSet = %v", tags)
	}
}

func TestParseMetadata(t *testing.T) {
	data := []byte(`Metadata-Version: 2.1
Name: app
Version: 1.0
Requires-Python: >=3.8
Requires-Dist: lib>=2.0
Requires-Dist: win-only; sys_platform == "win32"
Provides-Extra: Test

A long description that is ignored.
Requires-Dist: not-a-header
`)
	md, err := ParseMetadata(data)
	if err != nil {
		t.Fatalf("ParseMetadata error = %v", err)
	}
	if md.Name != "app" || md.Version != "1.0" || md.RequiresPython != ">=3.8" {
		t.Errorf("got %+v", md)
	}
	want := []string{"lib>=2.0", `win-only; sys_platform == "win32"`}
	if !reflect.DeepEqual(md.RequiresDist, want) {
		t.Errorf("RequiresDist = %v, want %v", md.RequiresDist, want)
	}
	if !reflect.DeepEqual(md.ProvidesExtra, []string{"test"}) {
		t.Errorf("ProvidesExtra = %v", md.ProvidesExtra)
	}
}

func TestParseMetadataMissingName(t *testing.T) {
	if _, err := ParseMetadata([]byte("Version: 1.0\n")); err == nil {
		t.Error("ParseMetadata error = nil, want error")
	}
}
