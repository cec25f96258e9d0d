package configfile_test

import (
	"fmt"
	"testing"

	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/pkg/configfile"
)

type Animal struct {
	Name string
	Age  int
}

func (a *Animal) Serialize(_ *morphon.Serializer) (*morphon.Map, error) {
	return morphon.MapOf("name", a.Name, "age", a.Age), nil
}

func (a *Animal) Deserialize(_ *morphon.Serializer, attrs *morphon.Map) error {
	name, err := morphon.Required[string](attrs, "name")
	if err != nil {
		return err
	}
	age, err := morphon.Optional(attrs, "age", 0)
	if err != nil {
		return err
	}
	a.Name, a.Age = name, age
	return nil
}

type Cat struct {
	Animal
	Color string
}

func (c *Cat) Serialize(s *morphon.Serializer) (*morphon.Map, error) {
	base, err := c.Animal.Serialize(s)
	if err != nil {
		return nil, err
	}
	return base.Set("color", morphon.String(c.Color)), nil
}

func (c *Cat) Deserialize(s *morphon.Serializer, attrs *morphon.Map) error {
	if err := c.Animal.Deserialize(s, attrs); err != nil {
		return err
	}
	color, err := morphon.Optional(attrs, "color", "")
	c.Color = color
	return err
}

type Texture struct {
	Path string
}

func (t *Texture) ResourcePath() string { return t.Path }

type window struct {
	Title      string `json:"title"`
	Width      int    `json:"width"`
	Fullscreen bool   `json:"fullscreen"`
}

type diagnosticRecorder struct {
	diags []morphon.Diagnostic
}

func (r *diagnosticRecorder) LogDiagnostic(d morphon.Diagnostic) {
	r.diags = append(r.diags, d)
}

func newSerializer(t testing.TB, logger morphon.DiagnosticLogger, textures ...string) *morphon.Serializer {
	t.Helper()
	registry := morphon.NewRegistry()
	if err := morphon.RegisterType[Animal](registry, "pkg.Animal"); err != nil {
		t.Fatalf("register animal: %v", err)
	}
	if err := morphon.RegisterType[Cat](registry, "pkg.Cat"); err != nil {
		t.Fatalf("register cat: %v", err)
	}
	registry.Seal()

	known := map[string]bool{}
	for _, path := range textures {
		known[path] = true
	}
	loader := morphon.AssetLoaderFunc(func(path string) (any, error) {
		if !known[path] {
			return nil, fmt.Errorf("%s: %w", path, morphon.ErrAssetNotFound)
		}
		return &Texture{Path: path}, nil
	})

	return morphon.New(
		morphon.WithRegistry(registry),
		morphon.WithAssetLoader(loader),
		morphon.WithDiagnosticLogger(logger),
	)
}

func newFile(t testing.TB, opts ...configfile.Option) (*configfile.File, *diagnosticRecorder) {
	t.Helper()
	recorder := &diagnosticRecorder{}
	base := []configfile.Option{
		configfile.WithSerializer(newSerializer(t, recorder, "res://rex.png")),
		configfile.WithDiagnosticLogger(recorder),
	}
	return configfile.New(append(base, opts...)...), recorder
}

// populate fills f with one value of every kind the document can hold.
func populate(t testing.TB, f *configfile.File) {
	t.Helper()
	steps := []error{
		f.Set("app", "title", "Morphon"),
		f.Set("app", "volume", 0.75),
		f.Set("app", "retries", 3),
		f.Set("app", "debug", true),
		f.Set("app", "nothing", nil),
		f.Set("app", "tags", []string{"a", "b"}),
		f.Set("display", "window", window{Title: "Main", Width: 1280, Fullscreen: true}),
		f.SetObject("pets", "tom", &Cat{Animal: Animal{Name: "Tom", Age: 3}, Color: "#ff0000"}),
		configfile.SetList(f, "pets", "litter", []*Cat{
			{Animal: Animal{Name: "A", Age: 1}, Color: "black"},
			{Animal: Animal{Name: "B", Age: 1}, Color: "white"},
		}),
		f.Set("assets", "portrait", &Texture{Path: "res://rex.png"}),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("populate step %d: %v", i, err)
		}
	}
}

// assertSameDocument compares every section and key of two documents.
func assertSameDocument(t testing.TB, want, got *configfile.File) {
	t.Helper()
	if fmt.Sprint(want.Sections()) != fmt.Sprint(got.Sections()) {
		t.Fatalf("sections differ: want %v got %v", want.Sections(), got.Sections())
	}
	for _, section := range want.Sections() {
		if fmt.Sprint(want.SectionKeys(section)) != fmt.Sprint(got.SectionKeys(section)) {
			t.Fatalf("keys of %q differ: want %v got %v", section, want.SectionKeys(section), got.SectionKeys(section))
		}
		for _, key := range want.SectionKeys(section) {
			a, _ := want.Value(section, key)
			b, _ := got.Value(section, key)
			if !a.Equal(b) {
				t.Fatalf("%s.%s differs: want %v got %v", section, key, a, b)
			}
		}
	}
}
