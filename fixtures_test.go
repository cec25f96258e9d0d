package morphon_test

import (
	"fmt"
	"testing"

	morphon "github.com/goliatone/go-morphon"
)

type Animal struct {
	Name string
	Age  int
}

func (a *Animal) Serialize(_ *morphon.Serializer) (*morphon.Map, error) {
	return morphon.NewMap().
		Set("name", morphon.String(a.Name)).
		Set("age", morphon.Int(int64(a.Age))), nil
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
	return morphon.Merge(base, morphon.NewMap().Set("color", morphon.String(c.Color))), nil
}

func (c *Cat) Deserialize(s *morphon.Serializer, attrs *morphon.Map) error {
	if err := c.Animal.Deserialize(s, attrs); err != nil {
		return err
	}
	color, err := morphon.Optional(attrs, "color", "")
	if err != nil {
		return err
	}
	c.Color = color
	return nil
}

type Dog struct {
	Animal
	Friends  []*Cat
	Portrait *Texture
	// PortraitRef keeps the raw path when the portrait could not be loaded.
	PortraitRef string
}

func (d *Dog) Serialize(s *morphon.Serializer) (*morphon.Map, error) {
	attrs, err := d.Animal.Serialize(s)
	if err != nil {
		return nil, err
	}
	friends, err := morphon.SerializeSlice(s, d.Friends)
	if err != nil {
		return nil, err
	}
	attrs.Set("friends", friends)
	attrs.Set("portrait", morphon.Handle(d.Portrait))
	return attrs, nil
}

func (d *Dog) Deserialize(s *morphon.Serializer, attrs *morphon.Map) error {
	if err := d.Animal.Deserialize(s, attrs); err != nil {
		return err
	}
	if friends, ok := attrs.Get("friends"); ok {
		cats, _, err := morphon.DeserializeSlice[*Cat](s, friends)
		if err != nil {
			return err
		}
		d.Friends = cats
	}
	portrait, ok := attrs.Get("portrait")
	if !ok {
		return nil
	}
	if s.IsReference(portrait) {
		d.PortraitRef = portrait.String()
		return nil
	}
	texture, err := morphon.As[*Texture](portrait)
	if err != nil {
		return err
	}
	d.Portrait = texture
	return nil
}

// Texture is a resource handle. Local textures are owned by one document.
type Texture struct {
	Path  string
	Local bool
}

func (t *Texture) ResourcePath() string  { return t.Path }
func (t *Texture) LocalToDocument() bool { return t.Local }

// Palette is a local resource that is also serializable, so it gets inlined.
type Palette struct {
	Colors []string
}

func (p *Palette) ResourcePath() string  { return "" }
func (p *Palette) LocalToDocument() bool { return true }

func (p *Palette) Serialize(_ *morphon.Serializer) (*morphon.Map, error) {
	items := make([]morphon.Value, len(p.Colors))
	for i, c := range p.Colors {
		items[i] = morphon.String(c)
	}
	return morphon.NewMap().Set("colors", morphon.List(items...)), nil
}

func (p *Palette) Deserialize(_ *morphon.Serializer, attrs *morphon.Map) error {
	colors, err := morphon.Required[[]string](attrs, "colors")
	if err != nil {
		return err
	}
	p.Colors = colors
	return nil
}

// Holder stores an arbitrary attribute map under "inner".
type Holder struct {
	Inner *morphon.Map
}

func (h *Holder) Serialize(_ *morphon.Serializer) (*morphon.Map, error) {
	return morphon.NewMap().Set("inner", morphon.MapValue(h.Inner)), nil
}

func (h *Holder) Deserialize(_ *morphon.Serializer, attrs *morphon.Map) error {
	inner, err := morphon.Optional[*morphon.Map](attrs, "inner", nil)
	h.Inner = inner
	return err
}

func newTestRegistry(t testing.TB) *morphon.Registry {
	t.Helper()
	registry := morphon.NewRegistry()
	for tag, factory := range map[string]morphon.Factory{
		"pkg.Animal":  func() morphon.Serializable { return &Animal{} },
		"pkg.Cat":     func() morphon.Serializable { return &Cat{} },
		"pkg.Dog":     func() morphon.Serializable { return &Dog{} },
		"pkg.Palette": func() morphon.Serializable { return &Palette{} },
		"pkg.Holder":  func() morphon.Serializable { return &Holder{} },
	} {
		if err := registry.Register(tag, factory); err != nil {
			t.Fatalf("register %s: %v", tag, err)
		}
	}
	registry.Seal()
	return registry
}

// textureLoader serves textures for the given paths and reports everything
// else as missing.
func textureLoader(paths ...string) morphon.AssetLoader {
	known := map[string]bool{}
	for _, p := range paths {
		known[p] = true
	}
	return morphon.AssetLoaderFunc(func(path string) (any, error) {
		if !known[path] {
			return nil, fmt.Errorf("load %s: %w", path, morphon.ErrAssetNotFound)
		}
		return &Texture{Path: path}, nil
	})
}

type diagnosticRecorder struct {
	diags []morphon.Diagnostic
}

func (r *diagnosticRecorder) LogDiagnostic(d morphon.Diagnostic) {
	r.diags = append(r.diags, d)
}
