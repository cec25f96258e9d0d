package morphon_test

import (
	"errors"
	"strings"
	"testing"

	morphon "github.com/goliatone/go-morphon"
	"github.com/goliatone/go-morphon/internal/testutil"
)

func newTestSerializer(t *testing.T, opts ...morphon.Option) (*morphon.Serializer, *diagnosticRecorder) {
	t.Helper()
	recorder := &diagnosticRecorder{}
	base := []morphon.Option{
		morphon.WithRegistry(newTestRegistry(t)),
		morphon.WithDiagnosticLogger(recorder),
	}
	return morphon.New(append(base, opts...)...), recorder
}

func TestSerializeCatScenario(t *testing.T) {
	s, _ := newTestSerializer(t)
	cat := &Cat{Animal: Animal{Name: "Tom", Age: 3}, Color: "#ff0000"}

	attrs, err := s.SerializeOne(cat)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	want := morphon.NewMap().
		Set("Type", morphon.String("pkg.Cat")).
		Set("name", morphon.String("Tom")).
		Set("age", morphon.Int(3)).
		Set("color", morphon.String("#ff0000"))
	if !attrs.Equal(want) {
		t.Fatalf("expected %v, got %v", morphon.MapValue(want), morphon.MapValue(attrs))
	}
	if keys := attrs.Keys(); keys[0] != morphon.TypeKey {
		t.Fatalf("type tag should come first, got %v", keys)
	}

	obj, err := s.DeserializeOne(morphon.MapValue(attrs))
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	got, ok := obj.(*Cat)
	if !ok {
		t.Fatalf("expected *Cat, got %T", obj)
	}
	if *got != *cat {
		t.Fatalf("expected %+v, got %+v", *cat, *got)
	}
}

func TestRoundTripThroughText(t *testing.T) {
	s, recorder := newTestSerializer(t, morphon.WithAssetLoader(textureLoader("res://rex.png")))
	dog := &Dog{
		Animal:   Animal{Name: "Rex", Age: 5},
		Friends:  []*Cat{{Animal: Animal{Name: "Tom", Age: 3}, Color: "#ff0000"}},
		Portrait: &Texture{Path: "res://rex.png"},
	}

	attrs, err := s.SerializeOne(dog)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	encoded, err := morphon.Encode(morphon.MapValue(attrs))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"Type":"pkg.Dog","name":"Rex","age":5,"friends":[{"Type":"pkg.Cat","name":"Tom","age":3,"color":"#ff0000"}],"portrait":"res://rex.png"}`
	if string(encoded) != want {
		t.Fatalf("expected\n%s\ngot\n%s", want, encoded)
	}

	decoded, err := morphon.Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := morphon.DeserializeAs[*Dog](s, decoded)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if got.Name != "Rex" || got.Age != 5 {
		t.Fatalf("unexpected base fields %+v", got.Animal)
	}
	if len(got.Friends) != 1 || *got.Friends[0] != *dog.Friends[0] {
		t.Fatalf("unexpected friends %+v", got.Friends)
	}
	if got.Portrait == nil || got.Portrait.Path != "res://rex.png" {
		t.Fatalf("portrait should be loaded through the asset loader, got %+v", got.Portrait)
	}
	if len(recorder.diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", recorder.diags)
	}
}

func TestNilHandleRoundTripsAsNull(t *testing.T) {
	s, _ := newTestSerializer(t)

	attrs, err := s.SerializeOne(&Dog{Animal: Animal{Name: "Rex"}})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if v, _ := attrs.Get("portrait"); !v.IsNull() {
		t.Fatalf("nil portrait should be null, got %v", v)
	}

	got, err := morphon.DeserializeAs[*Dog](s, morphon.MapValue(attrs))
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.Portrait != nil || got.PortraitRef != "" {
		t.Fatalf("expected empty portrait, got %+v", got)
	}
}

func TestUnresolvedReferenceIsDiagnosedNotFatal(t *testing.T) {
	s, recorder := newTestSerializer(t, morphon.WithAssetLoader(textureLoader()))

	attrs := morphon.MapOf("Type", "pkg.Dog", "name", "Rex", "portrait", "res://gone.png")
	got, err := morphon.DeserializeAs[*Dog](s, morphon.MapValue(attrs))
	if err != nil {
		t.Fatalf("unresolved reference must not fail deserialization: %v", err)
	}
	if got.Portrait != nil || got.PortraitRef != "res://gone.png" {
		t.Fatalf("expected raw path to be kept, got %+v", got)
	}
	if len(recorder.diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", recorder.diags)
	}
	diag := recorder.diags[0]
	if diag.Tag != "pkg.Dog" || diag.Key != "portrait" || !errors.Is(diag.Err, morphon.ErrUnresolvedReference) {
		t.Fatalf("unexpected diagnostic %+v", diag)
	}
}

func TestDeserializeOneFailures(t *testing.T) {
	s, _ := newTestSerializer(t)
	cases := []struct {
		name  string
		input morphon.Value
		want  error
	}{
		{"not a map", morphon.List(), morphon.ErrInvalidData},
		{"missing tag", morphon.MapValue(morphon.MapOf("name", "Tom")), morphon.ErrMissingTypeTag},
		{"tag not a string", morphon.MapValue(morphon.MapOf("Type", 3)), morphon.ErrInvalidData},
		{"unknown tag", morphon.MapValue(morphon.MapOf("Type", "pkg.Ghost")), morphon.ErrUnknownType},
		{"missing required", morphon.MapValue(morphon.MapOf("Type", "pkg.Animal")), morphon.ErrMissingField},
		{"malformed field", morphon.MapValue(morphon.MapOf("Type", "pkg.Animal", "name", "Tom", "age", "3")), morphon.ErrTypeMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obj, err := s.DeserializeOne(tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if obj != nil {
				t.Fatalf("no object should be returned, got %T", obj)
			}
		})
	}
}

func TestDeserializeOneReportsTag(t *testing.T) {
	s, _ := newTestSerializer(t)
	_, err := s.DeserializeOne(morphon.MapValue(morphon.MapOf("Type", "pkg.Animal")))

	var merr *morphon.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected *morphon.Error, got %T", err)
	}
	if merr.Tag != "pkg.Animal" || merr.Key != "name" {
		t.Fatalf("expected tag and key metadata, got %+v", merr)
	}
}

func TestSerializeOneRequiresRegisteredType(t *testing.T) {
	s := morphon.New(morphon.WithRegistry(morphon.NewRegistry()))
	if _, err := s.SerializeOne(&Cat{}); !errors.Is(err, morphon.ErrUnknownType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
}

func TestDeserializeManyPartialFailure(t *testing.T) {
	s, recorder := newTestSerializer(t)

	first, _ := s.SerializeOne(&Cat{Animal: Animal{Name: "Tom", Age: 3}})
	second, _ := s.SerializeOne(&Cat{Animal: Animal{Name: "Felix", Age: 2}})
	list := morphon.List(
		morphon.MapValue(first),
		morphon.MapValue(morphon.MapOf("Type", "pkg.Ghost")),
		morphon.MapValue(second),
	)

	objs, diags, err := s.DeserializeMany(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objs))
	}
	if objs[0].(*Cat).Name != "Tom" || objs[1].(*Cat).Name != "Felix" {
		t.Fatalf("objects should keep their relative order")
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %v", diags)
	}
	if diags[0].Index != 1 || diags[0].Tag != "pkg.Ghost" || !errors.Is(diags[0].Err, morphon.ErrUnknownType) {
		t.Fatalf("unexpected diagnostic %+v", diags[0])
	}
	if len(recorder.diags) != 1 {
		t.Fatalf("skipped element should also be logged, got %v", recorder.diags)
	}

	if _, _, err := s.DeserializeMany(morphon.MapValue(first)); !errors.Is(err, morphon.ErrInvalidData) {
		t.Fatalf("non-list input should fail, got %v", err)
	}
}

func TestSerializeManyPreservesOrder(t *testing.T) {
	s, _ := newTestSerializer(t)
	list, err := s.SerializeMany(&Animal{Name: "a"}, &Cat{Animal: Animal{Name: "b"}}, &Animal{Name: "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, _ := list.AsList()
	for i, want := range []string{"a", "b", "c"} {
		attrs, _ := items[i].AsMap()
		if name, _ := morphon.Required[string](attrs, "name"); name != want {
			t.Fatalf("item %d: expected %q, got %q", i, want, name)
		}
	}

	if _, err := s.SerializeMany(&Animal{}, (*Cat)(nil)); !errors.Is(err, morphon.ErrInvalidData) {
		t.Fatalf("nil element should abort, got %v", err)
	}
}

func TestDeserializeSliceFiltersByType(t *testing.T) {
	s, _ := newTestSerializer(t)
	list, err := s.SerializeMany(&Cat{Animal: Animal{Name: "Tom"}}, &Dog{Animal: Animal{Name: "Rex"}})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	cats, diags, err := morphon.DeserializeSlice[*Cat](s, list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Tom" {
		t.Fatalf("expected only Tom, got %v", cats)
	}
	if len(diags) != 1 || !errors.Is(diags[0].Err, morphon.ErrTypeMismatch) {
		t.Fatalf("expected a type mismatch diagnostic, got %v", diags)
	}

	catMap, _ := s.SerializeOne(&Cat{})
	if _, err := morphon.DeserializeAs[*Dog](s, morphon.MapValue(catMap)); !errors.Is(err, morphon.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestDeserializeSliceReportsListPositions(t *testing.T) {
	s, _ := newTestSerializer(t)
	cat, _ := s.SerializeOne(&Cat{Animal: Animal{Name: "Tom"}})
	animal, _ := s.SerializeOne(&Animal{Name: "Generic"})
	list := morphon.List(
		morphon.MapValue(morphon.MapOf("Type", "pkg.Nope")),
		morphon.MapValue(cat),
		morphon.MapValue(animal),
	)

	cats, diags, err := morphon.DeserializeSlice[*Cat](s, list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Tom" {
		t.Fatalf("expected only Tom, got %v", cats)
	}
	if len(diags) != 2 {
		t.Fatalf("expected two diagnostics, got %v", diags)
	}
	if diags[0].Index != 0 || diags[0].Tag != "pkg.Nope" || !errors.Is(diags[0].Err, morphon.ErrUnknownType) {
		t.Fatalf("unexpected first diagnostic %+v", diags[0])
	}
	if diags[1].Index != 2 || diags[1].Tag != "pkg.Animal" || !errors.Is(diags[1].Err, morphon.ErrTypeMismatch) {
		t.Fatalf("unexpected second diagnostic %+v", diags[1])
	}
}

func TestMarshal(t *testing.T) {
	s, _ := newTestSerializer(t)

	cases := []struct {
		name string
		in   any
		want morphon.Value
	}{
		{"shared resource", &Texture{Path: "res://a.png"}, morphon.String("res://a.png")},
		{"nil object", (*Cat)(nil), morphon.Null()},
		{"native", map[string]any{"n": 1}, morphon.MapValue(morphon.MapOf("n", 1))},
		{"object", &Animal{Name: "a", Age: 1}, morphon.MapValue(morphon.MapOf("Type", "pkg.Animal", "name", "a", "age", 1))},
		{"typed slice", []*Animal{{Name: "a"}}, morphon.List(morphon.MapValue(morphon.MapOf("Type", "pkg.Animal", "name", "a", "age", 0)))},
		{"native slice of handles", []any{&Texture{Path: "res://b.png"}}, morphon.List(morphon.String("res://b.png"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Marshal(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMarshalRejectsNestedHandles(t *testing.T) {
	s, _ := newTestSerializer(t)
	tex := &Texture{Path: "res://a.png"}

	cases := map[string]struct {
		in   any
		path string
	}{
		"map value":        {in: map[string]any{"tex": tex}, path: `"tex"`},
		"list inside list": {in: []any{[]any{tex}}, path: `"[0][0]"`},
		"map inside list":  {in: []any{map[string]any{"tex": tex}}, path: `"[0].tex"`},
		"value":            {in: morphon.MapValue(morphon.NewMap().Set("tex", morphon.Handle(tex))), path: `"tex"`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Marshal(tc.in)
			if !errors.Is(err, morphon.ErrInvalidData) {
				t.Fatalf("expected invalid data, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.path) {
				t.Fatalf("expected error to name %s, got %v", tc.path, err)
			}
		})
	}
}

func TestSerializeOneRejectsNestedHandles(t *testing.T) {
	s, _ := newTestSerializer(t)
	_, err := s.SerializeOne(&Holder{Inner: morphon.NewMap().Set("tex", morphon.Handle(&Texture{Path: "res://a.png"}))})
	if !errors.Is(err, morphon.ErrInvalidData) {
		t.Fatalf("expected invalid data, got %v", err)
	}
	var merr *morphon.Error
	if !errors.As(err, &merr) || merr.Key != "inner" {
		t.Fatalf("expected error keyed by attribute, got %v", err)
	}
}

func TestSlogDiagnosticLogger(t *testing.T) {
	logger, buf := testutil.NewBufferLogger()
	s := morphon.New(
		morphon.WithRegistry(newTestRegistry(t)),
		morphon.WithSlogLogger(logger),
	)

	if _, _, err := s.DeserializeMany(morphon.List(morphon.MapValue(morphon.MapOf("Type", "pkg.Ghost")))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"level=WARN", "morphon diagnostic", "op=deserialize", "tag=pkg.Ghost", "index=0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output %q", want, out)
		}
	}
}
