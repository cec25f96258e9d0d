package configfile

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	morphon "github.com/goliatone/go-morphon"
	"gopkg.in/yaml.v3"
)

// Codec converts a whole document (section name -> attribute map) to and from
// bytes.
type Codec interface {
	Name() string
	Encode(doc *morphon.Map) ([]byte, error)
	Decode(data []byte) (*morphon.Map, error)
}

// JSONCodec writes the canonical text form with two-space indentation.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(doc *morphon.Map) ([]byte, error) {
	out, err := morphon.EncodeIndent(morphon.MapValue(doc), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func (JSONCodec) Decode(data []byte) (*morphon.Map, error) {
	v, err := morphon.Decode(data)
	if err != nil {
		return nil, err
	}
	return sectionsOf(v)
}

// YAMLCodec writes block-style YAML. Key order and the int/float distinction
// survive a round trip.
type YAMLCodec struct{}

func (YAMLCodec) Name() string { return "yaml" }

func (YAMLCodec) Encode(doc *morphon.Map) ([]byte, error) {
	node, err := yamlNode(morphon.MapValue(doc))
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

func (YAMLCodec) Decode(data []byte) (*morphon.Map, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", morphon.ErrDecodeFailure, err)
	}
	v, err := yamlValue(&root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", morphon.ErrDecodeFailure, err)
	}
	return sectionsOf(v)
}

// CodecForPath picks YAML for .yaml and .yml files and JSON for everything
// else.
func CodecForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLCodec{}
	default:
		return JSONCodec{}
	}
}

// CodecByName resolves "json" or "yaml"/"yml".
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("configfile: unknown codec %q", name)
	}
}

// sectionsOf checks that v is an object whose members are all objects.
func sectionsOf(v morphon.Value) (*morphon.Map, error) {
	doc, err := v.AsMap()
	if err != nil {
		return nil, fmt.Errorf("%w: document must be an object of sections, got %s", morphon.ErrDecodeFailure, v.Kind())
	}
	for name, section := range doc.All() {
		if section.Kind() != morphon.KindMap {
			return nil, fmt.Errorf("%w: section %q must be an object, got %s", morphon.ErrDecodeFailure, name, section.Kind())
		}
	}
	return doc, nil
}

func yamlNode(v morphon.Value) (*yaml.Node, error) {
	scalar := func(tag, value string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	}

	switch v.Kind() {
	case morphon.KindNull:
		return scalar("!!null", "null"), nil
	case morphon.KindBool:
		b, _ := v.AsBool()
		return scalar("!!bool", strconv.FormatBool(b)), nil
	case morphon.KindInt:
		i, _ := v.AsInt()
		return scalar("!!int", strconv.FormatInt(i, 10)), nil
	case morphon.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: cannot encode %v", morphon.ErrInvalidData, f)
		}
		text := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return scalar("!!float", text), nil
	case morphon.KindString:
		s, _ := v.AsString()
		return scalar("!!str", s), nil
	case morphon.KindList:
		items, _ := v.AsList()
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			child, err := yamlNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case morphon.KindMap:
		m, _ := v.AsMap()
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for key, item := range m.All() {
			child, err := yamlNode(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			node.Content = append(node.Content, scalar("!!str", key), child)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %s", morphon.ErrInvalidData, v.Kind())
	}
}

func yamlValue(node *yaml.Node) (morphon.Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return morphon.Null(), nil
		}
		return yamlValue(node.Content[0])
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	case yaml.SequenceNode:
		items := make([]morphon.Value, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := yamlValue(child)
			if err != nil {
				return morphon.Value{}, err
			}
			items = append(items, item)
		}
		return morphon.List(items...), nil
	case yaml.MappingNode:
		m := morphon.NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind != yaml.ScalarNode {
				return morphon.Value{}, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			item, err := yamlValue(node.Content[i+1])
			if err != nil {
				return morphon.Value{}, err
			}
			m.Set(key.Value, item)
		}
		return morphon.MapValue(m), nil
	case yaml.ScalarNode:
		return yamlScalar(node)
	default:
		return morphon.Value{}, fmt.Errorf("line %d: unsupported yaml node", node.Line)
	}
}

func yamlScalar(node *yaml.Node) (morphon.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return morphon.Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return morphon.Value{}, err
		}
		return morphon.Bool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return morphon.Value{}, err
		}
		return morphon.Int(i), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return morphon.Value{}, err
		}
		return morphon.Float(f), nil
	default:
		return morphon.String(node.Value), nil
	}
}
