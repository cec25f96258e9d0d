package morphon

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// Encode writes v in the canonical compact JSON form. Map entries keep their
// insertion order, so encoding the same value twice yields identical bytes.
func Encode(v Value) ([]byte, error) {
	return EncodeIndent(v, "", "")
}

// EncodeIndent is like Encode but indents nested lists and maps.
func EncodeIndent(v Value, prefix, indent string) ([]byte, error) {
	enc := textEncoder{prefix: prefix, indent: indent}
	if err := enc.write(v, 0); err != nil {
		return nil, err
	}
	return enc.buf.Bytes(), nil
}

type textEncoder struct {
	buf    bytes.Buffer
	prefix string
	indent string
}

func (e *textEncoder) newline(depth int) {
	if e.indent == "" && e.prefix == "" {
		return
	}
	e.buf.WriteByte('\n')
	e.buf.WriteString(e.prefix)
	for i := 0; i < depth; i++ {
		e.buf.WriteString(e.indent)
	}
}

func (e *textEncoder) write(v Value, depth int) error {
	switch v.kind {
	case KindNull:
		e.buf.WriteString("null")
	case KindBool:
		e.buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		e.buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		text, err := formatFloat(v.f)
		if err != nil {
			return err
		}
		e.buf.WriteString(text)
	case KindString:
		e.buf.WriteString(quote(v.s))
	case KindList:
		if len(v.list) == 0 {
			e.buf.WriteString("[]")
			return nil
		}
		e.buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.newline(depth + 1)
			if err := e.write(item, depth+1); err != nil {
				return err
			}
		}
		e.newline(depth)
		e.buf.WriteByte(']')
	case KindMap:
		if v.m.Len() == 0 {
			e.buf.WriteString("{}")
			return nil
		}
		e.buf.WriteByte('{')
		first := true
		for key, item := range v.m.All() {
			if !first {
				e.buf.WriteByte(',')
			}
			first = false
			e.newline(depth + 1)
			e.buf.WriteString(quote(key))
			e.buf.WriteByte(':')
			if e.indent != "" {
				e.buf.WriteByte(' ')
			}
			if err := e.write(item, depth+1); err != nil {
				return wrapError("encode", "", key, err)
			}
		}
		e.newline(depth)
		e.buf.WriteByte('}')
	case KindHandle:
		return kindError(ErrInvalidData, "cannot encode %T handle, resolve references first", v.handle)
	default:
		return kindError(ErrInvalidData, "cannot encode %s", v.kind)
	}
	return nil
}

// formatFloat keeps a fraction or exponent on every float so the text decodes
// back as a float rather than an int.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", kindError(ErrInvalidData, "cannot encode %v", f)
	}
	text := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return text, nil
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// Decode parses the canonical text form. Object members keep document order;
// a repeated member name keeps the last value.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, kindError(ErrDecodeFailure, "%v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, kindError(ErrDecodeFailure, "unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, errors.New("object key is not a string")
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				m.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return MapValue(m), nil
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindList, list: items}, nil
		default:
			return Value{}, errors.New("unexpected delimiter " + t.String())
		}
	case string:
		return String(t), nil
	case json.Number:
		return numberValue(t.String())
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, errors.New("unexpected token")
	}
}

// numberValue keeps integral literals as ints and falls back to float when
// the literal has a fraction, an exponent, or overflows int64.
func numberValue(text string) (Value, error) {
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Value{}, kindError(ErrInvalidData, "invalid number %q", text)
	}
	return Float(f), nil
}

// MarshalJSON implements json.Marshaler using the canonical encoding.
func (v Value) MarshalJSON() ([]byte, error) {
	return Encode(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// MarshalJSON implements json.Marshaler using the canonical encoding.
func (m *Map) MarshalJSON() ([]byte, error) {
	return Encode(MapValue(m))
}

// UnmarshalJSON implements json.Unmarshaler. The payload must be an object.
func (m *Map) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	other, err := decoded.AsMap()
	if err != nil {
		return err
	}
	*m = *other
	return nil
}
