package message

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	gojson "github.com/goccy/go-json"
)

const separator = "\t"

// Format renders a message as one line: the properties as a JSON object,
// a tab and the body. Properties rejected by keep are left out, a message
// without properties is rendered as its body only.
func Format(m *Message, keep func(name string) bool) (string, error) {
	var buf bytes.Buffer
	n := 0
	for _, p := range m.props {
		if keep != nil && !keep(p.Name) {
			continue
		}
		name, err := gojson.Marshal(p.Name)
		if err != nil {
			return "", fmt.Errorf("encode property name %q: %w", p.Name, err)
		}
		value, err := encodeValue(p.Value)
		if err != nil {
			return "", fmt.Errorf("encode property %q: %w", p.Name, err)
		}
		if n == 0 {
			buf.WriteByte('{')
		} else {
			buf.WriteByte(',')
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
		n++
	}
	if n == 0 {
		return m.Body, nil
	}
	buf.WriteByte('}')
	buf.WriteString(separator)
	buf.WriteString(m.Body)
	return buf.String(), nil
}

func encodeValue(v interface{}) ([]byte, error) {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return gojson.Marshal(v)
	case nil:
		return []byte("null"), nil
	default:
		return gojson.Marshal(fmt.Sprint(v))
	}
}

// Parse reads a line written by Format. A line that does not start with a
// JSON object followed by a tab is taken as a plain body.
func Parse(line string) (*Message, error) {
	head, body, found := strings.Cut(line, separator)
	if !found || !strings.HasPrefix(head, "{") {
		return New(line), nil
	}

	m := New(body)
	err := jsonparser.ObjectEach([]byte(head), func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
		name := string(key)
		switch dataType {
		case jsonparser.String:
			s, err := jsonparser.ParseString(value)
			if err != nil {
				return fmt.Errorf("property %q: %w", name, err)
			}
			m.Put(name, s)
		case jsonparser.Number:
			if i, err := jsonparser.ParseInt(value); err == nil {
				m.Put(name, i)
			} else {
				m.Put(name, string(value))
			}
		case jsonparser.Boolean:
			b, err := jsonparser.ParseBoolean(value)
			if err != nil {
				return fmt.Errorf("property %q: %w", name, err)
			}
			m.Put(name, b)
		case jsonparser.Null:
			// nothing to carry
		default:
			m.Put(name, string(value))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	return m, nil
}
