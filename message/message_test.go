package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(m *Message) []string {
	var out []string
	for _, p := range m.Properties() {
		out = append(out, p.Name)
	}
	return out
}

func TestMessage_PutKeepsOrder(t *testing.T) {
	m := New("body")
	m.Put("b", 1)
	m.Put("a", "x")
	m.Put("c", true)
	m.Put("b", 2)

	assert.Equal(t, []string{"b", "a", "c"}, names(m))
	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	m.Remove("a")
	assert.Equal(t, []string{"b", "c"}, names(m))
	s, ok := m.PropertyString("c")
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	_, ok = m.PropertyString("a")
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	m := New("hello\tworld")
	m.Put("kafka.offset", int64(7))
	m.Put("kafka.key", "k\"1")
	m.Put("trace", "abc")

	line, err := Format(m, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"kafka.offset":7,"kafka.key":"k\"1","trace":"abc"}`+"\thello\tworld", line)

	line, err = Format(m, func(name string) bool { return !strings.HasPrefix(name, "kafka.") })
	require.NoError(t, err)
	assert.Equal(t, `{"trace":"abc"}`+"\thello\tworld", line)

	line, err = Format(m, func(string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, "hello\tworld", line)
}

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name  string
		line  string
		body  string
		props []Property
	}{
		{
			name: "plain body",
			line: "just a body",
			body: "just a body",
		},
		{
			name: "body with tab but no properties",
			line: "a\tb",
			body: "a\tb",
		},
		{
			name: "properties in order",
			line: `{"b":"2","a":1,"flag":true,"gone":null}` + "\tpayload",
			body: "payload",
			props: []Property{
				{Name: "b", Value: "2"},
				{Name: "a", Value: int64(1)},
				{Name: "flag", Value: true},
			},
		},
		{
			name: "escaped strings",
			line: `{"kafka.key":"a\"b"}` + "\t",
			body: "",
			props: []Property{
				{Name: "kafka.key", Value: `a"b`},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Parse(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.body, m.Body)
			assert.Equal(t, len(tc.props), m.Len())
			for i, p := range m.Properties() {
				assert.Equal(t, tc.props[i], p)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse("{broken\tbody")
	assert.Error(t, err)
}

func TestFormatParse(t *testing.T) {
	m := New("body")
	m.Put("a", "1")
	m.Put("b", "2")

	line, err := Format(m, nil)
	require.NoError(t, err)

	got, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, m.Body, got.Body)
	assert.Equal(t, m.Properties(), got.Properties())
}
