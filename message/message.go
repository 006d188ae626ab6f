package message

import (
	"fmt"
)

// Message is a body with an insertion-ordered set of properties.
type Message struct {
	Body string

	props []Property
	index map[string]int
}

type Property struct {
	Name  string
	Value interface{}
}

func New(body string) *Message {
	return &Message{Body: body}
}

// Put sets a property. An existing property keeps its position.
func (m *Message) Put(name string, value interface{}) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[name]; ok {
		m.props[i].Value = value
		return
	}
	m.index[name] = len(m.props)
	m.props = append(m.props, Property{Name: name, Value: value})
}

func (m *Message) Get(name string) (interface{}, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.props[i].Value, true
}

// PropertyString returns the property rendered as text.
func (m *Message) PropertyString(name string) (string, bool) {
	v, ok := m.Get(name)
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Remove deletes a property, the order of the others is kept.
func (m *Message) Remove(name string) {
	i, ok := m.index[name]
	if !ok {
		return
	}
	m.props = append(m.props[:i], m.props[i+1:]...)
	delete(m.index, name)
	for j := i; j < len(m.props); j++ {
		m.index[m.props[j].Name] = j
	}
}

// Properties returns the properties in insertion order.
func (m *Message) Properties() []Property {
	out := make([]Property, len(m.props))
	copy(out, m.props)
	return out
}

func (m *Message) Len() int {
	return len(m.props)
}
