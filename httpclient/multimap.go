package httpclient

import "sync"

// entry is one name with its accumulated values.
type entry struct {
	name   string
	values []string
}

// multiMap is an ordered, append-only multi-valued map safe for concurrent
// use. Names keep the order of their first insertion.
type multiMap struct {
	mu     sync.Mutex
	order  []string
	values map[string][]string
}

func (m *multiMap) add(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string][]string)
	}
	if _, ok := m.values[name]; !ok {
		m.order = append(m.order, name)
	}
	m.values[name] = append(m.values[name], value)
}

// snapshot returns a deep copy in insertion order.
func (m *multiMap) snapshot() []entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entry, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, entry{
			name:   name,
			values: append([]string(nil), m.values[name]...),
		})
	}
	return out
}
