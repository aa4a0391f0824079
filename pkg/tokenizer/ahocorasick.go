package tokenizer

// acNode is one automaton state. Nodes live in a flat arena and refer to
// each other by index.
type acNode struct {
	children map[byte]int32
	fail     int32
	// lengths are the byte lengths of every pattern ending at this state,
	// longest first. Inherited from the fail chain at build time.
	lengths []int
}

// addedMatcher finds added-token occurrences in raw text with an
// Aho-Corasick automaton, then keeps the greedy leftmost-longest
// non-overlapping subset.
type addedMatcher struct {
	nodes []acNode
}

func newAddedMatcher(patterns []string) *addedMatcher {
	m := &addedMatcher{nodes: []acNode{{children: map[byte]int32{}}}}

	for _, p := range patterns {
		if p == "" {
			continue
		}
		cur := int32(0)
		for i := 0; i < len(p); i++ {
			b := p[i]
			next, ok := m.nodes[cur].children[b]
			if !ok {
				next = int32(len(m.nodes))
				m.nodes = append(m.nodes, acNode{children: map[byte]int32{}})
				m.nodes[cur].children[b] = next
			}
			cur = next
		}
		m.nodes[cur].lengths = insertLength(m.nodes[cur].lengths, len(p))
	}

	// Breadth-first fail links; terminal lengths accumulate along them.
	queue := make([]int32, 0, len(m.nodes))
	for _, child := range m.nodes[0].children {
		queue = append(queue, child)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for b, child := range m.nodes[cur].children {
			fail := m.nodes[cur].fail
			for fail != 0 {
				if next, ok := m.nodes[fail].children[b]; ok {
					fail = next
					goto linked
				}
				fail = m.nodes[fail].fail
			}
			if next, ok := m.nodes[0].children[b]; ok && next != child {
				fail = next
			}
		linked:
			m.nodes[child].fail = fail
			for _, l := range m.nodes[fail].lengths {
				m.nodes[child].lengths = insertLength(m.nodes[child].lengths, l)
			}
			queue = append(queue, child)
		}
	}
	return m
}

func insertLength(lengths []int, l int) []int {
	for i, v := range lengths {
		if v == l {
			return lengths
		}
		if v < l {
			lengths = append(lengths, 0)
			copy(lengths[i+1:], lengths[i:])
			lengths[i] = l
			return lengths
		}
	}
	return append(lengths, l)
}

// span is a matched [start, end) byte range.
type span struct {
	start, end int
}

// FindAll returns the greedy leftmost-longest non-overlapping matches.
func (m *addedMatcher) FindAll(text string) []span {
	if len(m.nodes) <= 1 {
		return nil
	}

	// Longest match starting at each byte offset.
	best := make([]int, len(text))
	cur := int32(0)
	for i := 0; i < len(text); i++ {
		b := text[i]
		for {
			if next, ok := m.nodes[cur].children[b]; ok {
				cur = next
				break
			}
			if cur == 0 {
				break
			}
			cur = m.nodes[cur].fail
		}
		for _, l := range m.nodes[cur].lengths {
			start := i + 1 - l
			if l > best[start] {
				best[start] = l
			}
		}
	}

	var out []span
	for i := 0; i < len(text); {
		if best[i] > 0 {
			out = append(out, span{start: i, end: i + best[i]})
			i += best[i]
			continue
		}
		i++
	}
	return out
}
