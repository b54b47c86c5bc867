package neat

import "sync"

// innovationTable hands out hidden node keys for a run. Splitting the same
// connection in different genomes yields the same node key, so structurally
// identical add-node mutations line up during crossover and distance.
type innovationTable struct {
	mu     sync.Mutex
	next   int
	splits map[ConnectionKey]int
}

func newInnovationTable(firstKey int) *innovationTable {
	return &innovationTable{next: firstKey, splits: make(map[ConnectionKey]int)}
}

func (t *innovationTable) newNode() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := t.next
	t.next++
	return key
}

// splitNode returns the node key recorded for splitting conn. A fresh key is
// handed out when the genome already holds the recorded node.
func (t *innovationTable) splitNode(conn ConnectionKey, taken func(int) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if key, ok := t.splits[conn]; ok && !taken(key) {
		return key
	}
	key := t.next
	t.next++
	t.splits[conn] = key
	return key
}
