package frontier

// Item is one frontier entry.
type Item struct {
	URL   string
	Depth int
}

// Queue is a FIFO of (url, depth) pairs with a seen set. It never admits a
// URL twice or an item deeper than MaxDepth. It is owned by a single crawl
// and is not safe for concurrent use.
type Queue struct {
	maxDepth int
	items    []Item
	seen     map[string]struct{}
}

// NewQueue returns an empty queue bounded at maxDepth.
func NewQueue(maxDepth int) *Queue {
	return &Queue{
		maxDepth: maxDepth,
		seen:     make(map[string]struct{}),
	}
}

// Push enqueues u at depth unless it was seen or is too deep.
// It reports whether the item was admitted.
func (q *Queue) Push(u string, depth int) bool {
	if u == "" || depth > q.maxDepth {
		return false
	}
	if _, ok := q.seen[u]; ok {
		return false
	}
	q.seen[u] = struct{}{}
	q.items = append(q.items, Item{URL: u, Depth: depth})
	return true
}

// MarkSeen records u without enqueuing it, e.g. the final URL of a redirect.
func (q *Queue) MarkSeen(u string) {
	q.seen[u] = struct{}{}
}

// Seen reports whether u was pushed or marked.
func (q *Queue) Seen(u string) bool {
	_, ok := q.seen[u]
	return ok
}

// Pop removes the oldest item.
func (q *Queue) Pop() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	it := q.items[0]
	q.items[0] = Item{}
	q.items = q.items[1:]
	return it, true
}

// Len is the number of pending items.
func (q *Queue) Len() int { return len(q.items) }
