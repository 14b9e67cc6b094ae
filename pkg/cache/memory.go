package cache

import (
	"container/list"
	"sync"

	"github.com/user/wikipreview/pkg/preview"
)

type entry struct {
	key    preview.Key
	bitmap preview.Bitmap
	size   int64
}

// memory is a byte-bounded LRU of bitmaps. Entries are charged by the size
// of their pixel buffer.
type memory struct {
	mu     sync.Mutex
	budget int64
	used   int64
	ll     *list.List
	items  map[preview.Key]*list.Element

	evictions int64
}

func newMemory(budget int64) *memory {
	return &memory{
		budget: budget,
		ll:     list.New(),
		items:  make(map[preview.Key]*list.Element),
	}
}

func (m *memory) get(key preview.Key) (preview.Bitmap, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.items[key]
	if !ok {
		return preview.Bitmap{}, false
	}
	m.ll.MoveToFront(el)
	return el.Value.(*entry).bitmap, true
}

// put stores bmp under key and evicts least recently used entries until the
// budget holds. It reports false when the bitmap alone exceeds the budget;
// such a bitmap is not retained.
func (m *memory) put(key preview.Key, bmp preview.Bitmap) bool {
	size := int64(bmp.Bytes())

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		m.removeElement(el)
	}
	if size > m.budget {
		return false
	}

	m.items[key] = m.ll.PushFront(&entry{key: key, bitmap: bmp, size: size})
	m.used += size
	for m.used > m.budget {
		oldest := m.ll.Back()
		if oldest == nil {
			break
		}
		m.removeElement(oldest)
		m.evictions++
	}
	return true
}

// clear drops every entry and returns how many there were.
func (m *memory) clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.items)
	m.ll.Init()
	m.items = make(map[preview.Key]*list.Element)
	m.used = 0
	return n
}

func (m *memory) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	m.ll.Remove(el)
	delete(m.items, e.key)
	m.used -= e.size
}

type memoryStats struct {
	entries   int
	used      int64
	budget    int64
	evictions int64
}

func (m *memory) stats() memoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memoryStats{
		entries:   len(m.items),
		used:      m.used,
		budget:    m.budget,
		evictions: m.evictions,
	}
}
