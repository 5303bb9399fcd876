package cache

import (
	"sync"
	"time"
)

type node[K comparable, V any] struct {
	key        K
	value      V
	expiresAt  time.Time
	prev, next *node[K, V]
}

// TTLCache 는 항목별 만료 시각과 최대 크기를 가진 LRU 맵이다.
// 크기를 넘으면 가장 오래 쓰이지 않은 항목부터 버린다.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	items   map[K]*node[K, V]

	// head 가 가장 최근, tail 이 가장 오래된 항목
	head, tail *node[K, V]
}

// NewTTLCache 는 TTLCache 를 생성한다. 0 이하의 크기/TTL 은 1 과 1초로 올린다.
func NewTTLCache[K comparable, V any](maxSize int, ttl time.Duration) *TTLCache[K, V] {
	if ttl <= 0 {
		ttl = time.Second
	}
	return &TTLCache[K, V]{
		ttl:     ttl,
		maxSize: max(maxSize, 1),
		now:     time.Now,
		items:   make(map[K]*node[K, V]),
	}
}

// Get 은 만료되지 않은 값을 반환한다.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.live(key)
	if n == nil {
		var zero V
		return zero, false
	}
	c.touch(n)
	return n.value, true
}

// Set 은 값을 넣고 만료 시각을 새로 정한다.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := c.items[key]; n != nil {
		n.value = value
		n.expiresAt = c.now().Add(c.ttl)
		c.touch(n)
		return
	}
	c.insert(key, value)
}

// Modify 는 현재 값(만료되었거나 없으면 zero, false)을 fn 으로 갱신하고 새 값을 반환한다.
// 만료 시각은 항목이 처음 생길 때만 정해진다.
func (c *TTLCache[K, V]) Modify(key K, fn func(current V, exists bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := c.live(key); n != nil {
		n.value = fn(n.value, true)
		c.touch(n)
		return n.value
	}
	var zero V
	return c.insert(key, fn(zero, false)).value
}

// Delete 는 항목을 제거한다.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := c.items[key]; n != nil {
		c.remove(n)
	}
}

// Len 은 만료 여부와 무관하게 보관 중인 항목 수다.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// live 는 key 의 항목을 반환한다. 만료된 항목은 지우고 nil 을 반환한다.
func (c *TTLCache[K, V]) live(key K) *node[K, V] {
	n := c.items[key]
	if n == nil {
		return nil
	}
	if c.now().After(n.expiresAt) {
		c.remove(n)
		return nil
	}
	return n
}

func (c *TTLCache[K, V]) insert(key K, value V) *node[K, V] {
	n := &node[K, V]{key: key, value: value, expiresAt: c.now().Add(c.ttl)}
	c.items[key] = n
	c.pushFront(n)
	for len(c.items) > c.maxSize {
		c.remove(c.tail)
	}
	return n
}

func (c *TTLCache[K, V]) touch(n *node[K, V]) {
	if c.head == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *TTLCache[K, V]) remove(n *node[K, V]) {
	c.unlink(n)
	delete(c.items, n.key)
}

func (c *TTLCache[K, V]) pushFront(n *node[K, V]) {
	n.prev, n.next = nil, c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *TTLCache[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
