package planner

import "container/list"

// planCache is an LRU cache keyed by plan id. Capacity is fixed at
// construction; inserting beyond it evicts the least recently used plan.
type planCache struct {
	capacity int
	order    *list.List // front = most recently used
	entries  map[string]*list.Element
}

type cacheEntry struct {
	plan *ExecutionPlan
}

func newPlanCache(capacity int) *planCache {
	return &planCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

func (c *planCache) get(id string) (*ExecutionPlan, bool) {
	elem, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).plan, true
}

func (c *planCache) put(plan *ExecutionPlan) {
	if elem, ok := c.entries[plan.ID]; ok {
		elem.Value.(*cacheEntry).plan = plan
		c.order.MoveToFront(elem)
		return
	}
	c.entries[plan.ID] = c.order.PushFront(&cacheEntry{plan: plan})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).plan.ID)
	}
}

func (c *planCache) len() int { return c.order.Len() }
