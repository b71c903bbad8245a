package scene

// A recorded scene query.
type CachedIntersection struct {
	Ray   Ray
	Hit   Hit
	Found bool
}

// IntersectCache records every scene query while debugging a single ray. It
// is not safe for concurrent use.
type IntersectCache struct {
	entries []CachedIntersection
}

func (c *IntersectCache) record(r Ray, hit *Hit, found bool) {
	entry := CachedIntersection{Ray: r, Found: found}
	if found {
		entry.Hit = *hit
	}
	c.entries = append(c.entries, entry)
}

// Enable or disable the intersection cache.
func (s *Scene) EnableIntersectCache(enable bool) {
	if !enable {
		s.cache = nil
		return
	}
	if s.cache == nil {
		s.cache = &IntersectCache{}
	}
}

// Returns true if scene queries are being recorded.
func (s *Scene) IntersectCacheEnabled() bool {
	return s.cache != nil
}

// Drop all recorded queries.
func (s *Scene) ClearIntersectCache() {
	if s.cache != nil {
		s.cache.entries = s.cache.entries[:0]
	}
}

// Get a copy of the recorded queries.
func (s *Scene) CachedIntersections() []CachedIntersection {
	if s.cache == nil {
		return nil
	}
	out := make([]CachedIntersection, len(s.cache.entries))
	copy(out, s.cache.entries)
	return out
}
