// Package cache provides a small generic LRU used for derived tables that
// are expensive to build and cheap to keep, such as color palettes keyed
// by mode and iteration bound.
//
//	c := cache.New[key, *table](8)
//	t := c.GetOrCreate(k, func() *table { return build(k) })
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
