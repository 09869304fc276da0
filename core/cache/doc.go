// Package cache provides thread-safe value holders for data that is written
// by one producer and read by many consumers.
//
// # Latest
//
// Latest is a single-slot cache that keeps only the most recent value. Writes
// replace the whole value atomically, so concurrent readers observe either the
// previous or the new value, never a partial one. No lock is held while a
// reader or writer does anything else.
//
//	c := cache.NewLatest[string]()
//
//	if _, ok := c.Get(); !ok {
//		// nothing published yet
//	}
//
//	c.Set("Stock Price (AAPL): 187.20")
//	v, _ := c.Get()
//
// Version reports how many times Set has been called, which lets readers tell
// whether the value they hold is still current.
package cache
