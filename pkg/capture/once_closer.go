package capture

import "sync"

type onceCloser struct {
	once sync.Once
}

func (c *onceCloser) Do(fn func()) {
	c.once.Do(fn)
}
