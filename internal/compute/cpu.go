package compute

import (
	"fmt"
	"runtime"
	"sync"
)

// minRows is the smallest dispatch that is split across goroutines.
const minRows = 16

type CPUBackend struct {
	workers int
}

func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{
		workers: workers,
	}
}

func (c *CPUBackend) Name() string    { return fmt.Sprintf("cpu (%d workers)", c.workers) }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Workers() int    { return c.workers }
func (c *CPUBackend) Cleanup()        {}

func (c *CPUBackend) Dispatch(rows int, fn func(start, end int)) {
	if rows <= 0 {
		return
	}
	if rows < minRows || c.workers <= 1 {
		fn(0, rows)
		return
	}

	workers := c.workers
	if workers > rows {
		workers = rows
	}
	chunkSize := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < rows; start += chunkSize {
		end := start + chunkSize
		if end > rows {
			end = rows
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
