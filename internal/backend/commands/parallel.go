package commands

import (
	"runtime"
	"sync"
)

// parallelRows calls fn for every row in [0, n) using up to GOMAXPROCS workers.
// Rows are striped across workers so expensive regions spread evenly.
func parallelRows(n int, fn func(y int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(offset int) {
			defer wg.Done()
			for y := offset; y < n; y += workers {
				fn(y)
			}
		}(w)
	}
	wg.Wait()
}
