package game

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/boidmind/systems"
)

// defaultMinBatch is the job count below which routines are computed on the
// calling goroutine. Below this, goroutine overhead outweighs the work.
const defaultMinBatch = 64

// workChunk is a range of routine jobs for one worker.
type workChunk struct {
	start, end int
}

// parallelState holds the persistent routine worker pool.
type parallelState struct {
	numWorkers int
	minBatch   int

	// jobs is the slice being computed; set before dispatch, read by workers.
	jobs []systems.RoutineJob
	env  *systems.PhysicsWorld

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(workers, minBatch int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if minBatch <= 0 {
		minBatch = defaultMinBatch
	}
	return &parallelState{
		numWorkers: workers,
		minBatch:   minBatch,
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			systems.ComputeRoutines(p.jobs[chunk.start:chunk.end], p.env)
			p.doneChan <- struct{}{}
		}
	}
}

// compute evaluates jobs against env, splitting them across the pool when
// there are enough. Each job index is written by exactly one worker.
func (p *parallelState) compute(jobs []systems.RoutineJob, env *systems.PhysicsWorld) {
	n := len(jobs)
	if n == 0 {
		return
	}
	if n < p.minBatch || p.numWorkers == 1 {
		systems.ComputeRoutines(jobs, env)
		return
	}

	if !p.running {
		p.startWorkers()
	}
	p.jobs, p.env = jobs, env

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
	p.jobs, p.env = nil, nil
}

// updateRoutines snapshots (single-threaded), computes (parallel) and
// applies (single-threaded) the active routines.
func (g *Game) updateRoutines() {
	jobs := g.routines.Collect(g.world)
	g.parallel.compute(jobs, g.env)
	g.routines.Apply()
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
