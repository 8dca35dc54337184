package game

import (
	"sync"

	"github.com/pthm-cable/warren/systems"
)

// minRowsPerBand is the smallest band worth handing to a worker.
// Smaller grids run the ground pass on the calling goroutine.
const minRowsPerBand = 8

// band is a half-open row range [y0, y1) of the ground field.
type band struct {
	src    []float64
	y0, y1 int
	dt     float64
}

// bandPool splits the snapshot ground pass across persistent workers.
// Every worker reads the same pre-tick snapshot and writes a disjoint set
// of rows, so no locking is needed beyond waiting for the pass to finish.
type bandPool struct {
	ground     *systems.GroundField
	numWorkers int

	workChan chan band
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup // tracks live workers
	running  bool
}

func newBandPool(ground *systems.GroundField, workers int) *bandPool {
	if workers < 1 {
		workers = 1
	}
	return &bandPool{ground: ground, numWorkers: workers}
}

// parallel reports whether the next pass would be split into bands.
func (p *bandPool) parallel() bool {
	return p.numWorkers > 1 && !p.ground.Sweep && p.ground.H >= 2*minRowsPerBand
}

// step advances the ground field by dt.
// Sweep mode always runs serially: its raster order is the point.
func (p *bandPool) step(dt float64) {
	if !p.parallel() {
		p.ground.Step(dt)
		return
	}
	if !p.running {
		p.start()
	}

	src := p.ground.Snapshot()
	h := p.ground.H
	bands := p.numWorkers
	if maxBands := h / minRowsPerBand; bands > maxBands {
		bands = maxBands
	}
	rows := (h + bands - 1) / bands

	sent := 0
	for y0 := 0; y0 < h; y0 += rows {
		p.workChan <- band{src: src, y0: y0, y1: min(y0+rows, h), dt: dt}
		sent++
	}
	for i := 0; i < sent; i++ {
		<-p.doneChan
	}
}

// start launches the worker goroutines.
func (p *bandPool) start() {
	p.workChan = make(chan band, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *bandPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case b := <-p.workChan:
			p.ground.CycleRows(b.src, b.y0, b.y1, b.dt)
			p.doneChan <- struct{}{}
		}
	}
}

// stop signals all workers to exit and waits for them.
func (p *bandPool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	p.running = false
}
