package cmd

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// progressPrinter keeps a single status line updated while the modules run.
type progressPrinter struct {
	total    int
	mu       sync.Mutex
	done     int
	passed   int
	failed   int
	updates  chan struct{}
	finished chan struct{}
	stopOnce sync.Once
}

func newProgressPrinter(total int) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		total:    total,
		updates:  make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	go p.loop()
}

// ModuleDone folds one module's counters into the line.
func (p *progressPrinter) ModuleDone(passed, failed int) {
	p.mu.Lock()
	p.done++
	p.passed += passed
	p.failed += failed
	p.mu.Unlock()
	p.poke()
}

func (p *progressPrinter) poke() {
	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.finished)
	})
	fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", 80))
}

func (p *progressPrinter) loop() {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.finished:
			return
		}
	}
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	done := p.done
	passed := p.passed
	failed := p.failed
	p.mu.Unlock()

	line := fmt.Sprintf("\rModules: %d/%d Passed:%d Failed:%d", done, p.total, passed, failed)
	fmt.Fprintf(os.Stdout, "%s", line)
}
