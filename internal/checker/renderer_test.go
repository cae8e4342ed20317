package checker

import (
	"fmt"
	"sync"
	"testing"

	"github.com/chromedp/cdproto/runtime"
)

func TestConsoleCollector_FiltersNonErrorEvents(t *testing.T) {
	c := &consoleCollector{}

	c.handle(&runtime.EventConsoleAPICalled{
		Type: runtime.APITypeError,
		Args: []*runtime.RemoteObject{{Value: []byte(`"boom"`)}},
	})
	c.handle(&runtime.EventConsoleAPICalled{
		Type: runtime.APITypeLog,
		Args: []*runtime.RemoteObject{{Value: []byte(`"just a log"`)}},
	})
	c.handle(&runtime.EventExceptionThrown{
		ExceptionDetails: &runtime.ExceptionDetails{Text: "Uncaught TypeError"},
	})

	errs := c.errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 collected errors, got %d: %v", len(errs), errs)
	}
	if errs[0] != `"boom"` || errs[1] != "Uncaught TypeError" {
		t.Errorf("unexpected collected errors: %v", errs)
	}
}

func TestConsoleCollector_ConcurrentEvents(t *testing.T) {
	c := &consoleCollector{}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c.handle(&runtime.EventExceptionThrown{
					ExceptionDetails: &runtime.ExceptionDetails{
						Text: fmt.Sprintf("err-%d-%d", g, i),
					},
				})
			}
		}(g)
	}
	wg.Wait()

	if got := len(c.errors()); got != 200 {
		t.Errorf("expected 200 collected errors, got %d", got)
	}
}

func TestConsoleCollector_ErrorsReturnsCopy(t *testing.T) {
	c := &consoleCollector{}
	c.add("first")

	snapshot := c.errors()
	c.add("second")

	if len(snapshot) != 1 {
		t.Errorf("snapshot should not grow with later events: %v", snapshot)
	}
}
