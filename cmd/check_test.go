package cmd

import (
	"context"
	"testing"

	"github.com/ndhoang91/sitecheck-cli/internal/config"
)

func resetSelectors() {
	selectAll = false
	selectCDN = false
	selectSecurity = false
	selectDatabase = false
	selectAPI = false
	selectSites = false
}

func moduleNames(t *testing.T) []string {
	t.Helper()
	// The functional module is left unselected here so the test never
	// probes for a browser.
	modules, closeAll := selectModules(context.Background(), &config.Config{})
	defer closeAll()

	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name())
	}
	return names
}

func TestSelectModules_SingleSelector(t *testing.T) {
	resetSelectors()
	defer resetSelectors()
	selectCDN = true

	names := moduleNames(t)
	if len(names) != 1 || names[0] != "cdn" {
		t.Errorf("expected only cdn, got %v", names)
	}
}

func TestSelectModules_MultipleSelectors(t *testing.T) {
	resetSelectors()
	defer resetSelectors()
	selectSecurity = true
	selectAPI = true

	names := moduleNames(t)
	if len(names) != 2 || names[0] != "security" || names[1] != "api" {
		t.Errorf("expected security then api, got %v", names)
	}
}
