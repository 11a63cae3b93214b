package main

import "testing"

func TestSubcommandConstructorsUseExpectedNames(t *testing.T) {
	rootCmd := &struct{}{}
	_ = rootCmd

	want := map[string]bool{
		"serve":   false,
		"mcp":     false,
		"route":   false,
		"graph":   false,
		"predict": false,
	}

	for _, cmd := range []interface{ Name() string }{
		newServeCmd(), newMCPCmd(), newRouteCmd(), newGraphCmd(), newPredictCmd(),
	} {
		if _, ok := want[cmd.Name()]; !ok {
			t.Errorf("unexpected subcommand %q", cmd.Name())
			continue
		}
		want[cmd.Name()] = true
	}

	for name, seen := range want {
		if !seen {
			t.Errorf("subcommand %q was not constructed", name)
		}
	}
}

func TestGraphCommandHasExportAndStatsSubcommands(t *testing.T) {
	g := newGraphCmd()
	names := map[string]bool{}
	for _, c := range g.Commands() {
		names[c.Name()] = true
	}
	if !names["export"] {
		t.Error("graph command is missing export")
	}
	if !names["stats"] {
		t.Error("graph command is missing stats")
	}
}

func TestBootstrapProducesUsableFleetAndSurface(t *testing.T) {
	f, surface, closeFleet := bootstrap()
	defer closeFleet()

	if f == nil {
		t.Fatal("bootstrap returned nil fleet")
	}
	if surface == nil || surface.Fleet != f {
		t.Fatal("bootstrap's surface does not wrap the same fleet")
	}

	if _, status := surface.ContainersList(); status != 200 {
		t.Errorf("ContainersList status = %d, want 200", status)
	}
}
