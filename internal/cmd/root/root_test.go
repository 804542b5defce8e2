package root

import (
	"testing"

	"github.com/schmitthub/fixture/internal/cmdutil"
	"github.com/schmitthub/fixture/internal/iostreams/iostreamstest"
)

func TestNewCmdRoot(t *testing.T) {
	tio := iostreamstest.New()
	f := &cmdutil.Factory{Version: "1.0.0", IOStreams: tio.IOStreams}
	cmd := NewCmdRoot(f, "1.0.0", "")

	if cmd.Use != "fixture" {
		t.Errorf("expected Use 'fixture', got '%s'", cmd.Use)
	}

	if cmd.Version != "1.0.0" {
		t.Errorf("expected Version '1.0.0', got '%s'", cmd.Version)
	}

	expectedCmds := map[string]bool{
		"run":     false,
		"init":    false,
		"deps":    false,
		"version": false,
	}

	for _, sub := range cmd.Commands() {
		if _, ok := expectedCmds[sub.Name()]; ok {
			expectedCmds[sub.Name()] = true
		}
	}

	for name, found := range expectedCmds {
		if !found {
			t.Errorf("expected subcommand '%s' to be registered", name)
		}
	}
}

func TestNewCmdRoot_GlobalFlags(t *testing.T) {
	tio := iostreamstest.New()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}
	cmd := NewCmdRoot(f, "1.0.0", "")

	for _, name := range []string{"debug", "root", "config"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}

func TestNewCmdRoot_FlagsBindFactory(t *testing.T) {
	tio := iostreamstest.New()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}
	cmd := NewCmdRoot(f, "1.0.0", "")

	cmd.SetArgs([]string{"version", "-D", "--root", "/work", "-c", "/work/alt.yaml"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !f.Debug {
		t.Error("expected --debug to set Factory.Debug")
	}
	if f.WorkDir != "/work" {
		t.Errorf("WorkDir = %q, want /work", f.WorkDir)
	}
	if f.ConfigFile != "/work/alt.yaml" {
		t.Errorf("ConfigFile = %q, want /work/alt.yaml", f.ConfigFile)
	}
}

func TestNewCmdRoot_DepsSubcommands(t *testing.T) {
	tio := iostreamstest.New()
	f := &cmdutil.Factory{IOStreams: tio.IOStreams}
	cmd := NewCmdRoot(f, "1.0.0", "")

	for _, path := range [][]string{{"deps", "up"}, {"deps", "down"}, {"deps", "status"}} {
		found, _, err := cmd.Find(path)
		if err != nil || found.Name() != path[1] {
			t.Errorf("expected %v to be registered (err=%v)", path, err)
		}
	}
}
