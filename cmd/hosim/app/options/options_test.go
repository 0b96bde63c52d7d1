package options_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/vmplacement/hosim/cmd/hosim/app/options"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

func TestEnvironmentProvidesFlagDefaults(t *testing.T) {
	t.Setenv("HOSIM_ITEMS", "12")
	t.Setenv("HOSIM_BINS", "4")
	t.Setenv("HOSIM_TIMEOUT", "2s")

	o, err := options.NewOptions()
	if err != nil {
		t.Fatalf("NewOptions failed: %v", err)
	}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)
	if err := fs.Parse([]string{"--bins", "6"}); err != nil {
		t.Fatal(err)
	}

	if o.Items != 12 {
		t.Errorf("expected items from the environment, got %d", o.Items)
	}
	if o.Bins != 6 {
		t.Errorf("expected the flag to win over the environment, got %d", o.Bins)
	}
	if o.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", o.Timeout)
	}
	if o.TraceSampleRate != 1 {
		t.Errorf("expected default sample rate 1, got %v", o.TraceSampleRate)
	}
}

func TestConfigurationAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosim.yaml")
	doc := "items: 30\nbins: 6\npopulationSize: 20\nseed: 9\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	o, err := options.NewOptions()
	if err != nil {
		t.Fatal(err)
	}
	o.ConfigFile = path
	o.Bins = 10
	o.Population = 3

	cfg, err := o.Configuration()
	if err != nil {
		t.Fatalf("Configuration failed: %v", err)
	}
	p := cfg.ToParameters()
	if cfg.Items != 30 || cfg.Bins != 10 {
		t.Errorf("unexpected problem %dx%d", cfg.Items, cfg.Bins)
	}
	if p.Seed != 9 {
		t.Errorf("file seed should be kept, got %d", p.Seed)
	}
	if p.PopulationSize != 3 || p.EliteSize != 3 {
		t.Errorf("expected population and elite 3, got %d/%d", p.PopulationSize, p.EliteSize)
	}
}

func TestConfigurationRejectsInvalidOverrides(t *testing.T) {
	o, err := options.NewOptions()
	if err != nil {
		t.Fatal(err)
	}
	o.Iterations = -1
	if _, err := o.Configuration(); !framework.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}
