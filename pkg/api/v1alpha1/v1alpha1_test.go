package v1alpha1_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/vmplacement/hosim/pkg/api/v1alpha1"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

func TestDefaultsMatchParameters(t *testing.T) {
	cfg := &v1alpha1.HippoConfiguration{}
	v1alpha1.SetDefaults_HippoConfiguration(cfg)

	if diff := cmp.Diff(framework.DefaultParameters(), cfg.ToParameters()); diff != "" {
		t.Errorf("defaulted configuration differs from default parameters (-want +got):\n%s", diff)
	}
	if cfg.APIVersion != v1alpha1.GroupVersion || cfg.Kind != v1alpha1.Kind {
		t.Errorf("unexpected type meta %+v", cfg.TypeMeta)
	}
	if err := v1alpha1.ValidateHippoConfiguration(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDefaultsNormalizeWeights(t *testing.T) {
	cfg := &v1alpha1.HippoConfiguration{
		Weights: &framework.ObjectiveWeights{ResourceUtilization: 2, Power: 2},
	}
	v1alpha1.SetDefaults_HippoConfiguration(cfg)
	if !cfg.Weights.Normalized() {
		t.Fatalf("weights not normalized: %v", cfg.Weights)
	}
	if cfg.Weights.ResourceUtilization != 0.5 {
		t.Errorf("expected 0.5, got %v", cfg.Weights.ResourceUtilization)
	}
}

func TestValidateHippoConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		cfg     v1alpha1.HippoConfiguration
		wantErr string
	}{
		{name: "Defaults"},
		{
			name:    "WrongKind",
			cfg:     v1alpha1.HippoConfiguration{TypeMeta: metav1.TypeMeta{Kind: "Other"}},
			wantErr: "kind",
		},
		{
			name:    "NegativeBins",
			cfg:     v1alpha1.HippoConfiguration{Bins: -1},
			wantErr: "bins",
		},
		{
			name:    "EliteLargerThanPopulation",
			cfg:     v1alpha1.HippoConfiguration{PopulationSize: ptr.To(3), EliteSize: ptr.To(4)},
			wantErr: "eliteSize",
		},
		{
			name:    "NegativeWeight",
			cfg:     v1alpha1.HippoConfiguration{Weights: &framework.ObjectiveWeights{Power: -1, SLA: 2}},
			wantErr: "weights",
		},
		{
			name:    "UnknownCrossover",
			cfg:     v1alpha1.HippoConfiguration{NSGAII: &v1alpha1.NSGAIIConfiguration{Crossover: "cycle"}},
			wantErr: "crossover",
		},
		{
			name:    "MutationProbabilityAboveOne",
			cfg:     v1alpha1.HippoConfiguration{NSGAII: &v1alpha1.NSGAIIConfiguration{MutationProbability: ptr.To(1.5)}},
			wantErr: "mutationProbability",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			v1alpha1.SetDefaults_HippoConfiguration(&cfg)
			err := v1alpha1.ValidateHippoConfiguration(&cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !framework.IsInvalidArgument(err) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosim.yaml")
	doc := `apiVersion: hosim.vmplacement.io/v1alpha1
kind: HippoConfiguration
items: 40
bins: 8
populationSize: 12
maxIterations: 50
timeout: 30s
weights:
  resourceUtilization: 1
  power: 1
  sla: 1
  loadBalance: 1
  communication: 0
nsgaII:
  crossover: binAware
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := v1alpha1.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Items != 40 || cfg.Bins != 8 {
		t.Errorf("unexpected problem %dx%d", cfg.Items, cfg.Bins)
	}

	p := cfg.ToParameters()
	if p.PopulationSize != 12 || p.MaxIterations != 50 {
		t.Errorf("unexpected population/iterations %d/%d", p.PopulationSize, p.MaxIterations)
	}
	if p.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", p.Timeout)
	}
	if p.Weights.Power != 0.25 {
		t.Errorf("expected normalized power weight 0.25, got %v", p.Weights.Power)
	}

	nsga, err := cfg.NSGA2Config()
	if err != nil {
		t.Fatalf("NSGA2Config failed: %v", err)
	}
	if nsga.Crossover == nil {
		t.Error("expected the configured crossover to be set")
	}
	if nsga.PopulationSize != 12 || nsga.CrossoverProbability != v1alpha1.DefaultCrossoverProbability {
		t.Errorf("unexpected NSGA-II config %+v", nsga)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	if _, err := v1alpha1.Decode([]byte("populationSize: 10\npopulation: 10\n")); err == nil {
		t.Error("expected an error for an unknown field")
	}
	if _, err := v1alpha1.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
