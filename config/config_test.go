package config

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}

	want := Settings{Gap: 4, Size: 1.6, Friction: 0.9, Ease: 0.05, BreathIntensity: 1.5}
	if diff := cmp.Diff(want, cfg.Settings); diff != "" {
		t.Errorf("default settings mismatch (-want +got):\n%s", diff)
	}
	if cfg.Field.Mode != ModeGenerative {
		t.Errorf("expected generative default mode, got %q", cfg.Field.Mode)
	}
	if cfg.Interaction.Radius != 100 {
		t.Errorf("expected canonical interaction radius 100, got %v", cfg.Interaction.Radius)
	}
	if cfg.Derived.FadeColor.A == 0 {
		t.Error("expected non-transparent derived fade color")
	}
	if diff := cmp.Diff(color.RGBA{R: 5, G: 7, B: 13, A: 255}, cfg.Derived.Background); diff != "" {
		t.Errorf("background mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("settings:\n  gap: 8\n  ease: 0.1\nfield:\n  depth: false\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Settings{Gap: 8, Size: 1.6, Friction: 0.9, Ease: 0.1, BreathIntensity: 1.5}
	if diff := cmp.Diff(want, cfg.Settings); diff != "" {
		t.Errorf("merged settings mismatch (-want +got):\n%s", diff)
	}
	if cfg.Field.Depth {
		t.Error("expected depth override to be applied")
	}
	// Untouched sections keep their defaults
	if cfg.Tree.BodyCount != 2400 {
		t.Errorf("expected default body count, got %d", cfg.Tree.BodyCount)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown mode", "field:\n  mode: spiral\n"},
		{"image mode without source", "field:\n  mode: image\n"},
		{"bad fade color", "render:\n  fade_color: nope\n"},
		{"zero radius", "interaction:\n  radius: 0\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestSettingsClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			name: "in range untouched",
			in:   Settings{Gap: 3, Size: 2, Friction: 0.9, Ease: 0.1, BreathIntensity: 1},
			want: Settings{Gap: 3, Size: 2, Friction: 0.9, Ease: 0.1, BreathIntensity: 1},
		},
		{
			name: "degenerate floors",
			in:   Settings{Gap: 0, Size: -1, Friction: -0.5, Ease: 0, BreathIntensity: -2},
			want: Settings{Gap: 1, Size: MinSize, Friction: 0, Ease: MinEase, BreathIntensity: 0},
		},
		{
			name: "ceilings",
			in:   Settings{Gap: 50, Size: 4, Friction: 1.5, Ease: 3, BreathIntensity: 9},
			want: Settings{Gap: 50, Size: 4, Friction: MaxFriction, Ease: MaxEase, BreathIntensity: 9},
		},
		{
			name: "nan falls to floor",
			in:   Settings{Gap: 2, Size: math.NaN(), Friction: math.NaN(), Ease: math.NaN(), BreathIntensity: math.NaN()},
			want: Settings{Gap: 2, Size: MinSize, Friction: 0, Ease: MinEase, BreathIntensity: 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, tc.in.Clamp()); diff != "" {
				t.Errorf("Clamp mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Settings.Gap = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if back.Settings.Gap != 7 {
		t.Errorf("expected gap 7 after roundtrip, got %d", back.Settings.Gap)
	}
}
