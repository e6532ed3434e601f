package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRankWeights(t *testing.T) {
	w := DefaultRankWeights()

	if w.Hot != 0.6 || w.Quality != 0.4 {
		t.Errorf("rank weights = (%v, %v), want (0.6, 0.4)", w.Hot, w.Quality)
	}
	if w.Sub.Wilson != 0.4 || w.Sub.Bayes != 0.4 || w.Sub.Volume != 0.2 {
		t.Errorf("quality weights = %+v, want (0.4, 0.4, 0.2)", w.Sub)
	}
	if sum := w.Hot + w.Quality; sum != 1.0 {
		t.Errorf("rank weights sum to %v, want 1.0", sum)
	}
	if sum := w.Sub.Wilson + w.Sub.Bayes + w.Sub.Volume; sum != 1.0 {
		t.Errorf("quality weights sum to %v, want 1.0", sum)
	}
}

func TestMergeCalibration(t *testing.T) {
	tests := []struct {
		name     string
		override *RankWeights
		want     RankWeights
	}{
		{
			name:     "nil override keeps base",
			override: nil,
			want:     *DefaultRankWeights(),
		},
		{
			name:     "partial override merges with base",
			override: &RankWeights{Hot: 0.8},
			want: RankWeights{
				Hot: 0.8, Quality: 0.4,
				Sub: QualityWeights{Wilson: 0.4, Bayes: 0.4, Volume: 0.2},
			},
		},
		{
			name: "nested override applies",
			override: &RankWeights{
				Sub: QualityWeights{Wilson: 0.5, Volume: 0.1},
			},
			want: RankWeights{
				Hot: 0.6, Quality: 0.4,
				Sub: QualityWeights{Wilson: 0.5, Bayes: 0.4, Volume: 0.1},
			},
		},
		{
			name: "full override replaces everything",
			override: &RankWeights{
				Hot: 0.5, Quality: 0.5,
				Sub: QualityWeights{Wilson: 0.3, Bayes: 0.3, Volume: 0.4},
			},
			want: RankWeights{
				Hot: 0.5, Quality: 0.5,
				Sub: QualityWeights{Wilson: 0.3, Bayes: 0.3, Volume: 0.4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeCalibration(DefaultRankWeights(), tt.override)
			if *got != tt.want {
				t.Errorf("MergeCalibration() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestMergeCalibrationNilBase(t *testing.T) {
	got := MergeCalibration(nil, &RankWeights{Hot: 0.9})
	if *got != *DefaultRankWeights() {
		t.Errorf("nil base should fall back to defaults, got %+v", *got)
	}
}

func TestLoadCalibration(t *testing.T) {
	t.Run("empty path returns defaults without error", func(t *testing.T) {
		w, err := LoadCalibration("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *w != *DefaultRankWeights() {
			t.Errorf("got %+v, want defaults", *w)
		}
	})

	t.Run("valid file with overrides", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "calibration.json")
		content := `{"version":"1","weights":{"hot":0.7,"quality_components":{"wilson":0.5}}}`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		w, err := LoadCalibration(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w.Hot != 0.7 {
			t.Errorf("Hot = %v, want 0.7", w.Hot)
		}
		if w.Sub.Wilson != 0.5 {
			t.Errorf("Sub.Wilson = %v, want 0.5", w.Sub.Wilson)
		}
		// Untouched fields keep their defaults.
		if w.Quality != 0.4 || w.Sub.Bayes != 0.4 || w.Sub.Volume != 0.2 {
			t.Errorf("unset fields should keep defaults, got %+v", *w)
		}
	})

	t.Run("missing file degrades to defaults with error", func(t *testing.T) {
		w, err := LoadCalibration("/nonexistent/calibration.json")
		if err == nil {
			t.Error("expected an error for a missing file")
		}
		if *w != *DefaultRankWeights() {
			t.Errorf("got %+v, want defaults", *w)
		}
	})

	t.Run("malformed JSON degrades to defaults with error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}

		w, err := LoadCalibration(path)
		if err == nil {
			t.Error("expected an error for malformed JSON")
		}
		if *w != *DefaultRankWeights() {
			t.Errorf("got %+v, want defaults", *w)
		}
	})
}
