package reputation

import (
	"math"
	"testing"
)

func TestDefaultRating(t *testing.T) {
	r := DefaultRating("user-1")

	if r.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", r.UserID, "user-1")
	}
	if r.EloRating != 1200 {
		t.Errorf("EloRating = %v, want 1200", r.EloRating)
	}
	if r.ReputationScore != 0 {
		t.Errorf("ReputationScore = %v, want 0", r.ReputationScore)
	}
	if r.DealsPosted != 0 {
		t.Errorf("DealsPosted = %v, want 0", r.DealsPosted)
	}
	if r.VoteAccuracy != 0.5 {
		t.Errorf("VoteAccuracy = %v, want 0.5", r.VoteAccuracy)
	}
}

func TestWeightFor(t *testing.T) {
	tests := []struct {
		name   string
		rating UserRating
		want   float64
	}{
		{
			name:   "default rating gets new-user dampening",
			rating: DefaultRating("u1"),
			// elo 1200 is neither trusted nor spam; deals_posted 0 < 5
			want: 0.7,
		},
		{
			name: "established baseline user",
			rating: UserRating{
				EloRating:    1200,
				DealsPosted:  20,
				VoteAccuracy: 0.5,
			},
			want: 1.0,
		},
		{
			name: "trusted user",
			rating: UserRating{
				EloRating:    1850,
				DealsPosted:  50,
				VoteAccuracy: 0.5,
			},
			want: 1.5,
		},
		{
			name: "trusted threshold is inclusive",
			rating: UserRating{
				EloRating:    1800,
				DealsPosted:  50,
				VoteAccuracy: 0.5,
			},
			want: 1.5,
		},
		{
			name: "spam-weight user",
			rating: UserRating{
				EloRating:    700,
				DealsPosted:  50,
				VoteAccuracy: 0.5,
			},
			want: 0.3,
		},
		{
			name: "low-elo new account classified as spam not new-user",
			rating: UserRating{
				EloRating:    700,
				DealsPosted:  1,
				VoteAccuracy: 0.5,
			},
			// spam check outranks new-user check
			want: 0.3,
		},
		{
			name: "accurate voter gets a bonus",
			rating: UserRating{
				EloRating:    1200,
				DealsPosted:  20,
				VoteAccuracy: 0.9,
			},
			// 1.0 * 1.2
			want: 1.2,
		},
		{
			name: "inaccurate voter gets a penalty",
			rating: UserRating{
				EloRating:    1200,
				DealsPosted:  20,
				VoteAccuracy: 0.3,
			},
			// 1.0 * 0.6
			want: 0.6,
		},
		{
			name: "trusted and accurate",
			rating: UserRating{
				EloRating:    2200,
				DealsPosted:  100,
				VoteAccuracy: 0.95,
			},
			// 1.5 * 1.2 = 1.8, inside [0.1, 2.0]
			want: 1.8,
		},
		{
			name: "spam and inaccurate",
			rating: UserRating{
				EloRating:    300,
				DealsPosted:  100,
				VoteAccuracy: 0.1,
			},
			// 0.3 * 0.6 = 0.18, inside [0.1, 2.0]
			want: 0.18,
		},
		{
			name: "accuracy boundaries are exclusive",
			rating: UserRating{
				EloRating:    1200,
				DealsPosted:  20,
				VoteAccuracy: 0.8,
			},
			// 0.8 is not > 0.8, so no bonus
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightFor(tt.rating)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("WeightFor(%+v) = %v, want %v", tt.rating, got, tt.want)
			}
		})
	}
}

// TestWeightForBounds sweeps a grid of rating records and verifies the
// weight always lands in [0.1, 2.0].
func TestWeightForBounds(t *testing.T) {
	for _, elo := range []float64{100, 500, 800, 1200, 1800, 3000} {
		for _, deals := range []int{0, 4, 5, 100} {
			for _, accuracy := range []float64{0, 0.3, 0.5, 0.85, 1} {
				r := UserRating{EloRating: elo, DealsPosted: deals, VoteAccuracy: accuracy}
				got := WeightFor(r)
				if got < WeightMin || got > WeightMax {
					t.Errorf("WeightFor(elo=%v, deals=%d, accuracy=%v) = %v outside [%v, %v]",
						elo, deals, accuracy, got, WeightMin, WeightMax)
				}
			}
		}
	}
}
