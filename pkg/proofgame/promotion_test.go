package proofgame

import (
	"testing"

	"github.com/kestrelchess/engine/pkg/proofkernel"
)

func TestDecidePromotionsPrefersBishopWhenNeeded(t *testing.T) {
	var candidates = []PromotionCandidate{
		{Color: proofkernel.White, File: 0, OnDarkSquare: true},
		{Color: proofkernel.White, File: 2, OnDarkSquare: false},
	}
	var result = decidePromotions(candidates, NeededPromotions{DarkBishop: 1, Queen: 1})
	if result[0] != proofkernel.DarkBishop {
		t.Errorf("result[0] = %v, want DarkBishop", result[0])
	}
	if result[1] != proofkernel.Queen {
		t.Errorf("result[1] = %v, want Queen (no light bishop needed)", result[1])
	}
}

func TestDecidePromotionsFallsBackToQueenWhenNothingNeeded(t *testing.T) {
	var candidates = []PromotionCandidate{{Color: proofkernel.Black, File: 4}}
	var result = decidePromotions(candidates, NeededPromotions{})
	if result[0] != proofkernel.Queen {
		t.Errorf("result[0] = %v, want Queen", result[0])
	}
}
