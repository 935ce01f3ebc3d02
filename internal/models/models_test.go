package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{"", StageEarly, false},
		{"early", StageEarly, false},
		{" Growth ", StageGrowth, false},
		{"LATE", StageLate, false},
		{"seed", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStage(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStage(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWeightOverrides_Apply(t *testing.T) {
	tech := 0.9
	o := &WeightOverrides{Tech: &tech}
	got := o.Apply(Weights{Tech: 0.4, GTM: 0.3, InvestmentMemo: 0.3})
	if got.Tech != 0.9 || got.GTM != 0.3 || got.InvestmentMemo != 0.3 {
		t.Errorf("got %+v", got)
	}
	var none *WeightOverrides
	if !none.Empty() {
		t.Error("nil overrides should be empty")
	}
	if o.Empty() {
		t.Error("overrides with tech set should not be empty")
	}
}

func TestDueDiligencePoint_UnmarshalJSON(t *testing.T) {
	var pts []DueDiligencePoint
	data := `["plain statement", {"point": "scored", "score": 72}]`
	if err := json.Unmarshal([]byte(data), &pts); err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 {
		t.Fatalf("got %d points", len(pts))
	}
	if pts[0].Point != "plain statement" || pts[0].Score != nil {
		t.Errorf("plain: got %+v", pts[0])
	}
	if pts[1].Point != "scored" || pts[1].Score == nil || *pts[1].Score != 72 {
		t.Errorf("scored: got %+v", pts[1])
	}
}

func TestAnalysisRequest_Validate(t *testing.T) {
	r := &AnalysisRequest{Query: "  an idea  "}
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	if r.Query != "an idea" || r.Stage != StageEarly {
		t.Errorf("got %+v", r)
	}
	if err := (&AnalysisRequest{Query: " "}).Validate(); err == nil {
		t.Error("empty query should fail")
	}
	neg := -0.1
	r = &AnalysisRequest{Query: "x", CustomWeights: &WeightOverrides{GTM: &neg}}
	if err := r.Validate(); err == nil {
		t.Error("negative weight should fail")
	}
}

func TestDeckUpload_Ext(t *testing.T) {
	d := &DeckUpload{Filename: "Deck.Final.PPTX"}
	if d.Ext() != "pptx" {
		t.Errorf("got %q", d.Ext())
	}
}

func TestFeedback_Validate(t *testing.T) {
	if err := (&Feedback{AnalysisID: "a", Rating: 5}).Validate(); err != nil {
		t.Error(err)
	}
	if err := (&Feedback{AnalysisID: "", Rating: 3}).Validate(); err == nil {
		t.Error("missing id should fail")
	}
	if err := (&Feedback{AnalysisID: "a", Rating: 6}).Validate(); err == nil {
		t.Error("rating out of range should fail")
	}
}

func TestNewSavedAnalysis(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSavedAnalysis(&AnalysisResult{AnalysisID: "id1", IdeaSummary: "sum", GlobalScore: 61.5}, now)
	if s.ID != "id1" || s.Date != "2026-03-01T12:00:00Z" || s.GlobalScore != 61.5 {
		t.Errorf("got %+v", s)
	}
}

func TestAllScoresZero(t *testing.T) {
	r := &AnalysisResult{}
	if !r.AllScoresZero() {
		t.Error("zero result should report all zero")
	}
	r.TechScore = 1
	if r.AllScoresZero() {
		t.Error("non-zero tech score")
	}
}
