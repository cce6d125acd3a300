package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"all found", []string{"/wiki/salah", "/wiki/wudu"}, []string{"/wiki/wudu", "/wiki/salah", "/wiki/adhan"}, 10, 1},
		{"half found", []string{"/wiki/salah", "/wiki/wudu", "/wiki/qibla", "/wiki/adhan"}, []string{"/wiki/salah", "/wiki/wudu", "/wiki/zakat"}, 10, 0.5},
		{"beyond cutoff", []string{"/wiki/salah", "/wiki/wudu", "/wiki/qibla"}, []string{"/wiki/salah", "/wiki/wudu", "/x", "/y", "/wiki/qibla"}, 3, 2.0 / 3.0},
		{"duplicates counted once", []string{"/wiki/salah", "/wiki/wudu"}, []string{"/wiki/salah", "/wiki/salah"}, 10, 0.5},
		{"nothing retrieved", []string{"/wiki/salah"}, nil, 10, 0},
		{"nothing relevant", nil, []string{"/wiki/salah"}, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RecallAtK(tt.relevant, tt.retrieved, tt.k), 1e-9)
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"first", []string{"/wiki/hajj"}, []string{"/wiki/hajj", "/wiki/umrah"}, 10, 1},
		{"third", []string{"/wiki/hajj"}, []string{"/a", "/b", "/wiki/hajj"}, 10, 1.0 / 3.0},
		{"earliest of several", []string{"/wiki/hajj", "/wiki/umrah"}, []string{"/a", "/wiki/umrah", "/wiki/hajj"}, 10, 0.5},
		{"beyond cutoff", []string{"/wiki/hajj"}, []string{"/a", "/b", "/wiki/hajj"}, 2, 0},
		{"empty relevant", nil, []string{"/wiki/hajj"}, 10, 0},
		{"empty retrieved", []string{"/wiki/hajj"}, nil, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MRRAtK(tt.relevant, tt.retrieved, tt.k), 1e-9)
		})
	}
}

func TestGuardrails_Check(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinRecall: 0.5, MinMRR: 0.4, MinIntentAccuracy: 0.8})

	assert.Empty(t, g.Check(&EvalSummary{K: 10, AvgRecall: 0.6, AvgMRR: 0.5, IntentAccuracy: 0.9}))

	violations := g.Check(&EvalSummary{K: 10, AvgRecall: 0.2, AvgMRR: 0.5, IntentAccuracy: 0.5, FailedQueries: 1})
	assert.Equal(t, []string{
		"recall@10 0.200 below 0.500",
		"intent accuracy 0.500 below 0.800",
		"1 failed queries, at most 0 allowed",
	}, violations)
}
