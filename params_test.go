package animgraph

import (
	"testing"

	"github.com/Lint111/animgraph/graph"
)

func paramGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.NewBuilder("params").
		AddBoolParam("armed", true).
		AddIntParam("gait", 1, 0, 4).
		AddFloatParam("speed", 2.5).
		AddState(graph.StateSpec{Name: "Only", Kind: graph.KindSingleClip, Clip: 0}).
		Bake()
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	return g
}

func TestParametersDefaults(t *testing.T) {
	g := paramGraph(t)
	p := NewParameters(g)

	armed, _ := g.ParamIndex("armed")
	gait, _ := g.ParamIndex("gait")
	speed, _ := g.ParamIndex("speed")

	if !p.Bool(armed) {
		t.Fatalf("expected bool default true")
	}
	if p.Int(gait) != 1 {
		t.Fatalf("expected int default 1, got %d", p.Int(gait))
	}
	if p.Float(speed) != 2.5 {
		t.Fatalf("expected float default 2.5, got %v", p.Float(speed))
	}
}

func TestParametersKindChecked(t *testing.T) {
	g := paramGraph(t)
	p := NewParameters(g)
	gait, _ := g.ParamIndex("gait")

	// Reads through the wrong kind return zero values, writes are dropped.
	if p.Bool(gait) || p.Float(gait) != 0 {
		t.Fatalf("expected kind-mismatched reads to return zero")
	}
	p.SetFloat(gait, 9)
	if p.Int(gait) != 1 {
		t.Fatalf("expected kind-mismatched write to be dropped, got %d", p.Int(gait))
	}
	if p.Bool(-1) || p.Int(99) != 0 {
		t.Fatalf("expected out-of-range reads to return zero")
	}
	p.SetBool(99, true)
}

func TestParametersByName(t *testing.T) {
	p := NewParameters(paramGraph(t))

	if !p.SetFloatByName("  Speed ", 4) {
		t.Fatalf("expected case-insensitive name lookup")
	}
	idx, _ := p.Graph().ParamIndex("speed")
	if p.Float(idx) != 4 {
		t.Fatalf("expected write through name, got %v", p.Float(idx))
	}
	if p.SetBoolByName("missing", true) {
		t.Fatalf("expected unknown name to report false")
	}
	if !p.SetIntByName("gait", 3) {
		t.Fatalf("expected int write through name")
	}
}

func TestBlendValueFloatPassthrough(t *testing.T) {
	p := NewParameters(paramGraph(t))
	speed, _ := p.Graph().ParamIndex("speed")
	if got := p.BlendValue(speed); got != 2.5 {
		t.Fatalf("expected float passthrough 2.5, got %v", got)
	}
}

func TestBlendValueIntRenormalizes(t *testing.T) {
	p := NewParameters(paramGraph(t))
	gait, _ := p.Graph().ParamIndex("gait")

	cases := []struct {
		value int32
		want  float32
	}{
		{-2, 0},
		{0, 0},
		{1, 0.25},
		{2, 0.5},
		{4, 1},
		{9, 1},
	}
	for _, tc := range cases {
		p.SetInt(gait, tc.value)
		if got := p.BlendValue(gait); got != tc.want {
			t.Fatalf("BlendValue(gait=%d) = %v, want %v", tc.value, got, tc.want)
		}
	}

	armed, _ := p.Graph().ParamIndex("armed")
	if got := p.BlendValue(armed); got != 0 {
		t.Fatalf("expected bool parameters to blend as 0, got %v", got)
	}
}
