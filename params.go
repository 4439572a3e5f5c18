package animgraph

import "github.com/Lint111/animgraph/graph"

// Parameters is the mutable value store behind a graph's parameter
// declarations. Values are addressed by declaration index; every layer of an
// instance reads the same store. Accessors are kind-checked and default on
// mismatch instead of panicking, so a stale index from a rebaked graph
// degrades to the zero value.
type Parameters struct {
	decls  *graph.Graph
	bools  []bool
	ints   []int32
	floats []float32
}

// NewParameters allocates a store sized to the graph's declarations with
// every parameter at its declared default.
func NewParameters(g *graph.Graph) *Parameters {
	decls := g.Params()
	p := &Parameters{
		decls:  g,
		bools:  make([]bool, len(decls)),
		ints:   make([]int32, len(decls)),
		floats: make([]float32, len(decls)),
	}
	for i, decl := range decls {
		switch decl.Kind {
		case graph.ParamBool:
			p.bools[i] = decl.DefaultBool
		case graph.ParamInt:
			p.ints[i] = decl.DefaultInt
		case graph.ParamFloat:
			p.floats[i] = decl.DefaultFloat
		}
	}
	return p
}

// Graph returns the graph whose declarations shape this store.
func (p *Parameters) Graph() *graph.Graph {
	if p == nil {
		return nil
	}
	return p.decls
}

func (p *Parameters) decl(index int, kind graph.ParamKind) bool {
	if p == nil || index < 0 || index >= len(p.bools) {
		return false
	}
	decl := p.decls.Param(index)
	return decl != nil && decl.Kind == kind
}

// Bool reads a bool parameter; false when the index is invalid.
func (p *Parameters) Bool(index int) bool {
	if !p.decl(index, graph.ParamBool) {
		return false
	}
	return p.bools[index]
}

// SetBool writes a bool parameter; writes to invalid indices are dropped.
func (p *Parameters) SetBool(index int, value bool) {
	if !p.decl(index, graph.ParamBool) {
		return
	}
	p.bools[index] = value
}

// Int reads an int parameter; 0 when the index is invalid.
func (p *Parameters) Int(index int) int32 {
	if !p.decl(index, graph.ParamInt) {
		return 0
	}
	return p.ints[index]
}

// SetInt writes an int parameter; writes to invalid indices are dropped.
func (p *Parameters) SetInt(index int, value int32) {
	if !p.decl(index, graph.ParamInt) {
		return
	}
	p.ints[index] = value
}

// Float reads a float parameter; 0 when the index is invalid.
func (p *Parameters) Float(index int) float32 {
	if !p.decl(index, graph.ParamFloat) {
		return 0
	}
	return p.floats[index]
}

// SetFloat writes a float parameter; writes to invalid indices are dropped.
func (p *Parameters) SetFloat(index int, value float32) {
	if !p.decl(index, graph.ParamFloat) {
		return
	}
	p.floats[index] = value
}

// SetBoolByName writes a bool parameter by authored name, reporting whether
// the name resolved.
func (p *Parameters) SetBoolByName(name string, value bool) bool {
	idx, ok := p.lookup(name)
	if !ok {
		return false
	}
	p.SetBool(idx, value)
	return true
}

// SetIntByName writes an int parameter by authored name.
func (p *Parameters) SetIntByName(name string, value int32) bool {
	idx, ok := p.lookup(name)
	if !ok {
		return false
	}
	p.SetInt(idx, value)
	return true
}

// SetFloatByName writes a float parameter by authored name.
func (p *Parameters) SetFloatByName(name string, value float32) bool {
	idx, ok := p.lookup(name)
	if !ok {
		return false
	}
	p.SetFloat(idx, value)
	return true
}

func (p *Parameters) lookup(name string) (int, bool) {
	if p == nil {
		return 0, false
	}
	return p.decls.ParamIndex(name)
}

// BlendValue reads the parameter driving a 1D blend. Float parameters pass
// through; int parameters are renormalized from their declared [Min,Max]
// range into [0,1] so authored integer gaits map onto threshold space.
func (p *Parameters) BlendValue(index int) float32 {
	if p == nil || index < 0 || index >= len(p.floats) {
		return 0
	}
	decl := p.decls.Param(index)
	if decl == nil {
		return 0
	}
	switch decl.Kind {
	case graph.ParamFloat:
		return p.floats[index]
	case graph.ParamInt:
		if decl.Min >= decl.Max {
			return 0
		}
		v := p.ints[index]
		if v <= decl.Min {
			return 0
		}
		if v >= decl.Max {
			return 1
		}
		return float32(v-decl.Min) / float32(decl.Max-decl.Min)
	default:
		return 0
	}
}
