// Package authoring loads designer-authored graph documents from JSON or
// YAML, validates them, and bakes them into runtime graphs. The document
// structs double as the contract for the generated JSON schema consumed by
// editor tooling.
package authoring

import (
	"fmt"
	"strings"

	"github.com/tanema/gween/ease"

	"github.com/Lint111/animgraph/graph"
)

// GraphDocument is one state machine as it appears on disk.
type GraphDocument struct {
	Name         string               `json:"name" yaml:"name" jsonschema:"title=Graph name,minLength=1,required"`
	DefaultState string               `json:"defaultState,omitempty" yaml:"defaultState,omitempty" jsonschema:"title=Default state,description=State entered on the first tick; the first declared state when omitted."`
	Params       []ParamDocument      `json:"params,omitempty" yaml:"params,omitempty" jsonschema:"title=Parameters,description=Shared parameter declarations referenced by conditions and blends."`
	States       []StateDocument      `json:"states" yaml:"states" jsonschema:"title=States,required"`
	AnyState     []TransitionDocument `json:"anyState,omitempty" yaml:"anyState,omitempty" jsonschema:"title=Any-state transitions,description=Evaluated before every state's own transitions."`
	ExitGroups   []ExitGroupDocument  `json:"exitGroups,omitempty" yaml:"exitGroups,omitempty" jsonschema:"title=Exit groups,description=Named transition lists shared by member states and evaluated last."`
}

// ParamDocument declares one parameter. Default accepts a bool for bool
// parameters and a number for int and float parameters.
type ParamDocument struct {
	Name    string `json:"name" yaml:"name" jsonschema:"title=Parameter name,minLength=1,required"`
	Kind    string `json:"kind" yaml:"kind" jsonschema:"title=Parameter kind,enum=bool,enum=int,enum=float,required"`
	Default any    `json:"default,omitempty" yaml:"default,omitempty" jsonschema:"title=Default value"`
	Min     int32  `json:"min,omitempty" yaml:"min,omitempty" jsonschema:"title=Range minimum,description=Lower bound used when an int parameter drives a linear blend."`
	Max     int32  `json:"max,omitempty" yaml:"max,omitempty" jsonschema:"title=Range maximum,description=Upper bound used when an int parameter drives a linear blend."`
}

// StateDocument declares one state. Kind selects which fields apply: clip
// for single, clips+blendParam for linear, clips+paramX/paramY for
// directional.
type StateDocument struct {
	Name        string               `json:"name" yaml:"name" jsonschema:"title=State name,minLength=1,required"`
	Kind        string               `json:"kind,omitempty" yaml:"kind,omitempty" jsonschema:"title=State kind,enum=single,enum=linear,enum=directional,description=Defaults to single."`
	Clip        int                  `json:"clip,omitempty" yaml:"clip,omitempty" jsonschema:"title=Clip index"`
	Loop        bool                 `json:"loop,omitempty" yaml:"loop,omitempty" jsonschema:"title=Loop"`
	Speed       float32              `json:"speed,omitempty" yaml:"speed,omitempty" jsonschema:"title=Playback speed,description=Defaults to 1."`
	SpeedParam  string               `json:"speedParam,omitempty" yaml:"speedParam,omitempty" jsonschema:"title=Speed parameter,description=Float parameter multiplied into the state speed at activation."`
	ExitGroup   string               `json:"exitGroup,omitempty" yaml:"exitGroup,omitempty" jsonschema:"title=Exit group"`
	BlendParam  string               `json:"blendParam,omitempty" yaml:"blendParam,omitempty" jsonschema:"title=Blend parameter,description=Float or ranged int parameter driving a linear blend."`
	ParamX      string               `json:"paramX,omitempty" yaml:"paramX,omitempty" jsonschema:"title=Blend space X parameter"`
	ParamY      string               `json:"paramY,omitempty" yaml:"paramY,omitempty" jsonschema:"title=Blend space Y parameter"`
	Clips       []BlendClipDocument  `json:"clips,omitempty" yaml:"clips,omitempty" jsonschema:"title=Blend clips"`
	Transitions []TransitionDocument `json:"transitions,omitempty" yaml:"transitions,omitempty" jsonschema:"title=Transitions"`
}

// BlendClipDocument is one blend entry. Linear blends read threshold,
// directional blends read x and y.
type BlendClipDocument struct {
	Clip      int     `json:"clip" yaml:"clip" jsonschema:"title=Clip index,required"`
	Threshold float32 `json:"threshold,omitempty" yaml:"threshold,omitempty" jsonschema:"title=Threshold"`
	X         float32 `json:"x,omitempty" yaml:"x,omitempty" jsonschema:"title=Blend space X"`
	Y         float32 `json:"y,omitempty" yaml:"y,omitempty" jsonschema:"title=Blend space Y"`
	Speed     float32 `json:"speed,omitempty" yaml:"speed,omitempty" jsonschema:"title=Clip speed,description=Defaults to 1."`
}

// TransitionDocument declares one transition. An absent endTime means the
// transition has no time gate; endTime 0 gates on a started clip.
type TransitionDocument struct {
	To                  string                  `json:"to" yaml:"to" jsonschema:"title=Target state,minLength=1,required"`
	Duration            float32                 `json:"duration,omitempty" yaml:"duration,omitempty" jsonschema:"title=Fade duration seconds"`
	Offset              float32                 `json:"offset,omitempty" yaml:"offset,omitempty" jsonschema:"title=Normalized start offset"`
	Curve               string                  `json:"curve,omitempty" yaml:"curve,omitempty" jsonschema:"title=Fade curve,description=Easing name such as linear or in-out-cubic; linear when omitted."`
	EndTime             *float32                `json:"endTime,omitempty" yaml:"endTime,omitempty" jsonschema:"title=End time gate seconds"`
	CanTransitionToSelf bool                    `json:"canTransitionToSelf,omitempty" yaml:"canTransitionToSelf,omitempty" jsonschema:"title=Allow self transition"`
	Bools               []BoolConditionDocument `json:"boolConditions,omitempty" yaml:"boolConditions,omitempty" jsonschema:"title=Bool conditions"`
	Ints                []IntConditionDocument  `json:"intConditions,omitempty" yaml:"intConditions,omitempty" jsonschema:"title=Int conditions"`
}

// BoolConditionDocument compares a bool parameter to an expected value.
type BoolConditionDocument struct {
	Param string `json:"param" yaml:"param" jsonschema:"title=Parameter name,minLength=1,required"`
	Value bool   `json:"value" yaml:"value" jsonschema:"title=Expected value"`
}

// IntConditionDocument compares an int parameter to a constant.
type IntConditionDocument struct {
	Param string `json:"param" yaml:"param" jsonschema:"title=Parameter name,minLength=1,required"`
	Op    string `json:"op" yaml:"op" jsonschema:"title=Comparator,enum=eq,enum=ne,enum=gt,enum=ge,enum=lt,enum=le,required"`
	Value int32  `json:"value" yaml:"value" jsonschema:"title=Constant"`
}

// ExitGroupDocument names a transition list shared by member states.
type ExitGroupDocument struct {
	Name        string               `json:"name" yaml:"name" jsonschema:"title=Group name,minLength=1,required"`
	Transitions []TransitionDocument `json:"transitions" yaml:"transitions" jsonschema:"title=Transitions,required"`
}

// Build validates the document and bakes it into a runtime graph.
func (d *GraphDocument) Build() (*graph.Graph, error) {
	b := graph.NewBuilder(d.Name)

	for _, p := range d.Params {
		if err := addParam(b, p); err != nil {
			return nil, fmt.Errorf("authoring: build %q: parameter %q: %w", d.Name, p.Name, err)
		}
	}
	for _, group := range d.ExitGroups {
		transitions, err := buildTransitions(group.Transitions)
		if err != nil {
			return nil, fmt.Errorf("authoring: build %q: exit group %q: %w", d.Name, group.Name, err)
		}
		b.AddExitGroup(group.Name, transitions...)
	}
	for _, s := range d.States {
		spec, err := buildState(s)
		if err != nil {
			return nil, fmt.Errorf("authoring: build %q: state %q: %w", d.Name, s.Name, err)
		}
		b.AddState(spec)
	}
	for i, t := range d.AnyState {
		spec, err := buildTransition(t)
		if err != nil {
			return nil, fmt.Errorf("authoring: build %q: any-state transition %d: %w", d.Name, i, err)
		}
		b.AddAnyStateTransition(spec)
	}
	if d.DefaultState != "" {
		b.SetDefaultState(d.DefaultState)
	}

	g, err := b.Bake()
	if err != nil {
		return nil, fmt.Errorf("authoring: build %q: %w", d.Name, err)
	}
	return g, nil
}

func addParam(b *graph.Builder, p ParamDocument) error {
	switch strings.ToLower(strings.TrimSpace(p.Kind)) {
	case "bool":
		def, err := boolDefault(p.Default)
		if err != nil {
			return err
		}
		b.AddBoolParam(p.Name, def)
	case "int":
		def, err := numberDefault(p.Default)
		if err != nil {
			return err
		}
		b.AddIntParam(p.Name, int32(def), p.Min, p.Max)
	case "float":
		def, err := numberDefault(p.Default)
		if err != nil {
			return err
		}
		b.AddFloatParam(p.Name, float32(def))
	default:
		return fmt.Errorf("unknown kind %q", p.Kind)
	}
	return nil
}

func boolDefault(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	default:
		return false, fmt.Errorf("default %v is not a bool", v)
	}
}

func numberDefault(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("default %v is not a number", v)
	}
}

func buildState(s StateDocument) (graph.StateSpec, error) {
	spec := graph.StateSpec{
		Name:       s.Name,
		Loop:       s.Loop,
		Speed:      s.Speed,
		SpeedParam: s.SpeedParam,
		ExitGroup:  s.ExitGroup,
	}

	switch strings.ToLower(strings.TrimSpace(s.Kind)) {
	case "", "single":
		spec.Kind = graph.KindSingleClip
		spec.Clip = s.Clip
	case "linear":
		spec.Kind = graph.KindLinearBlend
		spec.BlendParam = s.BlendParam
		for _, c := range s.Clips {
			spec.Clips = append(spec.Clips, graph.BlendClip{
				Clip: c.Clip, Threshold: c.Threshold, Speed: c.Speed,
			})
		}
	case "directional":
		spec.Kind = graph.KindDirectional2D
		spec.ParamX = s.ParamX
		spec.ParamY = s.ParamY
		for _, c := range s.Clips {
			spec.Points = append(spec.Points, graph.DirectionalClip{
				Clip: c.Clip, Position: graph.Point{X: c.X, Y: c.Y}, Speed: c.Speed,
			})
		}
	default:
		return graph.StateSpec{}, fmt.Errorf("unknown kind %q", s.Kind)
	}

	transitions, err := buildTransitions(s.Transitions)
	if err != nil {
		return graph.StateSpec{}, err
	}
	spec.Transitions = transitions
	return spec, nil
}

func buildTransitions(docs []TransitionDocument) ([]graph.TransitionSpec, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	specs := make([]graph.TransitionSpec, 0, len(docs))
	for i, doc := range docs {
		spec, err := buildTransition(doc)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func buildTransition(doc TransitionDocument) (graph.TransitionSpec, error) {
	spec := graph.TransitionSpec{
		To:                  doc.To,
		Duration:            doc.Duration,
		Offset:              doc.Offset,
		CanTransitionToSelf: doc.CanTransitionToSelf,
	}
	if doc.Curve != "" {
		curve, ok := CurveByName(doc.Curve)
		if !ok {
			return graph.TransitionSpec{}, fmt.Errorf("unknown curve %q", doc.Curve)
		}
		spec.Curve = curve
	}
	if doc.EndTime != nil {
		spec.HasEndTime = true
		spec.EndTime = *doc.EndTime
	}
	for _, c := range doc.Bools {
		spec.Bools = append(spec.Bools, graph.BoolConditionSpec{Param: c.Param, Expected: c.Value})
	}
	for _, c := range doc.Ints {
		op, ok := intOpByName(c.Op)
		if !ok {
			return graph.TransitionSpec{}, fmt.Errorf("unknown comparator %q", c.Op)
		}
		spec.Ints = append(spec.Ints, graph.IntConditionSpec{Param: c.Param, Op: op, Value: c.Value})
	}
	return spec, nil
}

func intOpByName(name string) (graph.IntOp, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "eq", "==":
		return graph.IntEq, true
	case "ne", "!=":
		return graph.IntNotEq, true
	case "gt", ">":
		return graph.IntGreater, true
	case "ge", ">=":
		return graph.IntGreaterEq, true
	case "lt", "<":
		return graph.IntLess, true
	case "le", "<=":
		return graph.IntLessEq, true
	default:
		return 0, false
	}
}

var curves = map[string]ease.TweenFunc{
	"linear":         ease.Linear,
	"in-quad":        ease.InQuad,
	"out-quad":       ease.OutQuad,
	"in-out-quad":    ease.InOutQuad,
	"in-cubic":       ease.InCubic,
	"out-cubic":      ease.OutCubic,
	"in-out-cubic":   ease.InOutCubic,
	"in-quart":       ease.InQuart,
	"out-quart":      ease.OutQuart,
	"in-out-quart":   ease.InOutQuart,
	"in-quint":       ease.InQuint,
	"out-quint":      ease.OutQuint,
	"in-out-quint":   ease.InOutQuint,
	"in-sine":        ease.InSine,
	"out-sine":       ease.OutSine,
	"in-out-sine":    ease.InOutSine,
	"in-expo":        ease.InExpo,
	"out-expo":       ease.OutExpo,
	"in-out-expo":    ease.InOutExpo,
	"in-circ":        ease.InCirc,
	"out-circ":       ease.OutCirc,
	"in-out-circ":    ease.InOutCirc,
	"in-back":        ease.InBack,
	"out-back":       ease.OutBack,
	"in-out-back":    ease.InOutBack,
	"in-bounce":      ease.InBounce,
	"out-bounce":     ease.OutBounce,
	"in-out-bounce":  ease.InOutBounce,
	"in-elastic":     ease.InElastic,
	"out-elastic":    ease.OutElastic,
	"in-out-elastic": ease.InOutElastic,
}

// CurveByName resolves an easing name to its function. Names are
// case-insensitive kebab-case: "linear", "in-quad", "in-out-cubic".
func CurveByName(name string) (ease.TweenFunc, bool) {
	fn, ok := curves[strings.ToLower(strings.TrimSpace(name))]
	return fn, ok
}

// CurveNames lists the registered easing names for error text and tooling.
func CurveNames() []string {
	names := make([]string, 0, len(curves))
	for name := range curves {
		names = append(names, name)
	}
	return names
}
