package model

import (
	"fmt"
	"strings"
)

type StepKind string

const (
	StepResize   StepKind = "resize"
	StepQuality  StepKind = "quality"
	StepFormat   StepKind = "format"
	StepEager    StepKind = "eager"
	StepOptimise StepKind = "optimise"
)

type CropMode string

const (
	CropThumb CropMode = "thumb"
	CropLimit CropMode = "limit"
)

type Gravity string

const (
	GravityAuto   Gravity = "auto"
	GravityCenter Gravity = "center"
)

// TransformStep is one entry of an ordered transform recipe.
type TransformStep struct {
	Kind     StepKind
	Width    int
	Height   int
	Crop     CropMode
	Gravity  Gravity
	Value    string
	Variants []NamedVariant
}

type NamedVariant struct {
	Name   string
	Resize TransformStep
}

// Recipe is applied in order; eager steps do not alter the canonical asset.
type Recipe []TransformStep

func Resize(w, h int, crop CropMode, gravity Gravity) TransformStep {
	return TransformStep{Kind: StepResize, Width: w, Height: h, Crop: crop, Gravity: gravity}
}

func QualityAuto() TransformStep {
	return TransformStep{Kind: StepQuality, Value: "auto"}
}

func FormatAuto() TransformStep {
	return TransformStep{Kind: StepFormat, Value: "auto"}
}

func Optimise() TransformStep {
	return TransformStep{Kind: StepOptimise}
}

func Eager(variants ...NamedVariant) TransformStep {
	return TransformStep{Kind: StepEager, Variants: variants}
}

func Variant(name string, resize TransformStep) NamedVariant {
	return NamedVariant{Name: name, Resize: resize}
}

// Transformation renders the incoming transformation chain in Cloudinary URL syntax.
func (r Recipe) Transformation() string {
	var parts []string
	for _, s := range r {
		switch s.Kind {
		case StepResize:
			parts = append(parts, s.resizeComponent())
		case StepQuality:
			parts = append(parts, "q_"+s.Value)
		case StepFormat:
			parts = append(parts, "f_"+s.Value)
		}
	}
	return strings.Join(parts, "/")
}

// EagerTransformation renders the eager variants separated by "|".
func (r Recipe) EagerTransformation() string {
	var parts []string
	for _, v := range r.Variants() {
		parts = append(parts, v.Resize.resizeComponent())
	}
	return strings.Join(parts, "|")
}

func (r Recipe) Variants() []NamedVariant {
	var out []NamedVariant
	for _, s := range r {
		if s.Kind == StepEager {
			out = append(out, s.Variants...)
		}
	}
	return out
}

func (r Recipe) VariantNames() []string {
	vs := r.Variants()
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		names = append(names, v.Name)
	}
	return names
}

// Step returns the first step of the given kind.
func (r Recipe) Step(kind StepKind) (TransformStep, bool) {
	for _, s := range r {
		if s.Kind == kind {
			return s, true
		}
	}
	return TransformStep{}, false
}

func (s TransformStep) resizeComponent() string {
	c := fmt.Sprintf("w_%d,h_%d", s.Width, s.Height)
	if s.Crop != "" {
		c += ",c_" + string(s.Crop)
	}
	if s.Gravity != "" {
		c += ",g_" + string(s.Gravity)
	}
	return c
}
