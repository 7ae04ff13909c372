// Package param provides a named parameter store whose values are written
// from control goroutines and read lock-free from the audio goroutine.
//
// Values are stored as float64 bits in atomic words. Writers clamp to the
// parameter range; readers see either the previous or the new value, never a
// torn one. Readers on the audio path should resolve a [*Param] handle once
// and call [Param.Load] per block instead of looking values up by ID.
package param

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cwbudde/algo-qchannel/dsp/core"
)

var (
	// ErrUnknownParam is returned for IDs that are not in the store.
	ErrUnknownParam = errors.New("param: unknown parameter")
	// ErrDuplicateParam is returned when two specs share an ID.
	ErrDuplicateParam = errors.New("param: duplicate parameter")
	// ErrInvalidValue is returned when text cannot be parsed for a parameter.
	ErrInvalidValue = errors.New("param: invalid value")
)

// Kind distinguishes the value domains a parameter can have.
type Kind int

const (
	// Float is a continuous value in [Min, Max].
	Float Kind = iota
	// Bool is stored as 0 or 1.
	Bool
	// Choice is an index into Choices.
	Choice
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Choice:
		return "choice"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Spec describes one parameter.
type Spec struct {
	ID      string
	Name    string
	Kind    Kind
	Min     float64
	Max     float64
	Default float64
	Step    float64  // display/quantisation step for Float, 0 = continuous
	Choices []string // labels for Choice
}

// FloatSpec describes a continuous parameter.
func FloatSpec(id, name string, lo, hi, def, step float64) Spec {
	return Spec{ID: id, Name: name, Kind: Float, Min: lo, Max: hi, Default: def, Step: step}
}

// BoolSpec describes an on/off parameter.
func BoolSpec(id, name string, def bool) Spec {
	d := 0.0
	if def {
		d = 1
	}

	return Spec{ID: id, Name: name, Kind: Bool, Min: 0, Max: 1, Default: d, Step: 1}
}

// ChoiceSpec describes a parameter selecting one of labels. def is an index.
func ChoiceSpec(id, name string, labels []string, def int) Spec {
	return Spec{
		ID:      id,
		Name:    name,
		Kind:    Choice,
		Min:     0,
		Max:     float64(max(len(labels)-1, 0)),
		Default: float64(def),
		Step:    1,
		Choices: append([]string(nil), labels...),
	}
}

func (s Spec) validate() error {
	if s.ID == "" {
		return errors.New("param: empty parameter ID")
	}

	if !core.IsFinite(s.Min) || !core.IsFinite(s.Max) || s.Min > s.Max {
		return fmt.Errorf("param: %s: invalid range [%g, %g]", s.ID, s.Min, s.Max)
	}

	if s.Kind == Choice && len(s.Choices) == 0 {
		return fmt.Errorf("param: %s: choice parameter without labels", s.ID)
	}

	if !core.IsFinite(s.Default) || s.Default < s.Min || s.Default > s.Max {
		return fmt.Errorf("param: %s: default %g outside [%g, %g]", s.ID, s.Default, s.Min, s.Max)
	}

	return nil
}

// constrain maps v into the parameter's domain.
func (s Spec) constrain(v float64) float64 {
	v = core.Clamp(v, s.Min, s.Max)

	switch s.Kind {
	case Bool:
		if v >= 0.5 {
			return 1
		}

		return 0
	case Choice:
		return math.Round(v)
	default:
		return v
	}
}

// Format renders v the way a host would display it.
func (s Spec) Format(v float64) string {
	switch s.Kind {
	case Bool:
		if v >= 0.5 {
			return "On"
		}

		return "Off"
	case Choice:
		i := int(math.Round(core.Clamp(v, 0, float64(len(s.Choices)-1))))
		return s.Choices[i]
	default:
		decimals := 3
		if s.Step > 0 {
			decimals = max(0, int(math.Round(-math.Log10(s.Step))))
		}

		return strconv.FormatFloat(v, 'f', decimals, 64)
	}
}

// Parse converts display text to a value. Choices match by label
// (case-insensitive) or index; bools accept on/off, true/false, 1/0.
func (s Spec) Parse(text string) (float64, error) {
	t := strings.TrimSpace(text)

	switch s.Kind {
	case Bool:
		switch strings.ToLower(t) {
		case "on", "true", "yes", "1":
			return 1, nil
		case "off", "false", "no", "0":
			return 0, nil
		}
	case Choice:
		for i, label := range s.Choices {
			if strings.EqualFold(label, t) {
				return float64(i), nil
			}
		}

		if i, err := strconv.Atoi(t); err == nil && i >= 0 && i < len(s.Choices) {
			return float64(i), nil
		}
	default:
		if v, err := strconv.ParseFloat(t, 64); err == nil && core.IsFinite(v) {
			return v, nil
		}
	}

	return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, s.ID, text)
}

// Param is a single atomically stored parameter value.
type Param struct {
	spec Spec
	bits atomic.Uint64
}

// Spec returns the parameter description.
func (p *Param) Spec() Spec { return p.spec }

// Load returns the current value. Safe for concurrent use and allocation-free.
func (p *Param) Load() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Bool reports whether the value is at least 0.5.
func (p *Param) Bool() bool { return p.Load() >= 0.5 }

// Index returns the value rounded to the nearest integer.
func (p *Param) Index() int { return int(math.Round(p.Load())) }

// Store clamps v into the parameter's domain and publishes it.
// Non-finite values are ignored.
func (p *Param) Store(v float64) {
	if !core.IsFinite(v) {
		return
	}

	p.bits.Store(math.Float64bits(p.spec.constrain(v)))
}

// Store holds a fixed set of parameters.
type Store struct {
	params []*Param
	byID   map[string]*Param
}

// NewStore creates a store from specs, each initialised to its default.
func NewStore(specs ...Spec) (*Store, error) {
	s := &Store{
		params: make([]*Param, 0, len(specs)),
		byID:   make(map[string]*Param, len(specs)),
	}

	for _, spec := range specs {
		if err := spec.validate(); err != nil {
			return nil, err
		}

		if _, ok := s.byID[spec.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParam, spec.ID)
		}

		p := &Param{spec: spec}
		p.bits.Store(math.Float64bits(spec.Default))
		s.params = append(s.params, p)
		s.byID[spec.ID] = p
	}

	return s, nil
}

// Param returns the handle for id.
func (s *Store) Param(id string) (*Param, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, id)
	}

	return p, nil
}

// Get returns the current value of id.
func (s *Store) Get(id string) (float64, error) {
	p, err := s.Param(id)
	if err != nil {
		return 0, err
	}

	return p.Load(), nil
}

// Set stores v (clamped) for id.
func (s *Store) Set(id string, v float64) error {
	p, err := s.Param(id)
	if err != nil {
		return err
	}

	if !core.IsFinite(v) {
		return fmt.Errorf("%w: %s=%v", ErrInvalidValue, id, v)
	}

	p.Store(v)

	return nil
}

// SetText parses text with the parameter's Parse and stores the result.
func (s *Store) SetText(id, text string) error {
	p, err := s.Param(id)
	if err != nil {
		return err
	}

	v, err := p.spec.Parse(text)
	if err != nil {
		return err
	}

	p.Store(v)

	return nil
}

// Format returns the display text of id's current value.
func (s *Store) Format(id string) (string, error) {
	p, err := s.Param(id)
	if err != nil {
		return "", err
	}

	return p.spec.Format(p.Load()), nil
}

// Specs returns the parameter descriptions in declaration order.
func (s *Store) Specs() []Spec {
	out := make([]Spec, len(s.params))
	for i, p := range s.params {
		out[i] = p.spec
	}

	return out
}

// ResetDefaults restores every parameter to its default value.
func (s *Store) ResetDefaults() {
	for _, p := range s.params {
		p.bits.Store(math.Float64bits(p.spec.Default))
	}
}
