package param

// Parameter IDs of the decoherence effect.
const (
	Dephase  = "DEPHASE"
	Damping  = "DAMPING"
	Mix      = "MIX"
	AutoGain = "AUTOGAIN"
	Mode     = "MODE"
)

// ModeLabels are the channel-mode choices in index order. Index i selects
// mode i+1.
var ModeLabels = []string{"Mono", "L/R", "M/S", "T/S"}

// DefaultLayout returns the parameter set of the decoherence effect.
func DefaultLayout() []Spec {
	return []Spec{
		FloatSpec(Dephase, "Dephase", 0, 1, 0, 0.001),
		FloatSpec(Damping, "Damping", 0, 1, 0, 0.001),
		FloatSpec(Mix, "Mix", 0, 1, 1, 0.001),
		BoolSpec(AutoGain, "Auto Gain", false),
		ChoiceSpec(Mode, "Channel Mode", ModeLabels, 0),
	}
}

// NewDefaultStore returns a store populated with DefaultLayout.
func NewDefaultStore() *Store {
	s, err := NewStore(DefaultLayout()...)
	if err != nil {
		panic(err)
	}

	return s
}
