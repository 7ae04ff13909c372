package biquad

// Bank is a fixed set of independent sections whose delay lines are
// checkpointed and restored together.
//
// A typical use is a multi-pass block algorithm that must run the same
// filters twice over one block: take a [Bank.Checkpoint] before the first
// pass and [Bank.Restore] it before the second, so both passes start from
// identical history.
type Bank struct {
	sections []Section
}

// Checkpoint is a saved copy of every delay line in a Bank.
type Checkpoint [][2]float64

// NewBank returns a bank of n sections with zero coefficients and state.
func NewBank(n int) *Bank {
	if n < 0 {
		n = 0
	}

	return &Bank{sections: make([]Section, n)}
}

// Len returns the number of sections.
func (b *Bank) Len() int { return len(b.sections) }

// Section returns a pointer to the i-th section.
func (b *Bank) Section(i int) *Section {
	return &b.sections[i]
}

// NewCheckpoint allocates a checkpoint sized for this bank. Allocate once
// and reuse it with [Bank.CheckpointInto] on real-time paths.
func (b *Bank) NewCheckpoint() Checkpoint {
	return make(Checkpoint, len(b.sections))
}

// CheckpointInto copies every delay line into cp. Zero-alloc when cp has
// room for all sections; shorter checkpoints only capture a prefix.
func (b *Bank) CheckpointInto(cp Checkpoint) {
	n := min(len(cp), len(b.sections))
	for i := range n {
		cp[i] = b.sections[i].State()
	}
}

// Restore writes the delay lines saved in cp back into the bank.
func (b *Bank) Restore(cp Checkpoint) {
	n := min(len(cp), len(b.sections))
	for i := range n {
		b.sections[i].SetState(cp[i])
	}
}

// Reset clears every delay line.
func (b *Bank) Reset() {
	for i := range b.sections {
		b.sections[i].Reset()
	}
}
