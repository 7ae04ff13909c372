// Package decoherence implements a block-based audio effect that re-encodes
// samples as complex amplitudes, dephases and damps them, and mixes the
// decoded result against the dry signal.
//
// # Channel modes
//
// The mode is read from the parameter store every block:
//
//   - Mono sums the inputs and writes the same signal to every output.
//   - LeftRight processes the two channels independently.
//   - MidSide processes M = L+R and S = L−R and decodes L = (M+S)/2,
//     R = (M−S)/2.
//   - TransientSustain splits each channel at a crossover (800 Hz by default),
//     processes the averaged low band and passes the high band dry.
//
// By default the transient band comes from a high-pass section paired with
// the low-pass one, so at Mix 0 the bands only approximate the input near
// the crossover. Use WithSplit(SplitComplementary) where the unprocessed
// bands must sum back to the input exactly.
//
// # Real-time behavior
//
// [Engine.Process] does not allocate once the engine is prepared for the
// block size in use, never blocks and always writes finite samples.
// Parameters are read with atomic loads once per block and smoothed per
// sample. An optional auto-gain stage matches the wet level to the dry level.
//
// An Engine is not safe for concurrent use. [Engine.Prepare] and
// [Engine.Reset] must not run concurrently with [Engine.Process]; parameter
// writes through the [param.Store] may happen from any goroutine.
package decoherence
