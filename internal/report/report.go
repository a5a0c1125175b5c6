// Package report writes tab separated reports of a network: the parameter
// table, sample-neuron trajectories and the spike raster.
package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/nvandessel/spiknet/internal/network"
	"github.com/nvandessel/spiknet/internal/neuron"
)

// WriteParams writes one row per neuron: its parameters followed by its
// out-degree and valence.
func WriteParams(w io.Writer, net *network.Network) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Type\ta\tb\tc\td\tInhibitory\tdegree\tvalence")
	for i := 0; i < net.Size(); i++ {
		degree, valence := net.Degree(i)
		fmt.Fprintf(bw, "%s\t%d\t%g\n", net.FormatParams(i), degree, valence)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing params: %w", err)
	}
	return nil
}

// TrajectoryWriter samples one neuron per type on every tick.
//
// The sampled types are the requested ones, in name order, that are present
// in the network; when the requested counts do not cover the whole network
// and an RS neuron exists, the first RS neuron is sampled too.
type TrajectoryWriter struct {
	w       *bufio.Writer
	labels  []string
	samples []int
}

// NewTrajectoryWriter picks the sampled neurons of net and writes the
// header.
func NewTrajectoryWriter(w io.Writer, net *network.Network, requested []network.TypeCount) (*TrajectoryWriter, error) {
	ordered := append([]network.TypeCount(nil), requested...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	tw := &TrajectoryWriter{w: bufio.NewWriter(w)}
	total := 0
	for _, tc := range ordered {
		total += tc.Count
		if i, ok := net.FirstOfType(tc.Name); ok {
			tw.labels = append(tw.labels, tc.Name)
			tw.samples = append(tw.samples, i)
		}
	}
	if total < net.Size() {
		if i, ok := net.FirstOfType(neuron.RS); ok {
			tw.labels = append(tw.labels, neuron.RS)
			tw.samples = append(tw.samples, i)
		}
	}

	for _, label := range tw.labels {
		fmt.Fprintf(tw.w, "\t%s.v\t%s.u\t%s.I", label, label, label)
	}
	fmt.Fprintln(tw.w)
	if err := tw.w.Flush(); err != nil {
		return nil, fmt.Errorf("writing trajectory header: %w", err)
	}
	return tw, nil
}

// Samples returns the indices of the sampled neurons, in column order.
func (tw *TrajectoryWriter) Samples() []int {
	return append([]int(nil), tw.samples...)
}

// WriteTick writes the state of the sampled neurons at the given tick.
func (tw *TrajectoryWriter) WriteTick(tick int, net *network.Network) error {
	fmt.Fprintf(tw.w, "%d", tick)
	for _, i := range tw.samples {
		fmt.Fprintf(tw.w, "\t%s", net.FormatValues(i))
	}
	_, err := fmt.Fprintln(tw.w)
	return err
}

// Flush writes any buffered rows.
func (tw *TrajectoryWriter) Flush() error {
	if err := tw.w.Flush(); err != nil {
		return fmt.Errorf("writing trajectory: %w", err)
	}
	return nil
}

// SpikeWriter writes a raster of pending spikes, one "tick<TAB>index" row
// per spike.
type SpikeWriter struct {
	w     *bufio.Writer
	count int
}

// NewSpikeWriter creates a raster writer.
func NewSpikeWriter(w io.Writer) *SpikeWriter {
	return &SpikeWriter{w: bufio.NewWriter(w)}
}

// WriteTick records the given spiking neurons at tick.
func (sw *SpikeWriter) WriteTick(tick int, spiking []int) error {
	for _, i := range spiking {
		if _, err := fmt.Fprintf(sw.w, "%d\t%d\n", tick, i); err != nil {
			return err
		}
	}
	sw.count += len(spiking)
	return nil
}

// Count returns the number of spikes written.
func (sw *SpikeWriter) Count() int {
	return sw.count
}

// Flush writes any buffered rows.
func (sw *SpikeWriter) Flush() error {
	if err := sw.w.Flush(); err != nil {
		return fmt.Errorf("writing spikes: %w", err)
	}
	return nil
}
