// Package visualization renders network synapse graphs in various output
// formats.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/spiknet/internal/network"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// nodeColors maps neuron types to DOT colors.
var nodeColors = map[string]string{
	"RS":  "steelblue",
	"IB":  "mediumseagreen",
	"CH":  "goldenrod",
	"TC":  "orchid",
	"RZ":  "lightslateblue",
	"FS":  "tomato",
	"LTS": "salmon",
}

// nodeName is the DOT identifier of unit i.
func nodeName(i int) string {
	return fmt.Sprintf("n%d", i)
}

// RenderDOT produces a Graphviz DOT representation of the synapse graph.
// Inhibitory units are drawn as circles, excitatory ones as boxes; synapses
// with negative weight are dashed.
func RenderDOT(net *network.Network) string {
	var b strings.Builder
	b.WriteString("digraph spiknet {\n")
	b.WriteString("  node [style=filled, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=8];\n\n")

	for i := 0; i < net.Size(); i++ {
		typ := net.TypeOf(i)
		color := nodeColors[typ]
		if color == "" {
			color = "lightgray"
		}
		shape := "box"
		if net.IsInhibitory(i) {
			shape = "circle"
		}
		b.WriteString(fmt.Sprintf("  %s [label=\"%d %s\", shape=%s, fillcolor=%q];\n",
			nodeName(i), i, typ, shape, color))
	}
	b.WriteString("\n")

	for i := 0; i < net.Size(); i++ {
		for _, l := range net.Neighbors(i) {
			style := "solid"
			if l.Weight < 0 {
				style = "dashed"
			}
			b.WriteString(fmt.Sprintf("  %s -> %s [label=\"%.2f\", style=%s];\n",
				nodeName(i), nodeName(l.Target), l.Weight, style))
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a JSON graph representation with nodes and edges arrays.
func RenderJSON(net *network.Network) map[string]interface{} {
	nodes := make([]map[string]interface{}, 0, net.Size())
	var edges []map[string]interface{}
	for i := 0; i < net.Size(); i++ {
		degree, valence := net.Degree(i)
		nodes = append(nodes, map[string]interface{}{
			"id":         i,
			"type":       net.TypeOf(i),
			"inhibitory": net.IsInhibitory(i),
			"degree":     degree,
			"valence":    valence,
		})
		for _, l := range net.Neighbors(i) {
			edges = append(edges, map[string]interface{}{
				"source": i,
				"target": l.Target,
				"weight": l.Weight,
			})
		}
	}

	return map[string]interface{}{
		"nodes":      nodes,
		"edges":      edges,
		"node_count": len(nodes),
		"edge_count": len(edges),
	}
}
