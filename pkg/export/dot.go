// Package export renders a mind map as Graphviz output.
//
// Only the visible subset of the forest is exported: nodes behind a
// collapsed ancestor are absent from both the node list and the connector
// edges, exactly as in the interactive view.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/jholzmann/canopy/pkg/mindmap"
)

// Options configures mind-map export.
type Options struct {
	// Detailed includes node type and level in labels.
	// When false, only the title is shown.
	Detailed bool
}

// ToDOT converts the visible subset of a node set to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG] or [RenderPNG].
func ToDOT(nodes []mindmap.Node, opts Options) string {
	visible := mindmap.Visible(nodes)
	visibleIDs := make(map[string]bool, len(visible))
	for _, n := range visible {
		visibleIDs[n.ID] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph canopy {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range visible {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range visible {
		if n.ParentID == "" || !visibleIDs[n.ParentID] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", n.ParentID, n.ID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n mindmap.Node, detailed bool) string {
	title := n.Title
	if title == "" {
		title = "(untitled)"
	}
	if !detailed {
		return title
	}
	return fmt.Sprintf("%s\n%s · level %d", title, n.Type, n.Level)
}

func fmtAttrs(n mindmap.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.Loading:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case n.Type == mindmap.TypeRoot:
		attrs = append(attrs, "fillcolor=lightyellow", "penwidth=2")
	case n.Type == mindmap.TypeDetail:
		attrs = append(attrs, "fillcolor=aliceblue")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
