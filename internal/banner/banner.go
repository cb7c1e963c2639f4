package banner

import (
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// Print writes the startup banner to w.
func Print(w io.Writer, version string) {
	fig := figure.NewFigure("AEGIS", "doom", true)

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = cyan.Fprint(w, fig.String())
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = green.Fprintf(w, "    Lexical URL risk scanner %s\n", version)
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
}
