package system

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"go.fergus.london/actorkit/kernel"
)

// PrintTree renders the live hierarchy as an indented, depth-ordered
// table: one row per actor, its name and lifecycle state as columns,
// indentation standing in for the original runtime's plain-text
// depth-indented tree walk.
func (s *ActorSystem) PrintTree(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Actor", "State"})
	table.SetAutoWrapText(false)

	walkTree(table, s.root, 0)
	table.Render()
}

func walkTree(table *tablewriter.Table, cell *kernel.Cell, depth int) {
	if cell == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	name := cell.Uri().Name
	if name == "" {
		name = "/"
	}
	table.Append([]string{indent + name, cell.State().String()})

	for _, childRef := range cell.Children() {
		if child, ok := childRef.Handle().(*kernel.Cell); ok {
			walkTree(table, child, depth+1)
		}
	}
}
