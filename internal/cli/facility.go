package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/childcare-availability/internal/domain"
)

func newFacilityCmd(src *sourceFlags) *cobra.Command {
	var filter filterFlags

	cmd := &cobra.Command{
		Use:   "facility <id>",
		Short: "Print the detail of one facility for a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := filter.query(cmd)
			if err != nil {
				return err
			}
			session, err := src.load(cmd)
			if err != nil {
				return err
			}
			d, style, ok, err := session.Detail(args[0], q)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("facility %s not found", args[0])
			}
			printDetail(cmd.OutOrStdout(), d, style)
			return nil
		},
	}

	filter.register(cmd)
	return cmd
}

func printDetail(w io.Writer, d domain.Detail, style domain.Style) {
	fmt.Fprintf(w, "%s %s\n", styleTitle.Render(d.Name), styleDim.Render("No. "+d.Identifier))
	if d.SelectedDate != "" {
		fmt.Fprintf(w, "  %s %s  %s\n", styleLabel.Render("date:"), d.SelectedDate, styleFor(style).Render(string(style)))
	}
	for _, f := range d.Fields {
		fmt.Fprintf(w, "  %s %s\n", styleLabel.Render(f.Label+":"), f.Value)
	}
	fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("map:"), d.MapsURL)
	fmt.Fprintln(w)
	fmt.Fprintln(w, d.Label.Text())
	fmt.Fprintln(w)

	if d.Availability.Empty() {
		fmt.Fprintln(w, styleDim.Render(d.Availability.EmptyMessage()))
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(d.Availability.Headers...).
		Rows(d.Availability.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w, t.Render())
}
