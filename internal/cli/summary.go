package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/childcare-availability/internal/domain"
	"github.com/couchcryptid/childcare-availability/internal/pipeline"
)

func newSummaryCmd(src *sourceFlags) *cobra.Command {
	var (
		filter filterFlags
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print join statistics and the counters for a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := filter.query(cmd)
			if err != nil {
				return err
			}
			session, err := src.load(cmd)
			if err != nil {
				return err
			}
			opts, err := session.Options(nil)
			if err != nil {
				return err
			}
			res, err := session.Apply(q)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printStats(w, opts)
			printResult(w, res)
			if list {
				printViews(w, res.Views)
			}
			return nil
		},
	}

	filter.register(cmd)
	cmd.Flags().BoolVar(&list, "list", false, "list the facilities matching the filter")
	return cmd
}

func printStats(w io.Writer, opts pipeline.Options) {
	st := opts.Stats
	fmt.Fprintln(w, styleTitle.Render("Datasets"))
	fmt.Fprintf(w, "  %s %d loaded, %d missing id, %d bad coordinates, %d duplicate\n",
		styleLabel.Render("facilities:  "), st.FacilitiesAdmitted, st.RowsMissingID, st.RowsBadCoordinates, st.RowsDuplicate)
	fmt.Fprintf(w, "  %s %d rows, %d discarded\n",
		styleLabel.Render("availability:"), st.AvailabilityRows, st.AvailabilityDiscarded)
	fmt.Fprintf(w, "  %s %d hits, %d misses, %d orphans\n",
		styleLabel.Render("join:        "), st.JoinHits, st.JoinMisses, st.OrphanFacilities)

	dates := "none"
	if len(opts.Dates) > 0 {
		dates = fmt.Sprintf("%s to %s (%d)", opts.MinDate, opts.MaxDate, len(opts.Dates))
	}
	fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("dates:       "), dates)

	ages := make([]string, 0, len(opts.Ages))
	for _, a := range opts.Ages {
		ages = append(ages, strconv.Itoa(a)+"歳")
	}
	fmt.Fprintf(w, "  %s %s\n", styleLabel.Render("ages:        "), strings.Join(ages, " "))
	fmt.Fprintln(w)
}

func printResult(w io.Writer, res domain.Result) {
	fmt.Fprintln(w, styleTitle.Render("Filter"))
	fmt.Fprintf(w, "  %s\n", res.Summary.Text)
	fmt.Fprintf(w, "  visible %d", res.Counters.Visible)
	if res.Summary.ShowStatus {
		fmt.Fprintf(w, "  %s  %s",
			styleAvailable.Render(fmt.Sprintf("available %d", res.Counters.Available)),
			styleFull.Render(fmt.Sprintf("full %d", res.Counters.Full)))
	}
	fmt.Fprintln(w)
}

func printViews(w io.Writer, views []domain.FacilityView) {
	rows := make([][]string, 0, len(views))
	styles := make([]domain.Style, 0, len(views))
	for _, v := range views {
		if !v.Visible {
			continue
		}
		label := ""
		if v.Label != nil {
			label = strings.ReplaceAll(v.Label.Text(), "\n", " ")
		}
		rows = append(rows, []string{v.ID, v.Name, v.Category.Label(), string(v.Style), label})
		styles = append(styles, v.Style)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, styleDim.Render("  no facilities match"))
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Category", "Style", "Label").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 3 && row >= 0 && row < len(styles) {
				return styleFor(styles[row])
			}
			return lipgloss.NewStyle()
		})
	fmt.Fprintln(w)
	fmt.Fprintln(w, t.Render())
}
