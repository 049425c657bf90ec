// =============================================================================
// Pre-Alert Engine - Board Command
// =============================================================================
//
// COMMAND USAGE:
//   prealert board [flags]
//
// Renders the sample shipment board: two inbound shipments (15 and 8 items)
// filtered by direction, date range and search term, one page per grid.
// Edits are applied in order: deletes, restores, moves.
//
// FLAGS:
//   --term       : Search term applied to every grid
//   --direction  : Inbound, Outbound or "" for all (default Inbound)
//   --from, --to : Inclusive date range (DD/MM/YYYY)
//   --page       : Page number, 1-based
//   --page-size  : 15, 25 or 50
//   --delete     : SHIPMENT:ITEM to remove (repeatable)
//   --restore    : ITEM to put back (repeatable)
//   --move       : SHIPMENT:ITEM:INDEX to reorder (repeatable)
//   --seed       : Seed for the sample quantities
//   --format     : table or yaml
//
// =============================================================================

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/prealert-engine/internal/board"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

var (
	boardTerm      string
	boardDirection string
	boardFrom      string
	boardTo        string
	boardPage      int
	boardPageSize  int
	boardDeletes   []string
	boardRestores  []string
	boardMoves     []string
	boardSeed      uint64
	boardFormat    string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Render the sample shipment board",
	Long: `Board renders the sample pre-alert board: each visible shipment grid with
its filtered rows, their totals and the requested page.

Example:
  prealert board --term SILVER --page-size 25
  prealert board --delete 176-16884485:S1-3 --restore S1-3
  prealert board --direction "" --from 01/10/2025 --to 10/10/2025`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []shipment.Option
		if boardSeed != 0 {
			opts = append(opts, shipment.WithSeed(boardSeed))
		}
		snap, err := board.Demo(opts...)
		if err != nil {
			return err
		}

		if snap, err = applyBoardFilters(cmd, snap); err != nil {
			return err
		}
		if snap, err = applyBoardEdits(snap); err != nil {
			return err
		}

		pageSize := boardPageSize
		if !cmd.Flags().Changed("page-size") {
			pageSize = appConfig.PageSize
		}
		view, err := snap.View(pageSize, boardPage)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch boardFormat {
		case "yaml":
			data, err := yaml.Marshal(view)
			if err != nil {
				return eris.Wrap(err, "render yaml")
			}
			_, err = out.Write(data)
			return err
		case "table":
		default:
			return eris.Errorf("unknown format %q (want table or yaml)", boardFormat)
		}

		if from, to := snap.DateRange(); !from.IsZero() || !to.IsZero() {
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Dates %s to %s", boardDateLabel(from), boardDateLabel(to))))
		}
		if len(view.Tables) == 0 {
			fmt.Fprintln(out, mutedStyle.Render("No shipments match the current filters."))
		}
		for _, t := range view.Tables {
			sh := t.Shipment
			title := fmt.Sprintf("#%d  MAWB %s  %s  %s  %s  Ref %s",
				sh.Sequence, sh.ID, sh.Direction, sh.Date.Format(board.DateLayout), sh.Status, sh.ReferenceNo)
			printItems(out, title, t.Page.Items)
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("  Page %d of %d (%d rows, %d per page)",
				t.Page.Number, t.Page.Count, len(t.Items), t.Page.Size)))
			fmt.Fprintln(out, titleStyle.Render("  Filtered total"))
			printSummary(out, t.Summary)
			fmt.Fprintln(out)
		}
		if len(view.Deleted) > 0 {
			fmt.Fprintln(out, titleStyle.Render("Deleted items"))
			for _, d := range view.Deleted {
				fmt.Fprintf(out, "  %s  %s (was row %d)\n", d.ShipmentID, d.Item.ID, d.Index+1)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)

	boardCmd.Flags().StringVarP(&boardTerm, "term", "t", "", "Search term applied to every grid")
	boardCmd.Flags().StringVar(&boardDirection, "direction", string(board.Inbound), `Direction filter: Inbound, Outbound or "" for all`)
	boardCmd.Flags().StringVar(&boardFrom, "from", "", "First day shown (DD/MM/YYYY)")
	boardCmd.Flags().StringVar(&boardTo, "to", "", "Last day shown (DD/MM/YYYY)")
	boardCmd.Flags().IntVar(&boardPage, "page", 1, "Page number")
	boardCmd.Flags().IntVar(&boardPageSize, "page-size", board.DefaultPageSize, "Rows per page: 15, 25 or 50")
	boardCmd.Flags().StringArrayVar(&boardDeletes, "delete", nil, "SHIPMENT:ITEM to remove")
	boardCmd.Flags().StringArrayVar(&boardRestores, "restore", nil, "ITEM to put back")
	boardCmd.Flags().StringArrayVar(&boardMoves, "move", nil, "SHIPMENT:ITEM:INDEX to reorder")
	boardCmd.Flags().Uint64Var(&boardSeed, "seed", 0, "Seed for the sample quantities (0 = random)")
	boardCmd.Flags().StringVar(&boardFormat, "format", "table", "Output format: table or yaml")
}

func applyBoardFilters(cmd *cobra.Command, snap board.Snapshot) (board.Snapshot, error) {
	if cmd.Flags().Changed("page-size") && !validPageSize(boardPageSize) {
		return snap, eris.Wrapf(shipment.ErrInvalidArgument, "page size must be one of %v, got %d", board.PageSizes, boardPageSize)
	}

	dir, err := board.ParseDirection(boardDirection)
	if err != nil {
		return snap, err
	}
	if snap, err = snap.WithDirection(dir); err != nil {
		return snap, err
	}

	from, err := parseBoardDate(boardFrom)
	if err != nil {
		return snap, err
	}
	to, err := parseBoardDate(boardTo)
	if err != nil {
		return snap, err
	}
	if snap, err = snap.WithDateRange(from, to); err != nil {
		return snap, err
	}

	return snap.WithSearch(boardTerm), nil
}

func applyBoardEdits(snap board.Snapshot) (board.Snapshot, error) {
	var err error
	for _, d := range boardDeletes {
		parts := strings.SplitN(d, ":", 2)
		if len(parts) != 2 {
			return snap, eris.Wrapf(shipment.ErrInvalidArgument, "--delete wants SHIPMENT:ITEM, got %q", d)
		}
		if snap, err = snap.Delete(parts[0], parts[1]); err != nil {
			return snap, err
		}
	}
	for _, id := range boardRestores {
		if snap, err = snap.Restore(id); err != nil {
			return snap, err
		}
	}
	for _, m := range boardMoves {
		parts := strings.Split(m, ":")
		if len(parts) != 3 {
			return snap, eris.Wrapf(shipment.ErrInvalidArgument, "--move wants SHIPMENT:ITEM:INDEX, got %q", m)
		}
		to, err := strconv.Atoi(parts[2])
		if err != nil {
			return snap, eris.Wrapf(shipment.ErrInvalidArgument, "--move index %q", parts[2])
		}
		if snap, err = snap.Move(parts[0], parts[1], to); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

func parseBoardDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(board.DateLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(shipment.ErrInvalidArgument, "date %q is not DD/MM/YYYY", s)
	}
	return t, nil
}

func boardDateLabel(t time.Time) string {
	if t.IsZero() {
		return "any"
	}
	return t.Format(board.DateLayout)
}

func validPageSize(n int) bool {
	for _, size := range board.PageSizes {
		if n == size {
			return true
		}
	}
	return false
}
