// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tpcanvas/internal/canvas"
)

func init() {
	rootCmd.AddCommand(checkStructureCmd, compareEnvCmd, mappingCmd, deleteEventCmd)
}

var checkStructureCmd = &cobra.Command{
	Use:   "check-structure",
	Short: "Repair shadow records that no longer reflect Canvas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.orch.CheckStructure(cmd.Context())
	},
}

var compareEnvCmd = &cobra.Command{
	Use:   "compare-env <id> <sem> <termnr>",
	Short: "Diff one course's calendars between two Canvas environments",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.HasSecondaryCanvas() {
			return fmt.Errorf("canvas_secondary.url and canvas_secondary.key must be configured")
		}
		termNr, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("termnr must be an integer: %q", args[2])
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		secondary := canvas.New(cfg.CanvasSecondary.URL, cfg.CanvasSecondary.Key,
			cfg.Canvas.AccountID, true)
		result, err := a.orch.CompareEnvironments(cmd.Context(), secondary, args[0], args[1], termNr)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ENVIRONMENT\tEVENT\tDIFFERING FIELDS")
		for env, diffs := range result {
			if len(diffs) == 0 {
				fmt.Fprintf(w, "%s\t-\tin sync\n", env)
				continue
			}
			for _, diff := range diffs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", env, diff.Title, strings.Join(diff.Fields, ","))
			}
		}
		return w.Flush()
	},
}

var mappingCmd = &cobra.Command{
	Use:   "mapping <id> <sem> <termnr>",
	Short: "Show which Canvas courses a TP course maps to",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		termNr, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("termnr must be an integer: %q", args[2])
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		mappings, err := a.orch.DescribeMapping(cmd.Context(), args[0], args[1], termNr)
		if err != nil {
			return err
		}
		if len(mappings) == 0 {
			fmt.Println("No Canvas courses found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CANVAS ID\tCOURSE CODE\tSIS ID\tEVENTS DUE")
		for _, m := range mappings {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", m.CanvasCourseID, m.CourseCode, m.SISCourseID, m.EventCount)
		}
		return w.Flush()
	},
}

var deleteEventCmd = &cobra.Command{
	Use:   "delete-event <canvas-event-id>",
	Short: "Delete a single calendar event and its shadow record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("event id must be an integer: %q", args[0])
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.orch.DeleteEvent(cmd.Context(), id)
	},
}
