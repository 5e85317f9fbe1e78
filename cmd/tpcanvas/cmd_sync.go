// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(semesterCmd, courseCmd, removeCourseCmd)
}

var semesterCmd = &cobra.Command{
	Use:   "semester <sem>",
	Short: "Synchronize every course with teaching activity in a semester",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return a.orch.SyncSemester(cmd.Context(), args[0])
	},
}

var courseCmd = &cobra.Command{
	Use:   "course <id> <sem> <termnr>",
	Short: "Synchronize one course across its whole term window",
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
		return a.orch.SyncCourse(cmd.Context(), args[0], args[1], termNr)
	},
}

var removeCourseCmd = &cobra.Command{
	Use:   "remove-course <id> <sem> <termnr>",
	Short: "Delete every mirrored calendar event of one course",
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
		return a.orch.RemoveCourse(cmd.Context(), args[0], args[1], termNr)
	},
}
