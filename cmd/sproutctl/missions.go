package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/sproutfound/internal/plugins/missions"
)

func newMissionsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missions",
		Short: "Show or rotate the mission board",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the active missions, rotating first if the board is stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := e.scheduler.Ensure(cmd.Context()); err != nil {
				return err
			}
			return e.printBoard(cmd)
		},
	}

	rotate := &cobra.Command{
		Use:   "rotate",
		Short: "Force a new rotation, resetting progress and claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := e.scheduler.Rotate(cmd.Context()); err != nil {
				return err
			}
			return e.printBoard(cmd)
		},
	}

	cmd.AddCommand(show, rotate)
	return cmd
}

func (e *env) printBoard(cmd *cobra.Command) error {
	user, err := e.creds.GetUserData(cmd.Context())
	if err != nil {
		return err
	}
	board := e.scheduler.Board(cmd.Context(), user)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPROGRESS\tREWARD\tSTATE")
	for _, m := range board.Missions {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%s\n",
			m.ID, m.Title, m.Count, m.Goal, m.Reward, missionState(m))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	left := time.Duration(board.TimeLeftMS) * time.Millisecond
	fmt.Fprintf(cmd.OutOrStdout(), "next rotation in %s\n", left.Round(time.Second))
	return nil
}

func missionState(m missions.MissionView) string {
	switch {
	case m.Claimed:
		return "claimed"
	case m.Claimable:
		return "claimable"
	default:
		return "open"
	}
}
