package cmd

import (
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List saved session reports grouped by tag",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newReportStore()
		if err != nil {
			return err
		}

		grouped, err := store.ByTag()
		if err != nil {
			return err
		}
		if len(grouped) == 0 {
			cmd.Println("no saved reports")
			return nil
		}

		tags := make([]string, 0, len(grouped))
		for tag := range grouped {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		for _, tag := range tags {
			cmd.Printf("Tag: %s\n", tag)
			for _, r := range grouped[tag] {
				cmd.Printf("  %s  %s  actions=%d  avg=%d  peak=%d  duration=%s\n",
					r.Filename,
					r.WrittenAt.Format("2006-01-02 15:04"),
					r.TotalActions,
					r.AverageAPM,
					r.PeakAPM,
					(time.Duration(r.DurationSeconds) * time.Second).String(),
				)
			}
		}
		return nil
	},
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete <filename>",
	Short: "Delete a single report document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newReportStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		cmd.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var reportsPruneCmd = &cobra.Command{
	Use:   "prune <tag>",
	Short: "Delete every report carrying the given tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newReportStore()
		if err != nil {
			return err
		}
		n, err := store.DeleteTag(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Deleted %d report(s) tagged %q\n", n, args[0])
		return nil
	},
}

var reportsIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Regenerate the HTML index and print its path",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newReportStore()
		if err != nil {
			return err
		}
		if err := store.RebuildIndex(); err != nil {
			return err
		}
		cmd.Println(store.IndexPath())
		return nil
	},
}

func init() {
	reportsCmd.AddCommand(reportsDeleteCmd)
	reportsCmd.AddCommand(reportsPruneCmd)
	reportsCmd.AddCommand(reportsIndexCmd)
	rootCmd.AddCommand(reportsCmd)
}
