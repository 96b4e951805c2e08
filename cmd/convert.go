package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/poweraware/dcsim/workload"
)

var convertFormat string

var convertCmd = &cobra.Command{
	Use:   "convert [path]",
	Short: "Parse a workload trace and print summary statistics",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		switch convertFormat {
		case "", "swf":
			jobs, err := workload.ParseSWF(path)
			if err != nil {
				logrus.Fatalf("parsing SWF trace: %v", err)
			}
			var totalRunTime float64
			var maxProcs int
			for _, j := range jobs {
				totalRunTime += j.RunTime
				if j.NumProcs > maxProcs {
					maxProcs = j.NumProcs
				}
			}
			fmt.Printf("jobs=%d total_run_time_s=%.1f max_procs=%d\n", len(jobs), totalRunTime, maxProcs)
		case "planetlab":
			traces, err := workload.ParsePlanetLabDay(path)
			if err != nil {
				logrus.Fatalf("parsing PlanetLab directory: %v", err)
			}
			fmt.Printf("vms=%d samples_per_vm=%d\n", len(traces), planetLabSampleCount(traces))
		default:
			logrus.Fatalf("unknown workload format %q", convertFormat)
		}
	},
}

func planetLabSampleCount(traces []workload.PlanetLabTrace) int {
	if len(traces) == 0 {
		return 0
	}
	return len(traces[0].Samples)
}

func init() {
	convertCmd.Flags().StringVar(&convertFormat, "format", "swf", "Workload trace format (swf, planetlab)")
}
