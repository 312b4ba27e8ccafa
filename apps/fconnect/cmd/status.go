package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/redartera/flytekit/pkg/capi/services/jobs"
)

var statusCmd = &cobra.Command{
	Use:   "status <connector> <handle>",
	Short: "Poll a job's canonical phase",
	Args:  cobra.ExactArgs(2),
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	handle, err := jobs.DecodeHandle(args[1])
	if err != nil {
		log.Fatalf("bad handle: %v", err)
	}

	conn, err := newConnector(cmd, args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}

	res, err := conn.Get(cmd.Context(), handle)
	if err != nil {
		log.Fatalf("failed to poll job: %v", err)
	}

	fmt.Printf("Job: %s\n", handle.JobID)
	fmt.Printf("Phase: %s\n", res.Phase)
	if res.Message != "" {
		fmt.Printf("Message: %s\n", res.Message)
	}
	if len(res.Outputs) > 0 {
		data, err := json.MarshalIndent(res.Outputs, "", "  ")
		if err == nil {
			fmt.Printf("Outputs:\n%s\n", data)
		}
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
