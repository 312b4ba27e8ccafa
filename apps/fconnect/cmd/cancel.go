package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/redartera/flytekit/pkg/capi/services/jobs"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <connector> <handle>",
	Short: "Request best-effort cancellation of a job",
	Args:  cobra.ExactArgs(2),
	Run:   runCancel,
}

func runCancel(cmd *cobra.Command, args []string) {
	handle, err := jobs.DecodeHandle(args[1])
	if err != nil {
		log.Fatalf("bad handle: %v", err)
	}

	conn, err := newConnector(cmd, args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := conn.Delete(cmd.Context(), handle); err != nil {
		log.Fatalf("failed to cancel job: %v", err)
	}

	fmt.Printf("Cancellation requested for %s\n", handle.JobID)
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
