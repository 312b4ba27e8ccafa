package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/redartera/flytekit/pkg/capi/services/jobs"
	"github.com/redartera/flytekit/pkg/connector"
)

var submitCmd = &cobra.Command{
	Use:   "submit <connector>",
	Short: "Submit a job to a backend",
	Long: `Submit a job to the named backend and print the opaque handle to use
with status and cancel.

Examples:
	fconnect submit mmcloud --name train --image python:3.11 --min-cpu 2 --max-cpu 4 -- python train.py
	fconnect submit openai-batch --name embed --extra input_file_id=file-abc123`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSubmit,
}

var (
	submitName      string
	submitImage     string
	submitEnv       []string
	submitExtra     []string
	submitMinCPU    int
	submitMaxCPU    int
	submitMinMemory int
	submitMaxMemory int
)

func runSubmit(cmd *cobra.Command, args []string) {
	conn, err := newConnector(cmd, args[0])
	if err != nil {
		log.Fatalf("%v", err)
	}

	req := connector.Request{
		Name:  submitName,
		Image: submitImage,
		Args:  args[1:],
		Env:   parseKeyValues(submitEnv),
		Extra: parseKeyValues(submitExtra),
		Resources: connector.ResourceBounds{
			MinCPU:    submitMinCPU,
			MaxCPU:    submitMaxCPU,
			MinMemory: submitMinMemory,
			MaxMemory: submitMaxMemory,
		},
	}

	handle, err := conn.Create(cmd.Context(), req)
	if err != nil {
		log.Fatalf("failed to submit job: %v", err)
	}

	encoded, err := jobs.EncodeHandle(handle)
	if err != nil {
		log.Fatalf("failed to encode handle: %v", err)
	}

	fmt.Printf("Job submitted: %s\n", handle.JobID)
	fmt.Printf("Handle: %s\n", encoded)
}

func parseKeyValues(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, found := strings.Cut(pair, "=")
		if !found {
			log.Fatalf("bad key=value pair: %q", pair)
		}
		m[k] = v
	}
	return m
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitName, "name", "", "Job name")
	submitCmd.Flags().StringVar(&submitImage, "image", "", "Container image")
	submitCmd.Flags().StringArrayVarP(&submitEnv, "env", "e", nil, "Environment variable (key=value, repeatable)")
	submitCmd.Flags().StringArrayVar(&submitExtra, "extra", nil, "Backend-specific option (key=value, repeatable)")
	submitCmd.Flags().IntVar(&submitMinCPU, "min-cpu", 0, "Minimum CPU cores")
	submitCmd.Flags().IntVar(&submitMaxCPU, "max-cpu", 0, "Maximum CPU cores")
	submitCmd.Flags().IntVar(&submitMinMemory, "min-memory", 0, "Minimum memory in GiB")
	submitCmd.Flags().IntVar(&submitMaxMemory, "max-memory", 0, "Maximum memory in GiB")
	submitCmd.MarkFlagRequired("name")
}
