package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"
)

// NewPipelineCmd создаёт группу команд для просмотра конфигураций.
func NewPipelineCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Inspect pipeline configurations",
	}

	cmd.AddCommand(
		newPipelineListCmd(clientFn, outputFn),
		newPipelineLookupCmd(clientFn, outputFn),
	)

	return cmd
}

var pipelineHeaders = []string{"ID", "WORKSPACE", "STAGE", "AGENT", "WIP", "STATUS"}

func pipelineRow(p PipelineResponse) []string {
	return []string{p.ID, p.WorkspaceID, orDash(p.ViewGroupID), p.Agent, strconv.Itoa(p.WIPLimit), p.Status}
}

func newPipelineListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipelines, err := clientFn().ListPipelines()
			if err != nil {
				return err
			}

			rows := make([][]string, len(pipelines))
			for i, p := range pipelines {
				rows[i] = pipelineRow(p)
			}

			outputFn().Print(pipelineHeaders, rows, pipelines)
			return nil
		},
	}
}

func newPipelineLookupCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts LookupPipelineOpts

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Find the pipeline for an object, field, stage or view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts == (LookupPipelineOpts{}) {
				return errors.New("at least one of --object, --field, --stage, --view is required")
			}

			p, err := clientFn().LookupPipeline(opts)
			if err != nil {
				return err
			}

			outputFn().Print(pipelineHeaders, [][]string{pipelineRow(*p)}, p)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ObjectMetadataID, "object", "", "Object metadata ID")
	cmd.Flags().StringVar(&opts.FieldMetadataID, "field", "", "Field metadata ID")
	cmd.Flags().StringVar(&opts.ViewGroupID, "stage", "", "Stage (view group) ID")
	cmd.Flags().StringVar(&opts.ViewID, "view", "", "View ID")

	return cmd
}
