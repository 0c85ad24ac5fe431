package cli

import (
	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для запуска runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dispatch runs",
	}

	cmd.AddCommand(newRunNowCmd(clientFn, outputFn))

	return cmd
}

func newRunNowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Dispatch one run immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			r, err := client.RunNow()
			if err != nil {
				return err
			}

			out.Success("Run requested: " + r.RequestID)
			out.Print(
				[]string{"REQUEST_ID", "SOURCE", "REQUESTED_AT"},
				[][]string{{r.RequestID, r.Source, formatTime(r.RequestedAt)}},
				r,
			)
			return nil
		},
	}
}
