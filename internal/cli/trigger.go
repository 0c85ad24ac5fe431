package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTriggerCmd создаёт группу команд для управления триггером.
func NewTriggerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Manage the periodic run trigger",
	}

	cmd.AddCommand(
		newTriggerStartCmd(clientFn, outputFn),
		newTriggerStopCmd(clientFn, outputFn),
		newTriggerStatusCmd(clientFn, outputFn),
	)

	return cmd
}

func printTrigger(out *Output, t *TriggerResponse) {
	out.Print(
		[]string{"NAME", "PATTERN", "ACTIVE", "NEXT_RUN", "PREV_RUN"},
		[][]string{{t.Name, t.Pattern, strconv.FormatBool(t.Active), formatTime(t.NextRun), formatTime(t.PrevRun)}},
		t,
	)
}

func newTriggerStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Register the trigger with a cron pattern",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pattern == "" {
				return errors.New("--pattern is required")
			}

			client := clientFn()
			out := outputFn()

			t, err := client.StartTrigger(pattern)
			if err != nil {
				return err
			}

			out.Success("Trigger started: " + t.Pattern)
			printTrigger(out, t)
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Cron pattern (5 fields or @every/@hourly descriptor)")

	return cmd
}

func newTriggerStopCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Deregister the trigger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			t, err := client.StopTrigger()
			if err != nil {
				return err
			}

			out.Success("Trigger stopped")
			printTrigger(out, t)
			return nil
		},
	}
}

func newTriggerStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show trigger state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := clientFn().TriggerStatus()
			if err != nil {
				return err
			}

			printTrigger(outputFn(), t)
			return nil
		},
	}
}
