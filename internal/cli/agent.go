package cli

import (
	"github.com/spf13/cobra"
)

// NewAgentCmd создаёт группу команд для агентов.
func NewAgentCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect agents of the agent API",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := clientFn().ListAgents()
			if err != nil {
				return err
			}

			rows := make([][]string, len(agents))
			for i, a := range agents {
				rows[i] = []string{a.ID, a.Name, orDash(a.Type), orDash(a.Description)}
			}

			outputFn().Print([]string{"ID", "NAME", "TYPE", "DESCRIPTION"}, rows, agents)
			return nil
		},
	})

	return cmd
}
