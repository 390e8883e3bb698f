package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	apihttp "careplus/internal/common/http"
	"careplus/internal/models"
)

func alertsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show glucose alerts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list <patient-id>",
		Short: "List a patient's alerts, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			raw, err := a.client.Request(cmd.Context(), fmt.Sprintf("/patients/%d/alerts", id), nil)
			if err != nil {
				return err
			}
			alerts, err := apihttp.As[[]models.Alert](raw)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(stdout(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tRAISED\tSEVERITY\tMESSAGE")
			for _, al := range alerts {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", al.ID, al.Timestamp.Format(time.RFC3339), al.Severity, al.Message)
			}
			return tw.Flush()
		},
	})
	return cmd
}
