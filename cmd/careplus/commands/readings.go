package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	apihttp "careplus/internal/common/http"
	"careplus/internal/models"
)

func readingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readings",
		Short: "Record and list glucose readings",
	}
	cmd.AddCommand(readingsAddCmd(a), readingsListCmd(a))
	return cmd
}

func readingsAddCmd(a *app) *cobra.Command {
	var (
		readingCtx string
		notes      string
	)
	cmd := &cobra.Command{
		Use:   "add <patient-id> <mg/dL>",
		Short: "Record a glucose reading",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid reading %q", args[1])
			}

			in := models.ReadingCreate{PatientID: id, ValueMgdl: value, Context: models.ReadingContext(readingCtx)}
			if notes != "" {
				in.Notes = &notes
			}

			var r models.Reading
			err = a.client.Call(cmd.Context(), "/readings", &apihttp.Options{Method: "POST", Body: in}, &r)
			if err != nil {
				return backendError(err)
			}
			fmt.Fprintf(stdout(cmd), "Recorded reading %d: %.1f mg/dL (%s) at %s\n",
				r.ID, r.ValueMgdl, r.Context, r.Timestamp.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&readingCtx, "context", "", "fasting, pre_meal, post_meal or random (default random)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text note")
	return cmd
}

func readingsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <patient-id>",
		Short: "List a patient's readings, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			raw, err := a.client.Request(cmd.Context(), fmt.Sprintf("/patients/%d/readings", id), nil)
			if err != nil {
				return err
			}
			readings, err := apihttp.As[[]models.Reading](raw)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(stdout(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTAKEN\tMG/DL\tCONTEXT\tNOTES")
			for _, r := range readings {
				note := ""
				if r.Notes != nil {
					note = *r.Notes
				}
				fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\t%s\n", r.ID, r.Timestamp.Format(time.RFC3339), r.ValueMgdl, r.Context, note)
			}
			return tw.Flush()
		},
	}
}
