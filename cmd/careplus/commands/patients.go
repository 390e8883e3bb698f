package commands

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apihttp "careplus/internal/common/http"
	"careplus/internal/models"
)

func patientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "List and manage patients",
	}
	cmd.AddCommand(patientsListCmd(a), patientsGetCmd(a), patientsAddCmd(a), patientsDeleteCmd(a))
	return cmd
}

func patientsListCmd(a *app) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patients, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/patients"
			if query != "" {
				path = "/patients/search?q=" + url.QueryEscape(query)
			}
			raw, err := a.client.Request(cmd.Context(), path, nil)
			if err != nil {
				return err
			}
			patients, err := apihttp.As[[]models.Patient](raw)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(stdout(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tDOB")
			for _, p := range patients {
				dob := "-"
				if p.DateOfBirth != nil {
					dob = p.DateOfBirth.String()
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.DiabetesType, dob)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "filter by name")
	return cmd
}

func patientsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var p models.Patient
			if err := a.client.Call(cmd.Context(), fmt.Sprintf("/patients/%d", id), nil, &p); err != nil {
				return backendError(err)
			}
			printPatient(cmd, p)
			return nil
		},
	}
}

func patientsAddCmd(a *app) *cobra.Command {
	var (
		in        models.PatientCreate
		diabetes  string
		dob       string
		bp        string
		heartRate int
		weight    float64
		phone     string
		email     string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a patient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.DiabetesType = models.DiabetesType(diabetes)
			if dob != "" {
				d, err := models.ParseDate(dob)
				if err != nil {
					return err
				}
				in.DateOfBirth = &d
			}
			flags := cmd.Flags()
			if flags.Changed("blood-pressure") {
				in.BloodPressure = &bp
			}
			if flags.Changed("heart-rate") {
				in.HeartRate = &heartRate
			}
			if flags.Changed("weight") {
				in.Weight = &weight
			}
			if phone != "" || email != "" {
				in.Emergency = map[string]interface{}{}
				if phone != "" {
					in.Emergency["phone"] = phone
				}
				if email != "" {
					in.Emergency["email"] = email
				}
			}

			var p models.Patient
			err := a.client.Call(cmd.Context(), "/patients", &apihttp.Options{Method: "POST", Body: in}, &p)
			if err != nil {
				return backendError(err)
			}
			printPatient(cmd, p)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&diabetes, "type", "", "diabetes type (T1D or T2D, default T2D)")
	f.StringVar(&dob, "dob", "", "date of birth (YYYY-MM-DD)")
	f.StringVar(&bp, "blood-pressure", "", `blood pressure, e.g. "120/80 mmHg"`)
	f.IntVar(&heartRate, "heart-rate", 0, "heart rate in bpm")
	f.Float64Var(&weight, "weight", 0, "weight in kg")
	f.StringVar(&phone, "emergency-phone", "", "emergency contact phone")
	f.StringVar(&email, "emergency-email", "", "emergency contact email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func patientsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient and all their records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var msg models.Message
			err = a.client.Call(cmd.Context(), fmt.Sprintf("/patients/%d", id), &apihttp.Options{Method: "DELETE"}, &msg)
			if err != nil {
				return backendError(err)
			}
			fmt.Fprintln(stdout(cmd), msg.Detail)
			return nil
		},
	}
}

func printPatient(cmd *cobra.Command, p models.Patient) {
	tw := tabwriter.NewWriter(stdout(cmd), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", p.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Type:\t%s\n", p.DiabetesType)
	if p.DateOfBirth != nil {
		fmt.Fprintf(tw, "Born:\t%s\n", p.DateOfBirth)
	}
	if p.Target != nil {
		t := p.Target
		fmt.Fprintf(tw, "Targets:\tfasting %g-%g, post-meal %g-%g, random %g-%g\n",
			t.Fasting.Min, t.Fasting.Max, t.PostMeal.Min, t.PostMeal.Max, t.Random.Min, t.Random.Max)
	}
	_ = tw.Flush()
}
