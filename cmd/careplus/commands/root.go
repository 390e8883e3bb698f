// Package commands implements the careplus command-line client.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"careplus/internal/common/config"
	apperrors "careplus/internal/common/errors"
	apihttp "careplus/internal/common/http"
	"careplus/internal/common/logger"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	apiBase  string
	logLevel string

	client *apihttp.Client
	log    logger.Logger
}

func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		printError(root.ErrOrStderr(), err)
	}
	return err
}

// NewRootCmd builds the command tree. Defaults come from the client config.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cfg := config.LoadClient()

	root := &cobra.Command{
		Use:           "careplus",
		Short:         "Care+ patient monitoring from the terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.log = logger.NewStructured(a.logLevel, "console")
			a.client = apihttp.NewClient(a.apiBase,
				apihttp.WithLogger(a.log),
				apihttp.WithAlerter(apihttp.NewConsoleAlerter(cmd.ErrOrStderr())),
			)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.apiBase, "api", cfg.Client.BaseURL, "Care+ API base URL (default "+apihttp.DefaultBaseURL+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "error", "log level (debug, info, warn, error)")

	root.AddCommand(
		dashboardCmd(a, cfg.Dashboard.Address),
		patientsCmd(a),
		readingsCmd(a),
		alertsCmd(a),
	)
	return root
}

// printError writes the user-facing line for err.
func printError(w io.Writer, err error) {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		if stdErr.Details != "" {
			fmt.Fprintf(w, "%s: %s\n", stdErr.Message, stdErr.Details)
			return
		}
		fmt.Fprintln(w, stdErr.Message)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// backendError turns a non-2xx answer from Call into the error shown to the user.
func backendError(err error) error {
	var se *apihttp.StatusError
	if errors.As(err, &se) {
		return apperrors.NewBackendError(se.Status, se.Detail())
	}
	return err
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func stdout(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
