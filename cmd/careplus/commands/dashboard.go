package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"careplus/internal/dashboard"
)

func dashboardCmd(a *app, defaultAddr string) *cobra.Command {
	var (
		once bool
		addr string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the Care+ dashboard page",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := dashboard.New(a.client, a.log)
			if once {
				view, err := d.Load(cmd.Context())
				if err != nil {
					return err
				}
				for _, b := range view.Banners {
					fmt.Fprintln(cmd.ErrOrStderr(), b)
				}
				printSummary(cmd, view)
				return nil
			}
			return serve(cmd.Context(), addr, d.Handler(), cmd)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "print the summary cards and exit")
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address for the dashboard page")
	return cmd
}

func printSummary(cmd *cobra.Command, view *dashboard.View) {
	w := stdout(cmd)
	fmt.Fprintf(w, "Total Patients: %d\n", view.TotalPatients)
	fmt.Fprintf(w, "Average Glucose (mg/dL): %s\n", view.AvgGlucose)
	fmt.Fprintf(w, "Alerts: %d\n", view.TotalAlerts)
}

func serve(ctx context.Context, addr string, h http.Handler, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(stdout(cmd), "Care+ dashboard on http://localhost%s\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
