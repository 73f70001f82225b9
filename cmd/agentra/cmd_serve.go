package main

import (
	"github.com/spboyer/agentra/internal/config"
	"github.com/spboyer/agentra/internal/webserver"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var (
		port       int
		resultsDir string
		noBrowser  bool
		origins    []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse saved results in a local web page",
		Long: `Start a local HTTP server over the saved results directory.

The index page links an HTML report for each result. The same data is
available as JSON under /api: /api/results, /api/results/{name},
/api/summary and /api/compare?name=a&name=b.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := webserver.New(webserver.Config{
				Port:           port,
				ResultsDir:     resultsDir,
				NoBrowser:      noBrowser,
				AllowedOrigins: origins,
				Out:            cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", webserver.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&resultsDir, "results-dir", config.DefaultResultsDir, "Directory containing saved results")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open a browser")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "Origins allowed to call the API")

	return cmd
}
