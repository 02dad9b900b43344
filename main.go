// Command cmagfit fits parametric models of cortical magnification to pRF
// measurements across subjects, hemispheres and visual-area labels. A JSON5
// parameter file selects the data and the model; machine-local paths come
// from CMAG_* environment variables (see the dataset package).
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	paramsPath     string
	outDir         string
	overwriteCache bool
	verbose        bool
)

func main() {
	root := &cobra.Command{
		Use:           "cmagfit",
		Short:         "Fit cortical magnification models to pRF measurements",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&paramsPath, "params", "p", "cmag_params.json5", "analysis parameter file (JSON5)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "Run the batch cumulative-area fit and write results and plots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit()
		},
	}
	fitCmd.Flags().StringVarP(&outDir, "out", "o", "cmag_out", "output directory for results and plots")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Build the per-subject vertex cache files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCache()
		},
	}
	cacheCmd.Flags().BoolVar(&overwriteCache, "overwrite", false, "rebuild cache files even when present")

	root.AddCommand(fitCmd, cacheCmd)
	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
