package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"variants-service/internal/config"
	"variants-service/internal/job"
	"variants-service/internal/models"
	"variants-service/internal/reader"
)

var (
	familiesFile string
	familyCodes  []string
	variantCodes []string
)

var computeFamilyVariantsCmd = &cobra.Command{
	Use:   "compute-family-variants",
	Short: "Recompute the variant trees of families read from a file or flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		if familiesFile == "" && len(familyCodes) == 0 {
			return fmt.Errorf("either --file or --codes is required")
		}

		var r reader.Reader
		params := map[string]interface{}{}
		if familiesFile != "" {
			f, err := os.Open(familiesFile)
			if err != nil {
				return fmt.Errorf("open families file: %w", err)
			}
			defer f.Close()
			r, err = reader.ForFile(familiesFile, f)
			if err != nil {
				return err
			}
			params["file"] = familiesFile
		} else {
			r = reader.NewSliceReader(familyCodes)
			params["familyCodes"] = familyCodes
		}

		return runOnce(cmd, func(a *app) job.Job {
			return job.NewComputeFamilyVariantData(a.deps, r, params)
		})
	},
}

var computeStructureCmd = &cobra.Command{
	Use:   "compute-structure",
	Short: "Recompute every tree of the given family variants",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(variantCodes) == 0 {
			return fmt.Errorf("--variant-codes is required")
		}
		return runOnce(cmd, func(a *app) job.Job {
			return job.NewFamilyVariantStructureChanges(a.deps, variantCodes)
		})
	},
}

func init() {
	computeFamilyVariantsCmd.Flags().StringVarP(&familiesFile, "file", "f", "", "CSV or XLSX file with a code column")
	computeFamilyVariantsCmd.Flags().StringSliceVar(&familyCodes, "codes", nil, "Comma separated family codes")
	computeStructureCmd.Flags().StringSliceVar(&variantCodes, "variant-codes", nil, "Comma separated family variant codes")

	rootCmd.AddCommand(computeFamilyVariantsCmd)
	rootCmd.AddCommand(computeStructureCmd)
}

// runOnce wires the app, runs the job in the foreground and prints its summary
func runOnce(cmd *cobra.Command, build func(a *app) job.Job) error {
	a, err := newApp(config.Load())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	execution, runErr := a.runner.Run(ctx, build(a))
	if execution != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: process=%d skip=%d\n",
			execution.JobName,
			strings.ToLower(string(execution.Status)),
			execution.SummaryCount(models.SummaryProcess),
			execution.SummaryCount(models.SummarySkip))
	}
	return runErr
}
