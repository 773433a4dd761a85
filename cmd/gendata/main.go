package main

import (
	"log"

	"propertyetl/config"
	"propertyetl/etl"

	"github.com/spf13/cobra"
)

func main() {
	var out string
	var rows int
	var seed uint64
	var regions []string

	rootCmd := &cobra.Command{
		Use:   "gendata",
		Short: "Write a synthetic property repair CSV for local runs",
		Run: func(cmd *cobra.Command, args []string) {
			// Deterministic for a given seed, so demo runs are repeatable.
			records := etl.GenerateRecords(rows, seed, regions)
			if err := etl.WriteCSV(out, records); err != nil {
				log.Fatalf("failed to write %s: %v", out, err)
			}
			log.Printf("wrote %d synthetic records to %s", len(records), out)
		},
	}

	rootCmd.Flags().StringVar(&out, "out", config.DefaultInputPath, "Output CSV path")
	rootCmd.Flags().IntVar(&rows, "rows", 1000, "Number of repair records to generate")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed")
	rootCmd.Flags().StringSliceVar(&regions, "regions", etl.DefaultRegions, "Region names to draw from")

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}
