package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/msalah0e/h2canvas/internal/graph"
	"github.com/msalah0e/h2canvas/internal/parallel"
	"github.com/msalah0e/h2canvas/internal/plant"
	"github.com/msalah0e/h2canvas/internal/sim"
	"github.com/msalah0e/h2canvas/internal/ui"
	"github.com/spf13/cobra"
)

func simulateCmd() *cobra.Command {
	var (
		plantPath     string
		source        string
		electrolyzers int
		noStorage     bool
		steps         int
		seed          int64
		asJSON        bool
		hourly        bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a plant locally",
		Long: `Run the plant simulation without a service.

  h2canvas simulate                            # one electrolyzer on solar with a tank
  h2canvas simulate --source WindPowerSource -n 3
  h2canvas simulate --plant plant.toml --hourly
  h2canvas simulate --json | jq .traces[0].hydrogen_mw
  h2canvas simulate init                       # write a sample plant.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				pf  *PlantFile
				err error
			)
			if plantPath != "" {
				pf, err = loadPlantFile(plantPath)
			} else {
				pf, err = referencePlant(source, electrolyzers, !noStorage)
			}
			if err != nil {
				return err
			}
			g, err := pf.Graph()
			if err != nil {
				return err
			}

			opts := simOptions(cfg)
			if cmd.Flags().Changed("steps") {
				opts.Steps = steps
			}
			if cmd.Flags().Changed("seed") {
				opts.Seed = uint64(seed)
			}

			out := cmd.OutOrStdout()
			if !asJSON {
				ui.Banner(out, "simulating "+pf.Name)
				printPlant(out, g)
				opts.Reporter = parallel.Printer{W: out}
			}

			report, err := sim.Run(cmd.Context(), g, opts)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printSummary(out, report)
			if hourly {
				for _, tr := range report.Traces {
					printHourly(out, tr)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&plantPath, "plant", "", "Plant layout TOML file")
	cmd.Flags().StringVar(&source, "source", plant.TypeSolar, "Power source type for the reference plant")
	cmd.Flags().IntVarP(&electrolyzers, "electrolyzers", "n", 1, "Number of independent electrolyzers in the reference plant")
	cmd.Flags().BoolVar(&noStorage, "no-storage", false, "Leave the reference plant without tanks")
	cmd.Flags().IntVar(&steps, "steps", 24, "Hourly steps to simulate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&hourly, "hourly", false, "Print every step")
	_ = cmd.RegisterFlagCompletionFunc("source", sourceTypeCompletionFunc)

	cmd.AddCommand(simulateInitCmd())
	return cmd
}

func simulateInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample plant layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "plant.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := writeSamplePlant(path); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ui.Good.Fprintf(out, "  Created %s\n", path)
			fmt.Fprintf(out, "  Edit it, then run: h2canvas simulate --plant %s\n", path)
			return nil
		},
	}
}

func printPlant(w io.Writer, g *graph.Graph) {
	st := g.GetStats()
	fmt.Fprintf(w, "  %d components · %d connections · %d electrolyzers\n",
		st.Components, st.Connections, st.Electrolyzers)
	fmt.Fprintf(w, "  %s\n\n", ui.Subtle.Sprint(strings.Join(g.Names(), ", ")))
}

func printHourly(w io.Writer, tr sim.Trace) {
	fmt.Fprintf(w, "  %s\n", ui.Brand.Sprint(tr.Electrolyzer))
	rows := make([][]string, 0, len(tr.PowerInput))
	for i := range tr.PowerInput {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%.2f", tr.PowerInput[i]),
			fmt.Sprintf("%.2f", tr.Hydrogen[i]),
			fmt.Sprintf("%.2f", tr.StorageLevel[i]),
		})
	}
	ui.Table(w, []string{"Hour", "Power (MW)", "H2 (MW)", "Tank (MWh)"}, rows)
	fmt.Fprintln(w)
}
