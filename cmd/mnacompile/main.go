// Command mnacompile builds one of the bundled demo circuits and prints its
// compiled TransientSolution — a small harness over circuit + mna.Solve, not
// a general schematic-driven simulator front end.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/mnacompile/circuit"
	"github.com/katalvlaran/mnacompile/logx"
	"github.com/katalvlaran/mnacompile/mna"
)

var (
	sampleRate float64
	noDC       bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mnacompile",
		Short: "Compile a bundled demo circuit into a TransientSolution",
	}
	root.PersistentFlags().Float64Var(&sampleRate, "sample-rate", 48000, "audio sample rate in Hz, sets the timestep for time-varying demos")
	root.PersistentFlags().BoolVar(&noDC, "no-dc", false, "skip DC initial-condition analysis")

	root.AddCommand(
		newDemoCmd("divider", "Pure resistor divider (S1)", func() circuit.Demo {
			return circuit.ResistorDivider(1000, 2000)
		}),
		newDemoCmd("rc-lowpass", "RC low-pass filter (S2)", func() circuit.Demo {
			return circuit.RCLowPass(1000, 1e-6, 1/sampleRate)
		}),
		newDemoCmd("diode-clipper", "Two-diode clamp network with a shunt-capacitor stage (S3)", func() circuit.Demo {
			return circuit.DiodeClipper(1000, 1e-6, 1000, 1000, 1e-12, 0.026, 1/sampleRate)
		}),
		newDemoCmd("dc-failure", "Diode driven from a DC operating point that diverges Newton-Raphson (S4)", func() circuit.Demo {
			return circuit.DCFailure(1000, 1e-12, 0.026, 1/sampleRate)
		}),
		newDemoCmd("singular-jacobian", "Two linearly-dependent branch-current equations (S5, always fails to compile)", func() circuit.Demo {
			return circuit.SingularJacobian()
		}),
	)
	return root
}

func newDemoCmd(use, short string, build func() circuit.Demo) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			demo := build()
			log := logx.New(os.Stderr)
			sol, err := mna.Solve(demo.Analysis, demo.TimeStep, !noDC, log)
			if err != nil {
				return fmt.Errorf("compiling %s: %w", demo.Name, err)
			}
			fmt.Fprint(os.Stdout, sol.Render())
			return nil
		},
	}
}
