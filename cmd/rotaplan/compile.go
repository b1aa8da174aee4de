package main

import (
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rotaplan/rotaplan/pkg/sat"
	"github.com/rotaplan/rotaplan/pkg/schedule"
)

// newCompileCmd returns a command that writes the hard constraints of
// a dataset in DIMACS CNF format.
func newCompileCmd() *cobra.Command {
	compileCmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a scheduling dataset to DIMACS CNF",
		Long: `The rotaplan compile command compiles every rule of a dataset and
        writes the hard constraints as a DIMACS CNF problem, for use with
        an external SAT solver. Soft rules are not part of the output.

        $ rotaplan compile --dataset residency.yaml --output residency.cnf
        `,
		RunE: compileFunc,
	}

	compileCmd.Flags().StringP("dataset", "d", "", "The dataset file to compile.")
	compileCmd.Flags().StringP("output", "o", "-", "Where to write the CNF, - for stdout.")
	compileCmd.Flags().Int("parallelism", 1, "Number of residents compiled concurrently.")

	return compileCmd
}

func compileFunc(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}
	logger := newLogger(cmd, s)

	d, err := schedule.Load(s.Dataset)
	if err != nil {
		return err
	}
	m := sat.NewModel()
	plan, err := schedule.Build(cmd.Context(), m, d, schedule.Options{Parallelism: s.Parallelism, Logger: logger})
	if err != nil {
		return err
	}
	fingerprint, err := sat.Fingerprint(m)
	if err != nil {
		return err
	}

	write := func(w io.Writer) error {
		return sat.WriteDIMACS(w, m)
	}
	if s.Output == "-" {
		err = errors.Wrap(write(cmd.OutOrStdout()), "writing cnf")
	} else {
		err = writeFile(s.Output, write)
	}
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{
		"constraints": len(m.Constraints()),
		"penalties":   len(plan.Objective),
		"fingerprint": fingerprint,
	}).Info("compiled")
	return nil
}
