package schedule

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotaplan/rotaplan/pkg/sat"
)

// Off marks a week in which a resident is on no rotation.
const Off = -1

// Snapshot is a solution decoded into schedule tables.
type Snapshot struct {
	Residents []string
	Rotations []string
	Weeks     int
	// Assignment[r][w] is the rotation of resident r in week w, or Off.
	Assignment [][]int
	// Headcount[s][w] is the number of residents on rotation s in week w.
	Headcount [][]int
	Cost      int
	Optimal   bool
}

// Snapshot decodes a solution of the plan's model.
func (p *Plan) Snapshot(sol *sat.Solution) *Snapshot {
	snap := &Snapshot{
		Residents:  p.Residents,
		Rotations:  p.Rotations,
		Weeks:      p.Weeks,
		Assignment: make([][]int, len(p.Residents)),
		Headcount:  make([][]int, len(p.Rotations)),
		Cost:       sol.Cost,
		Optimal:    sol.Optimal,
	}
	for s := range snap.Headcount {
		snap.Headcount[s] = make([]int, p.Weeks)
	}
	for r := range p.Residents {
		snap.Assignment[r] = make([]int, p.Weeks)
		for w := 0; w < p.Weeks; w++ {
			snap.Assignment[r][w] = Off
			for s := range p.Rotations {
				if sol.Value(p.Shifts.At(r, s, w)) {
					snap.Assignment[r][w] = s
					snap.Headcount[s][w]++
				}
			}
		}
	}
	return snap
}

// Render prints the resident by week assignment table followed by
// the rotation by week headcount table.
func (s *Snapshot) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	header := func(first string) {
		fmt.Fprint(tw, first)
		for week := 0; week < s.Weeks; week++ {
			fmt.Fprintf(tw, "\t%d", week)
		}
		fmt.Fprintln(tw)
	}

	state := "feasible"
	if s.Optimal {
		state = "optimal"
	}
	fmt.Fprintf(tw, "cost %d (%s)\n\n", s.Cost, state)

	header("resident")
	for r, name := range s.Residents {
		cells := make([]string, s.Weeks)
		for week, rot := range s.Assignment[r] {
			cells[week] = "-"
			if rot != Off {
				cells[week] = s.Rotations[rot]
			}
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(cells, "\t"))
	}
	fmt.Fprintln(tw)

	header("rotation")
	for rot, name := range s.Rotations {
		cells := make([]string, s.Weeks)
		for week, n := range s.Headcount[rot] {
			cells[week] = strconv.Itoa(n)
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// WriteCSV writes one (resident, rotation, week) row per assigned
// shift.
func (s *Snapshot) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"resident", "rotation", "week"}); err != nil {
		return err
	}
	for r, name := range s.Residents {
		for week, rot := range s.Assignment[r] {
			if rot == Off {
				continue
			}
			if err := cw.Write([]string{name, s.Rotations[rot], strconv.Itoa(week)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
