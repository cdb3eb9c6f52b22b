package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/LyesMestiri/atom/internal/analysis"
	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/storage"
)

var (
	distSpecies string
	distAxis    string
	distLevels  int
	distFrame   int
	distNodes   int
	distHx      float64
	distSpeed   bool
	distBatches int
)

func newDistributionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distribution [run_id]",
		Short: "momentum histogram, node profile and velocity bands of a recorded frame",
		Args:  cobra.ExactArgs(1),
		RunE:  distributionRun,
	}
	cmd.Flags().StringVar(&distSpecies, "species", "", "species to show (default every recorded species)")
	cmd.Flags().StringVar(&distAxis, "axis", "x", "axis (x, y, z)")
	cmd.Flags().IntVar(&distLevels, "levels", 60, "momentum histogram bins")
	cmd.Flags().IntVar(&distFrame, "frame", -1, "frame to analyse, negative counts from the end")
	cmd.Flags().IntVar(&distNodes, "nodes", 0, "grid nodes for the position profile (0 = off)")
	cmd.Flags().Float64Var(&distHx, "hx", 0.01255, "grid spacing for --nodes")
	cmd.Flags().BoolVar(&distSpeed, "speed", false, "plot velocity instead of momentum in the profile")
	cmd.Flags().IntVar(&distBatches, "batches", 0, "velocity bands fixed on the first frame (0 = off)")
	return cmd
}

func distributionRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	pop, err := traj.Population(distFrame)
	if err != nil {
		return err
	}

	species := speciesIn(traj.Species)
	if distSpecies != "" {
		s, err := particle.ParseSpecies(distSpecies)
		if err != nil {
			return err
		}
		species = []particle.Species{s}
	}
	if len(species) == 0 {
		return fmt.Errorf("run %s records no species", meta.ID)
	}

	fmt.Printf("distribution: %s, frame %d of %d, axis %s\n\n", meta.ID, distFrame, len(traj.Frames), distAxis)

	for _, s := range species {
		h, err := analysis.MomentumHistogram(pop, s, distAxis, distLevels)
		if err != nil {
			return err
		}
		fmt.Println(renderHistogram(h))
		fmt.Printf("%s: n = %d, mean p%s = %.6g, variance = %.6g\n\n", s, h.N, distAxis, h.Mean, h.Variance)

		if distNodes > 0 {
			prof, err := analysis.VelocityProfile(pop, s, distAxis, distNodes, distHx)
			if err != nil {
				return err
			}
			fmt.Println(renderProfile(prof, distSpeed))
			if prof.Outside > 0 {
				fmt.Printf("%d particles outside the grid\n", prof.Outside)
			}
			fmt.Println()
		}

		if distBatches > 0 {
			if err := printBands(traj, pop, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// speciesIn lists each species once, in order of first appearance.
func speciesIn(recorded []particle.Species) []particle.Species {
	var out []particle.Species
	seen := make(map[particle.Species]bool)
	for _, s := range recorded {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func renderHistogram(h analysis.Histogram) string {
	counts := make([]float64, len(h.Counts))
	for i, c := range h.Counts {
		counts[i] = float64(c)
	}
	return asciigraph.PlotMany([][]float64{counts, h.Normal()},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.Red),
		asciigraph.SeriesLegends("count", "normal"),
		asciigraph.Caption(fmt.Sprintf("%s p%s in [%.4g, %.4g]", h.Species, h.Axis, h.Min, h.Min+h.Delta*float64(len(h.Counts)))),
	)
}

func renderProfile(prof analysis.Profile, speed bool) string {
	data, label := prof.Momentum, "p"
	if speed {
		data, label = prof.Velocity, "v"
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s mean %s%s per node (hx = %g)", prof.Species, label, prof.Axis, prof.Hx)),
	)
}

// printBands assigns velocity bands on the first frame and shows where each
// band sits in the analysed frame.
func printBands(traj *storage.Trajectory, pop []particle.Particle, s particle.Species) error {
	first, err := traj.Population(0)
	if err != nil {
		return err
	}
	batches, err := analysis.VelocityBatches(first, s, distAxis, distBatches)
	if err != nil {
		return err
	}
	plane, err := analysis.PhasePlane(pop, batches, distAxis)
	if err != nil {
		return err
	}

	portrait := &analysis.PhasePortrait2D{XLabel: distAxis, YLabel: "v" + distAxis}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "BAND\tCOUNT\tMEAN %s\tMEAN V%s\n", distAxis, distAxis)
	for b, points := range plane {
		if len(points) == 0 {
			continue
		}
		var x, v float64
		for _, p := range points {
			x += p.X
			v += p.Y
		}
		n := float64(len(points))
		fmt.Fprintf(w, "%d\t%d\t%.5g\t%.5g\n", b, len(points), x/n, v/n)
		portrait.Points = append(portrait.Points, points...)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))
	fmt.Println()
	return nil
}
