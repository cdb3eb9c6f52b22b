package storage

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/LyesMestiri/atom/internal/particle"
)

var ErrNoPaths = errors.New("storage: no paths to draw")

var speciesStroke = map[particle.Species]string{
	particle.Electron: "#00bfff",
	particle.Positron: "#ff4f8b",
	particle.Ion:      "#ffb000",
	particle.Proton:   "#ff6a00",
	particle.Neutral:  "#9e9e9e",
}

// WriteTrajectorySVG draws the paths of the given particles in the
// (xComp, yComp) plane, one polyline each, coloured by species. All paths
// share a single padded bounding box.
func WriteTrajectorySVG(w io.Writer, traj *Trajectory, xComp, yComp string, indices []int, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("storage: bad svg size %dx%d", width, height)
	}

	type path struct {
		xs, ys []float64
		stroke string
	}
	paths := make([]path, 0, len(indices))
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)

	for _, idx := range indices {
		xs, err := traj.Series(idx, xComp)
		if err != nil {
			return err
		}
		ys, err := traj.Series(idx, yComp)
		if err != nil {
			return err
		}
		if len(xs) < 2 {
			continue
		}
		minX, maxX = min(minX, floats.Min(xs)), max(maxX, floats.Max(xs))
		minY, maxY = min(minY, floats.Min(ys)), max(maxY, floats.Max(ys))

		stroke := "#00ff00"
		if idx < len(traj.Species) {
			if c, ok := speciesStroke[traj.Species[idx]]; ok {
				stroke = c
			}
		}
		paths = append(paths, path{xs: xs, ys: ys, stroke: stroke})
	}
	if len(paths) == 0 {
		return ErrNoPaths
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for _, p := range paths {
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, p.stroke)
		for i := range p.xs {
			x := (p.xs[i] - minX) / rangeX * float64(width)
			y := float64(height) - (p.ys[i]-minY)/rangeY*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}
	fmt.Fprintf(&sb, `<text x="8" y="%d" fill="#cccccc" font-family="monospace" font-size="12">%s vs %s</text>
</svg>
`, height-8, yComp, xComp)

	_, err := io.WriteString(w, sb.String())
	return err
}
