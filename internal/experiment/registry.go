package experiment

import (
	"fmt"
	"sort"

	"github.com/LyesMestiri/atom/internal/compute"
	"github.com/LyesMestiri/atom/internal/config"
	"github.com/LyesMestiri/atom/internal/fields"
	"github.com/LyesMestiri/atom/internal/metrics"
	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/sim"
)

type Registry struct {
	fields map[string]func(config.FieldConfig) fields.Source
}

func NewRegistry() *Registry {
	r := &Registry{
		fields: make(map[string]func(config.FieldConfig) fields.Source),
	}

	r.fields[config.FieldUniform] = func(fc config.FieldConfig) fields.Source {
		return fields.NewUniform(vec(fc.E), vec(fc.H))
	}
	r.fields[config.FieldMirror] = func(fc config.FieldConfig) fields.Source {
		return fields.Superpose(
			fields.NewMirror(fc.B0, fc.Length),
			fields.NewUniform(vec(fc.E), vec(fc.H)),
		)
	}
	r.fields[config.FieldWave] = func(fc config.FieldConfig) fields.Source {
		return fields.Superpose(
			fields.NewPlaneWave(fc.Amplitude, fc.K, fc.Omega),
			fields.NewUniform(vec(fc.E), vec(fc.H)),
		)
	}

	return r
}

// Register adds or replaces a field kind.
func (r *Registry) Register(kind string, fn func(config.FieldConfig) fields.Source) {
	r.fields[kind] = fn
}

func (r *Registry) GetField(fc config.FieldConfig) (fields.Source, error) {
	fn, ok := r.fields[fc.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown field kind: %s", fc.Kind)
	}
	return fn(fc), nil
}

func (r *Registry) GetBackend(name string) (compute.Backend, error) {
	return compute.ByName(name)
}

func (r *Registry) ListFields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListBackends() []string {
	return compute.Names()
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	return metrics.Defaults()
}

func vec(a [3]float64) particle.Vector3 {
	return particle.Vector3{X: a[0], Y: a[1], Z: a[2]}
}
