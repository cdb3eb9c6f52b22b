package particle_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/LyesMestiri/atom/internal/particle"
)

var _ = Describe("Boris push", func() {
	Describe("time symmetry", func() {
		var (
			p  particle.Particle
			fd particle.Field
		)

		BeforeEach(func() {
			p = particle.New(0.2, -0.4, 1.0, 0.3, -0.2, 0.5, 1, -1.5)
			fd = particle.Field{
				E: particle.Vector3{X: 0.1, Y: 0.2, Z: -0.3},
				H: particle.Vector3{X: 0.5, Y: -1.0, Z: 2.0},
			}
		})

		It("restores the momentum after a forward and a reversed step", func() {
			p0 := p.Momentum()
			const tau = 1e-3

			p.Move(fd, tau)
			p.Commit()
			Expect(p.Momentum().Sub(p0).Norm()).To(BeNumerically(">", 1e-6))

			p.Move(fd, -tau)
			Expect(p.Momentum().Sub(p0).Norm()).To(BeNumerically("<", 1e-12))
		})

		It("returns close to the start position", func() {
			x0 := p.Position()
			const tau = 1e-3

			p.Move(fd, tau)
			p.Commit()
			p.Move(fd, -tau)

			Expect(p.NextPosition().Sub(x0).Norm()).To(BeNumerically("<", 10*tau*tau))
		})

		It("is reversible over many steps", func() {
			p0, x0 := p.Momentum(), p.Position()
			const tau, steps = 1e-2, 500

			for i := 0; i < steps; i++ {
				p.Move(fd, tau)
				p.Commit()
			}
			for i := 0; i < steps; i++ {
				p.Move(fd, -tau)
				p.Commit()
			}

			Expect(p.Momentum().Sub(p0).Norm()).To(BeNumerically("<", 1e-9))
			Expect(p.Position().Sub(x0).Norm()).To(BeNumerically("<", 10*tau))
		})
	})

	Describe("gyration in a uniform magnetic field", func() {
		const (
			qm    = 1.0
			b     = 1.0
			steps = 4000
		)

		var (
			p      particle.Particle
			fd     particle.Field
			tau    float64
			radius float64
			track  []particle.Vector3
		)

		BeforeEach(func() {
			p = particle.New(0, 0, 0, 1, 0, 0, 1, qm)
			fd = particle.Field{H: particle.Vector3{Z: b}}
			gamma := p.Gamma()
			period := 2 * math.Pi * gamma / (qm * b)
			tau = period / steps
			radius = p.Momentum().Norm() / (qm * b)

			track = make([]particle.Vector3, 0, steps+1)
			track = append(track, p.Position())
			for i := 0; i < steps; i++ {
				p.Move(fd, tau)
				p.Commit()
				track = append(track, p.Position())
			}
		})

		It("keeps the Lorentz factor constant", func() {
			Expect(p.Gamma()).To(BeNumerically("~", math.Sqrt2, 1e-12))
		})

		It("stays in the x-y plane", func() {
			for _, x := range track {
				Expect(x.Z).To(Equal(0.0))
			}
		})

		It("traces a circle of radius gamma*v/(qm*B)", func() {
			var c particle.Vector3
			for _, x := range track[:steps] {
				c = c.Add(x)
			}
			c = c.Mult(1.0 / steps)

			for _, x := range track {
				Expect(x.Sub(c).Norm()).To(BeNumerically("~", radius, 1e-3))
			}
		})

		It("closes the orbit after one period", func() {
			Expect(track[steps].Sub(track[0]).Norm()).To(BeNumerically("<", 1e-4))
		})

		It("rotates in the sense given by the charge sign", func() {
			// positive charge, B along +z: the first step bends towards -y
			Expect(track[1].Y).To(BeNumerically("<", 0))
		})
	})

	Describe("copy assignment", func() {
		It("copies every field and pushes identically", func() {
			src := particle.New(1, 2, 3, -0.1, 0.4, 0.9, 1836, 1.0/1836).WithSort(particle.Proton)
			src.SetNextPosition(particle.Vector3{X: -1, Y: -2, Z: -3})

			var dst particle.Particle
			dst.Assign(&src)

			Expect(dst.Position()).To(Equal(src.Position()))
			Expect(dst.NextPosition()).To(Equal(src.NextPosition()))
			Expect(dst.Momentum()).To(Equal(src.Momentum()))
			Expect(dst.M).To(Equal(src.M))
			Expect(dst.QM).To(Equal(src.QM))
			Expect(dst.Sort).To(Equal(src.Sort))

			fd := particle.Field{E: particle.Vector3{Y: 0.5}, H: particle.Vector3{X: 3}}
			src.Move(fd, 0.2)
			dst.Move(fd, 0.2)
			Expect(dst).To(Equal(src))
		})

		It("leaves the source untouched when the copy moves", func() {
			src := particle.New(0, 0, 0, 1, 1, 1, 1, -1)
			dst := src.Clone()
			dst.Move(particle.Field{H: particle.Vector3{Z: 1}}, 0.5)
			dst.Commit()

			Expect(src.Momentum()).To(Equal(particle.Vector3{X: 1, Y: 1, Z: 1}))
			Expect(src.Position()).To(Equal(particle.Vector3{}))
		})
	})

	DescribeTable("large inputs stay finite",
		func(p0, h, e particle.Vector3) {
			p := particle.New(0, 0, 0, p0.X, p0.Y, p0.Z, 1, -1)
			p.Move(particle.Field{E: e, H: h}, 0.1)
			Expect(p.IsFinite()).To(BeTrue())
			Expect(p.Velocity().Norm()).To(BeNumerically("<=", 1+1e-12))
		},
		Entry("huge momentum", particle.Vector3{X: 1e12}, particle.Vector3{Z: 1}, particle.Vector3{}),
		Entry("huge magnetic field", particle.Vector3{Y: 1}, particle.Vector3{X: 1e9, Z: -1e9}, particle.Vector3{}),
		Entry("huge electric field", particle.Vector3{}, particle.Vector3{}, particle.Vector3{Z: 1e10}),
	)
})
