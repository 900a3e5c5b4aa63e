package fractal_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dragonsim/internal/compute"
	"github.com/san-kum/dragonsim/internal/config"
	"github.com/san-kum/dragonsim/internal/engine"
	"github.com/san-kum/dragonsim/internal/fractal"
	"github.com/san-kum/dragonsim/internal/kernel"
	"github.com/san-kum/dragonsim/internal/metrics"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Width, cfg.Height = 64, 64
	cfg.Steps = 4
	cfg.LineLength = 4
	cfg.AreaLength = 4
	cfg.Margin = 16
	cfg.Iterations = 3
	cfg.FrameDelay = 0
	cfg.RoundDelay = 0
	cfg.Backend = "serial"
	return cfg
}

type recorder struct {
	frames []fractal.Frame
	active []int
}

func (r *recorder) OnFrame(f fractal.Frame) {
	r.frames = append(r.frames, f)
	r.active = append(r.active, f.Buffer.ActiveCount())
}

var _ = Describe("Runner", func() {
	var (
		cfg    *config.Config
		runner *fractal.Runner
		rec    *recorder
	)

	BeforeEach(func() {
		cfg = testConfig()
		rec = &recorder{}
	})

	JustBeforeEach(func() {
		var err error
		runner, err = fractal.NewRunner(cfg, engine.New(compute.NewSerialBackend()))
		Expect(err).NotTo(HaveOccurred())
		runner.AddObserver(rec)
	})

	It("seeds the source buffer", func() {
		Expect(runner.Current().ActiveCount()).To(Equal(8))
		Expect(runner.Rounds()).To(Equal(0))
		Expect(runner.State().End).To(Equal(kernel.Vec2{X: 4}))
	})

	It("runs the configured number of rounds", func() {
		res, err := runner.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Rounds).To(HaveLen(3))
		Expect(runner.Done()).To(BeTrue())

		_, err = runner.Round(context.Background())
		Expect(err).To(HaveOccurred())
	})

	It("emits every sub-frame with one final frame per round", func() {
		_, err := runner.Round(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(rec.frames).To(HaveLen(cfg.Steps))
		for i, f := range rec.frames {
			Expect(f.Round).To(Equal(1))
			Expect(f.Step).To(Equal(i + 1))
			Expect(f.Final).To(Equal(i == cfg.Steps-1))
			Expect(f.Image).NotTo(BeNil())
			Expect(f.Image.Bounds().Dx()).To(Equal(cfg.Width))
		}
		last := rec.frames[len(rec.frames)-1]
		Expect(last.Angle).To(Equal(cfg.Angle))
		Expect(rec.frames[0].Angle).To(BeNumerically("~", cfg.Angle/2, 1e-12))
	})

	It("commits the final frame", func() {
		stat, err := runner.Round(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(stat.Round).To(Equal(1))
		Expect(stat.Active).To(Equal(rec.active[len(rec.active)-1]))
		Expect(stat.Active).To(BeNumerically(">=", 8))
		Expect(runner.Current().ActiveCount()).To(Equal(stat.Active))
		Expect(kernel.Vec2{X: stat.PivotX, Y: stat.PivotY}.Approx(kernel.Vec2{X: 4, Y: -4}, 1e-9)).To(BeTrue())
	})

	It("writes sub-frames into the buffer it commits", func() {
		before := runner.Current().Clone()
		_, err := runner.Round(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(runner.Current().Equal(before)).To(BeFalse())
		Expect(rec.frames[0].Buffer).To(BeIdenticalTo(runner.Current()))
	})

	It("stops on cancellation without committing", func() {
		before := runner.Current().Clone()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := runner.Round(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(runner.Rounds()).To(Equal(0))
		Expect(runner.Current().Equal(before)).To(BeTrue())
	})

	It("stops when asked", func() {
		runner.Stop()
		_, err := runner.Run(context.Background())
		Expect(err).To(MatchError(fractal.ErrStopped))
		Expect(runner.Rounds()).To(Equal(0))
	})

	It("reports metrics", func() {
		runner.AddMetric(metrics.NewActiveCount())
		res, err := runner.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics).To(HaveKeyWithValue("active", float64(res.Last().Active)))
	})

	It("reseeds", func() {
		_, err := runner.Round(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(runner.Seed()).To(Succeed())
		Expect(runner.Rounds()).To(Equal(0))
		Expect(runner.Current().ActiveCount()).To(Equal(8))
		Expect(runner.State().End).To(Equal(kernel.Vec2{X: 4}))
		Expect(runner.Done()).To(BeFalse())
	})

	Context("with rendering disabled", func() {
		JustBeforeEach(func() {
			runner.SetRender(false)
		})

		It("passes buffers without images", func() {
			_, err := runner.Round(context.Background())
			Expect(err).NotTo(HaveOccurred())
			for _, f := range rec.frames {
				Expect(f.Image).To(BeNil())
				Expect(f.Buffer).NotTo(BeNil())
			}
		})
	})

	Context("with an angle step", func() {
		BeforeEach(func() {
			cfg.Angle = 7 * math.Pi / 4
			cfg.AngleStep = math.Pi / 4
		})

		It("advances and wraps the angle after each round", func() {
			_, err := runner.Round(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(runner.Angle()).To(BeNumerically("~", 0, 1e-12))

			_, err = runner.Round(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(runner.Angle()).To(BeNumerically("~", math.Pi/4, 1e-12))
		})
	})

	Context("with unbounded iterations", func() {
		BeforeEach(func() {
			cfg.Iterations = -1
		})

		It("never reports done", func() {
			for i := 0; i < 5; i++ {
				_, err := runner.Round(context.Background())
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(runner.Done()).To(BeFalse())
			Expect(runner.Rounds()).To(Equal(5))
		})
	})

	Context("once the fold outgrows the canvas", func() {
		BeforeEach(func() {
			cfg.Margin = 62
			cfg.Iterations = 1
		})

		It("zooms out and rescales the pivot", func() {
			res, err := runner.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Rounds[0].Scale).To(BeNumerically(">", float64(cfg.Width)))
			Expect(runner.State().End.Len()).To(BeNumerically("<", 4*math.Sqrt2))
		})

		It("leads the angle by one step and trails the scale", func() {
			_, err := runner.Round(context.Background())
			Expect(err).NotTo(HaveOccurred())

			width := float64(cfg.Width)
			last := rec.frames[len(rec.frames)-1]
			Expect(last.Scale).To(BeNumerically(">", width))
			scaleStep := (last.Scale - width) / float64(cfg.Steps)

			for i, f := range rec.frames[:len(rec.frames)-1] {
				k := float64(i + 1)
				Expect(f.Angle).To(BeNumerically("~", cfg.Angle*(k+1)/float64(cfg.Steps), 1e-12))
				Expect(f.Scale).To(BeNumerically("~", width+scaleStep*k, 1e-9))
			}
			Expect(rec.frames[len(rec.frames)-2].Angle).To(BeNumerically("~", cfg.Angle, 1e-12))
		})
	})

	It("rejects an invalid config", func() {
		bad := testConfig()
		bad.Steps = 0
		_, err := fractal.NewRunner(bad, nil)
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})
})
