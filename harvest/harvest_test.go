package harvest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/config"
	"github.com/agrefed/harvester/harvest"
	"github.com/agrefed/harvester/interface/source"
	"github.com/agrefed/harvester/manifest"
	"github.com/agrefed/harvester/service"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// StubAdapter implements source.Downloader, writing one empty file per layer
type StubAdapter struct {
	Source common.SourceID
	Err    error
	// Partial artifacts returned alongside Err
	Partial int
	calls   int
}

func (a *StubAdapter) Name() common.SourceID { return a.Source }

func (a *StubAdapter) Download(ctx context.Context, req source.Request) ([]common.Artifact, error) {
	a.calls++
	var artifacts []common.Artifact
	n := len(req.Layers)
	if a.Err != nil {
		n = a.Partial
	}
	for i := 0; i < n; i++ {
		path := filepath.Join(req.OutDir, fmt.Sprintf("%s_%s.tif", a.Source, req.Layers[i]))
		if err := os.WriteFile(path, []byte{}, 0644); err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, common.Artifact{Path: path, Layer: req.Layers[i]})
	}
	return artifacts, a.Err
}

func stubEnv(adapters ...*StubAdapter) *harvest.Env {
	env := &harvest.Env{Adapters: map[common.SourceID]source.Downloader{}}
	for _, a := range adapters {
		env.Adapters[a.Source] = a
	}
	Expect(env.Open(context.Background())).To(Succeed())
	return env
}

var _ = Describe("Run", func() {
	var (
		ctx    context.Context
		cfg    *config.Configuration
		outDir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir, err := os.MkdirTemp("", "harvest")
		Expect(err).NotTo(HaveOccurred())
		outDir = dir
		cfg = config.Template()
		cfg.OutputPath = outDir
		cfg.SetBoundingBox(149.769345, -30.335861, 149.949173, -30.206271)
	})

	AfterEach(func() {
		os.RemoveAll(outDir)
	})

	Describe("a single DEM layer", func() {
		It("produces exactly one downloaded entry and one artifact", func() {
			cfg.SetSource(common.SourceDEM, []string{"DEM"}, nil)
			env := stubEnv(&StubAdapter{Source: common.SourceDEM})

			m, err := harvest.Run(ctx, env, cfg, harvest.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Entries()).To(HaveLen(1))
			Expect(m.Entries()[0].Source).To(Equal(common.SourceDEM))
			Expect(m.Entries()[0].Layer).To(Equal("DEM"))
			Expect(m.Entries()[0].Status).To(Equal(common.StatusDownloaded))
			Expect(m.Entries()[0].Path).To(BeAnExistingFile())
		})
	})

	Describe("error isolation", func() {
		It("records one failed entry and keeps the other sources", func() {
			cfg.SetSource(common.SourceSLGA, []string{"Clay"}, nil)
			cfg.SetSource(common.SourceSILO, []string{"max_temp"}, []string{"mean"})
			cfg.SetSource(common.SourceDEM, []string{"DEM"}, nil)
			cfg.SetSource(common.SourceLandscape, []string{"Slope"}, nil)
			cfg.SetSource(common.SourceRadiometric, []string{"radmap2019_grid_dose_terr_awags_rad_2019"}, nil)
			cfg.Dates = mustDates("2020", "2020")

			env := stubEnv(
				&StubAdapter{Source: common.SourceSLGA},
				&StubAdapter{Source: common.SourceSILO, Err: errors.New("wcs timeout")},
				&StubAdapter{Source: common.SourceDEM},
				&StubAdapter{Source: common.SourceLandscape},
				&StubAdapter{Source: common.SourceRadiometric},
			)

			m, err := harvest.Run(ctx, env, cfg, harvest.Options{})
			Expect(err).NotTo(HaveOccurred())

			var failed, downloaded int
			for _, e := range m.Entries() {
				switch e.Status {
				case common.StatusFailed:
					failed++
					Expect(e.Source).To(Equal(common.SourceSILO))
					Expect(e.Message).To(ContainSubstring("wcs timeout"))
				case common.StatusDownloaded:
					downloaded++
				}
			}
			Expect(failed).To(Equal(1))
			Expect(downloaded).To(Equal(4))
		})

		It("keeps partial artifacts under PartialKeep", func() {
			cfg.SetSource(common.SourceSLGA, []string{"Clay", "Sand"}, nil)
			env := stubEnv(&StubAdapter{Source: common.SourceSLGA, Err: errors.New("quota"), Partial: 1})

			m, err := harvest.Run(ctx, env, cfg, harvest.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Entries()).To(HaveLen(2))
			Expect(m.Entries()[0].Status).To(Equal(common.StatusDownloaded))
			Expect(m.Entries()[1].Status).To(Equal(common.StatusFailed))
		})

		It("discards partial artifacts under PartialDiscard", func() {
			cfg.SetSource(common.SourceSLGA, []string{"Clay", "Sand"}, nil)
			env := stubEnv(&StubAdapter{Source: common.SourceSLGA, Err: errors.New("quota"), Partial: 1})

			m, err := harvest.Run(ctx, env, cfg, harvest.Options{PartialPolicy: harvest.PartialDiscard})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Entries()).To(HaveLen(1))
			Expect(m.Entries()[0].Status).To(Equal(common.StatusFailed))
		})
	})

	Describe("source ordering", func() {
		It("harvests in the declared order regardless of map iteration", func() {
			cfg.SetSource(common.SourceDEA, []string{"ga_ls8c_ard_3"}, nil)
			cfg.SetSource(common.SourceSLGA, []string{"Clay"}, nil)
			cfg.SetSource(common.SourceDEM, []string{"DEM"}, nil)
			cfg.Dates = mustDates("2020", "2020")

			env := stubEnv(
				&StubAdapter{Source: common.SourceSLGA},
				&StubAdapter{Source: common.SourceDEM},
				&StubAdapter{Source: common.SourceDEA},
			)
			var order []common.SourceID
			m, err := harvest.Run(ctx, env, cfg, harvest.Options{
				OnSource: func(src common.SourceID) { order = append(order, src) },
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(order).To(Equal([]common.SourceID{common.SourceSLGA, common.SourceDEM, common.SourceDEA}))
			Expect(m.Entries()).To(HaveLen(3))
		})
	})

	Describe("manifest persistence", func() {
		It("writes the manifest next to the outputs and reloads it equal", func() {
			cfg.SetSource(common.SourceDEM, []string{"DEM"}, nil)
			env := stubEnv(&StubAdapter{Source: common.SourceDEM})

			m, err := harvest.Run(ctx, env, cfg, harvest.Options{LogName: "runlog"})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Path()).To(Equal(filepath.Join(outDir, "runlog.csv")))

			loaded, err := manifest.Load(m.Path())
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Entries()).To(HaveLen(len(m.Entries())))
		})
	})

	Describe("configuration failures", func() {
		It("fails fast without a bounding box or sample file", func() {
			cfg.BoundingBox = common.BoundingBox{}
			cfg.SetSource(common.SourceDEM, []string{"DEM"}, nil)
			env := stubEnv(&StubAdapter{Source: common.SourceDEM})

			_, err := harvest.Run(ctx, env, cfg, harvest.Options{})
			Expect(err).To(HaveOccurred())
			Expect(service.IsConfig(err)).To(BeTrue())
		})

		It("refuses to run on a closed environment", func() {
			cfg.SetSource(common.SourceDEM, []string{"DEM"}, nil)
			env := stubEnv(&StubAdapter{Source: common.SourceDEM})
			env.Close()

			_, err := harvest.Run(ctx, env, cfg, harvest.Options{})
			Expect(err).To(HaveOccurred())
		})
	})
})

func mustDates(min, max string) common.DateRange {
	dr, err := common.ParseDateRange(min, max)
	Expect(err).NotTo(HaveOccurred())
	return dr
}
