package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/agrefed/harvester/catalog"
	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/config"
	"github.com/agrefed/harvester/harvest"
	"github.com/agrefed/harvester/remoteimage"
	"github.com/agrefed/harvester/service/log"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagLogName string
	flagPreview bool
	flagPick    int
	flagDiscard bool
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "harvester",
		Short:         "Harvest geospatial layers from national data providers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; explicit environment always wins
			_ = godotenv.Load()
			logger, err := newLogger(flagVerbose)
			if err != nil {
				return err
			}
			log.Init(logger)
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "Run a harvest from a settings file (or the built-in template)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHarvest,
	}
	runCmd.Flags().StringVar(&flagLogName, "log-name", "manifest", "base name of the run manifest")
	runCmd.Flags().BoolVar(&flagPreview, "preview", false, "render a thumbnail grid after the run")
	runCmd.Flags().IntVar(&flagPick, "pick", 1, "1-indexed choice when several settings files share the name")
	runCmd.Flags().BoolVar(&flagDiscard, "discard-partial", false, "drop artifacts of partially failed sources from the manifest")

	validateCmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "Check a settings file and print advisory warnings",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runValidate,
	}
	validateCmd.Flags().IntVar(&flagPick, "pick", 1, "1-indexed choice when several settings files share the name")

	layersCmd := &cobra.Command{
		Use:   "layers <source>",
		Short: "List the known layers of a source",
		Args:  cobra.ExactArgs(1),
		RunE:  runLayers,
	}

	root.AddCommand(runCmd, validateCmd, layersCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

func loadConfig(args []string) (*config.Configuration, error) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	return config.Load(name, flagPick)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	var engine remoteimage.Engine
	if cfg.RemoteImage != nil {
		endpoint := os.Getenv("REMOTE_IMAGE_ENDPOINT")
		if endpoint == "" {
			return fmt.Errorf("RemoteImage is configured but REMOTE_IMAGE_ENDPOINT is not set")
		}
		engine = remoteimage.NewRESTEngine(endpoint, os.Getenv("REMOTE_IMAGE_TOKEN"))
	}

	env := harvest.NewEnv(engine)
	if err := env.Open(ctx); err != nil {
		return err
	}
	defer env.Close()

	bar := progressbar.NewOptions(len(cfg.Sources),
		progressbar.OptionSetDescription("harvesting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	opts := harvest.Options{
		LogName: flagLogName,
		Preview: flagPreview,
		OnSource: func(src common.SourceID) {
			bar.Describe(string(src))
			bar.Add(1)
		},
	}
	if flagDiscard {
		opts.PartialPolicy = harvest.PartialDiscard
	}

	m, err := harvest.Run(ctx, env, cfg, opts)
	if err != nil {
		return err
	}
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	var downloaded, failed int
	for _, e := range m.Entries() {
		switch e.Status {
		case common.StatusFailed:
			failed++
		default:
			downloaded++
		}
	}
	fmt.Printf("%d artifacts downloaded, %d failed, manifest at %s\n", downloaded, failed, m.Path())
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Println("warning:", w.String())
	}
	fmt.Printf("configuration ok, %d warnings\n", len(warnings))
	return nil
}

func runLayers(cmd *cobra.Command, args []string) error {
	src := common.SourceID(args[0])
	reg, ok := catalog.Lookup(src)
	if !ok {
		return fmt.Errorf("no catalog for source %q", args[0])
	}
	fmt.Printf("%s: %s (native %gs resolution)\n", reg.Title, reg.Description, reg.ResolutionArcsec)

	names := make([]string, 0, len(reg.Layers))
	for name := range reg.Layers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-40s %s\n", name, reg.Layers[name])
	}
	return nil
}
