package commands

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	xdraw "golang.org/x/image/draw"

	"github.com/veilock/veilock/backdrop"
	"github.com/veilock/veilock/internal/capture"
	"github.com/veilock/veilock/internal/config"
	"github.com/veilock/veilock/internal/logger"
)

var (
	snapOut       string
	snapRadius    int
	snapWorkers   int
	snapDownscale int
)

var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Capture the desktop and write a blurred PNG",
	Long: `Capture one frame of the desktop, blur it, and encode the result as PNG.

The blur radius defaults to 32 times the output scale factor and must be a
power of two.`,
	Example: `  # Blurred screenshot to a file
  veilock snap -o backdrop.png

  # Stronger blur, piped to stdout
  veilock snap --radius 64 -o - > backdrop.png

  # Single-threaded (debugging)
  veilock snap --workers 1 -o backdrop.png`,
	RunE: runSnap,
}

func init() {
	rootCmd.AddCommand(snapCmd)

	snapCmd.Flags().StringVarP(&snapOut, "out", "o", "backdrop.png", "output file ('-' for stdout)")
	snapCmd.Flags().IntVar(&snapRadius, "radius", 0, "blur radius (power of two; default 32 x scale)")
	snapCmd.Flags().IntVar(&snapWorkers, "workers", 0, "blur workers (default: one per CPU)")
	snapCmd.Flags().IntVar(&snapDownscale, "downscale", 1, "integer downscale factor for the output")
}

func runSnap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	router, err := buildRouter(cfg.Backend)
	if err != nil {
		return err
	}
	defer router.Close()

	source, err := router.Pick()
	if err != nil {
		return err
	}

	output := capture.Output{
		Name:   cfg.Output.Name,
		X:      cfg.Output.X,
		Y:      cfg.Output.Y,
		Width:  cfg.Output.Width,
		Height: cfg.Output.Height,
		Scale:  cfg.Output.Scale,
	}

	opts := backdrop.Options{
		Radius:  cfg.Blur.Radius,
		Workers: cfg.Blur.Workers,
	}
	if snapRadius > 0 {
		opts.Radius = snapRadius
	}
	if snapWorkers > 0 {
		opts.Workers = snapWorkers
	}

	surf, err := backdrop.Load(source, output, opts)
	if err != nil {
		return err
	}

	img := surf.RGBA()
	if snapDownscale > 1 {
		img = downscale(img, snapDownscale)
	}

	var w io.Writer = os.Stdout
	if snapOut != "-" {
		f, err := os.Create(snapOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", snapOut, err)
		}
		defer f.Close()
		w = f
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}

	logger.WithComponent("snap").Info().
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Str("out", snapOut).
		Msg("Backdrop written")
	return nil
}

// downscale shrinks by an integer factor. Nearest-neighbor is enough
// here; the source is already heavily blurred.
func downscale(img *image.RGBA, factor int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0,
		img.Bounds().Dx()/factor, img.Bounds().Dy()/factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// loadConfig wires the config manager, flag overrides, and the logger.
func loadConfig() (config.Config, error) {
	mgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to initialize config manager: %w", err)
	}

	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			mgr.SetLogLevel(level)
		}
	}
	if viper.IsSet("backend") {
		if backend := viper.GetString("backend"); backend != "" {
			mgr.SetBackend(backend)
		}
	}

	cfg := mgr.Get()
	logger.Init(cfg.LogLevel, true)
	return cfg, nil
}
