package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veilock/veilock/internal/capture"
	"github.com/veilock/veilock/internal/capture/portal"
	"github.com/veilock/veilock/internal/capture/x11"
	"github.com/veilock/veilock/internal/logger"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available capture backends",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	router, err := buildRouter(cfg.Backend)
	if err != nil {
		return err
	}
	defer router.Close()

	for _, src := range router.Sources() {
		status := "unavailable"
		if src.IsAvailable() {
			status = "available"
		}
		fmt.Printf("%-10s %s\n", src.Name(), status)
	}
	return nil
}

// buildRouter constructs the capture router, X11 first since it answers
// without a portal round-trip. An empty backend keeps both; naming one
// restricts the router to it.
func buildRouter(backend string) (*capture.Router, error) {
	log := logger.WithComponent("sources")

	var sources []capture.FrameSource

	if backend == "" || backend == "x11" {
		if src, err := x11.New(); err != nil {
			log.Debug().Err(err).Msg("X11 source not available")
		} else {
			sources = append(sources, src)
		}
	}
	if backend == "" || backend == "portal" {
		if src, err := portal.New(); err != nil {
			log.Debug().Err(err).Msg("Portal source not available")
		} else {
			sources = append(sources, src)
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no capture backends could be initialized")
	}
	return capture.NewRouter(sources...), nil
}
