package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

const buildImage = "gophertribe/gobuild:1.25-bookworm"

// boards maps supported single board computers to their GOOS/GOARCH.
var boards = map[string][2]string{
	"nanopi": {"linux", "arm"},
	"rpi":    {"linux", "arm64"},
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the sensorhub binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			goos, _ := cmd.Flags().GetString("os")
			arch, _ := cmd.Flags().GetString("arch")
			version, _ := cmd.Flags().GetString("version")
			board, _ := cmd.Flags().GetString("board")
			if board != "" {
				target, ok := boards[board]
				if !ok {
					return fmt.Errorf("unknown board %q", board)
				}
				goos, arch = target[0], target[1]
			}
			out := fmt.Sprintf("dist/sensorhub-%s-%s", goos, arch)

			// hid and periph need cgo, so foreign targets are built in docker
			if goos == runtime.GOOS && arch == runtime.GOARCH {
				slog.Info("building", "target", out, "version", version)
				return build.GoBuild(out, "./cmd/sensorhub", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					EnableCgo:     true,
					Arch:          arch,
					OS:            goos,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			slog.Info("building in docker", "os", goos, "arch", arch, "image", buildImage)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", runtime.GOOS, runtime.GOARCH), []string{"build", "--version", version, "--os", goos, "--arch", arch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   buildImage,
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the binary")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("board", "", "build for a supported board (nanopi, rpi)")

	return cmd
}
