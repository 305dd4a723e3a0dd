// Command scenecast assembles narrated slideshow videos from project
// folders: a script document plus per-scene images and recordings.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ivlev/scenecast/internal/config"
	"github.com/ivlev/scenecast/internal/engine"
	"github.com/ivlev/scenecast/internal/system"
)

func main() {
	// Optional; projects without a .env run on defaults.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "scenecast",
		Short:         "Assemble narrated slideshow videos with Ken Burns motion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAssembleCmd(), newProjectsCmd())

	if err := root.Execute(); err != nil {
		log.Printf("[!] %v", err)
		os.Exit(1)
	}
}

func newAssembleCmd() *cobra.Command {
	var (
		bgmPath string
		noSubs  bool
		preview bool
	)

	cmd := &cobra.Command{
		Use:   "assemble <project>",
		Short: "Render a project into output/final_video.mp4",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			system.InitResourceLimits()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			report, err := engine.New(cfg).Assemble(args[0], engine.Options{
				BGMPath:          bgmPath,
				IncludeSubtitles: !noSubs,
				Preview:          preview,
			})
			if err != nil {
				return err
			}

			report.Print()
			return nil
		},
	}

	cmd.Flags().StringVar(&bgmPath, "bgm", "", "background music file (default: <project>/bgm.mp3 if present)")
	cmd.Flags().BoolVar(&noSubs, "no-subs", false, "skip the burned-in subtitle track")
	cmd.Flags().BoolVar(&preview, "preview", false, "fast low-quality render (15 fps, 2000k)")
	return cmd
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects that have a script document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			projects, err := cfg.ListProjects()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Printf("No projects with a script.json under %s\n", cfg.ProjectsBase)
				return nil
			}
			for _, p := range projects {
				fmt.Println(p)
			}
			return nil
		},
	}
}
