package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eringen/blogfront"
)

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "blogfront",
		Short:         "A blog front-end that renders posts from a Prismic repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(
		newServeCommand(&envFile),
		newBuildCommand(&envFile),
		newVersionCommand(),
	)
	return rootCmd
}

// newApp loads configuration and builds the App with its logger.
func newApp(envFile string) (*blogfront.App, error) {
	cfg, err := blogfront.LoadConfig(envFile)
	if err != nil {
		return nil, err
	}
	log, err := blogfront.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}
	return blogfront.New(cfg, blogfront.WithLogger(log)), nil
}

func newServeCommand(envFile *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Generate the site and serve it",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*envFile)
			if err != nil {
				return err
			}
			defer app.Close()
			if addr != "" {
				app.Config.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

func newBuildCommand(envFile *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the site and write a static snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*envFile)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := app.Build(ctx); err != nil {
				return err
			}
			return app.Export(out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "dist", "output directory")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blogfront %s\n", version)
		},
	}
}
