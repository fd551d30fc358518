package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/preston-bernstein/archery-score-client/internal/config"
	"github.com/preston-bernstein/archery-score-client/internal/logging"
	"github.com/preston-bernstein/archery-score-client/internal/server"
)

const (
	appName    = "archery-score-client"
	appVersion = "dev"
)

func main() {
	if os.Getenv("SKIP_SERVER_RUN") == "1" {
		return
	}
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to a YAML config file; environment variables override it",
		EnvVars: []string{"CONFIG_FILE"},
	}
	return &cli.App{
		Name:    appName,
		Usage:   "scoring BFF for archery competitions",
		Version: appVersion,
		Writer:  out,
		Flags:   []cli.Flag{configFlag},
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:  "check-config",
				Usage: "load and validate the configuration, then exit",
				Action: func(c *cli.Context) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "config ok: port=%s backend=%s drafts=%s\n", cfg.Port, cfg.Backend.BaseURL, cfg.Drafts.Folder)
					return nil
				},
			},
		},
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewLogger(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: appName,
		Version: appVersion,
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	srv.Run(ctx, stop)
	return nil
}
