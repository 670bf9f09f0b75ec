package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/rlcompare/pkg/logger"
)

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "product-id", Usage: "Only this product"},
		&cli.StringFlag{Name: "vendor-id", Usage: "Only this vendor"},
		&cli.StringSliceFlag{Name: "pareto", Usage: "Pareto classes to keep (repeatable)"},
		&cli.StringSliceFlag{Name: "location", Usage: "Locations to keep (repeatable)"},
		&cli.StringSliceFlag{Name: "business-tag", Usage: "Business tags to keep (repeatable)"},
	}
}

func formatFlag(def string) cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "Output format: table, json or csv",
		Value: def,
	}
}

func main() {
	app := &cli.App{
		Name:  "rlcompare",
		Usage: "Compare replenishment logic outputs side by side",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			// stdout carries command output; logs go to stderr
			logger.UseJSON()
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "compare",
				Usage: "Print the per-product or per-vendor comparison table",
				Flags: append(filterFlags(),
					&cli.StringFlag{Name: "view", Usage: "product or vendor", Value: "product"},
					formatFlag("table"),
				),
				Action: runCompare,
			},
			{
				Name:  "export-unsafe",
				Usage: "Write rows classified Unsafe as CSV",
				Flags: append(filterFlags(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default stdout)"},
				),
				Action: runExportUnsafe,
			},
			{
				Name:  "series",
				Usage: "Print quantity per ship date and logic",
				Flags: append(filterFlags(),
					&cli.BoolFlag{Name: "redistribute", Usage: "Spread vendor quantities over their shipment weekdays"},
					formatFlag("table"),
				),
				Action: runSeries,
			},
			{
				Name:   "outcomes",
				Usage:  "Show which sources loaded and which were skipped",
				Flags:  []cli.Flag{formatFlag("table")},
				Action: runOutcomes,
			},
			{
				Name:  "fetch-s3",
				Usage: "Download extracts from an S3-compatible bucket into the data dir",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "endpoint", EnvVars: []string{"S3_ENDPOINT"}},
					&cli.StringFlag{Name: "access-key", EnvVars: []string{"S3_ACCESS_KEY"}},
					&cli.StringFlag{Name: "secret-key", EnvVars: []string{"S3_SECRET_KEY"}},
					&cli.StringFlag{Name: "bucket", EnvVars: []string{"S3_BUCKET"}},
					&cli.StringFlag{Name: "region", EnvVars: []string{"S3_REGION"}},
					&cli.BoolFlag{Name: "use-ssl", Value: true, EnvVars: []string{"S3_USE_SSL"}},
					&cli.StringFlag{Name: "prefix", Usage: "Object prefix to mirror", EnvVars: []string{"S3_PREFIX"}},
					&cli.StringFlag{Name: "key", Usage: "Fetch a single object (relative to prefix)"},
					&cli.StringFlag{Name: "dest", Usage: "Destination directory (default APP_DATA_DIR)"},
				},
				Action: runFetchS3,
			},
			{
				Name:  "fetch-drive",
				Usage: "Download extracts from a Google Drive folder into the data dir",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "credentials", Usage: "Service account JSON file", EnvVars: []string{"DRIVE_CREDENTIALS_FILE"}},
					&cli.StringFlag{Name: "folder-id", EnvVars: []string{"DRIVE_FOLDER_ID"}},
					&cli.StringFlag{Name: "path", Usage: "Folder path from My Drive root, instead of --folder-id"},
					&cli.StringFlag{Name: "dest", Usage: "Destination directory (default APP_DATA_DIR)"},
				},
				Action: runFetchDrive,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("rlcompare failed")
	}
}
