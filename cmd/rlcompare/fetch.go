package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/rlcompare/internal/config"
	"github.com/andresuchdata/rlcompare/internal/drive"
	"github.com/andresuchdata/rlcompare/internal/source"
	"github.com/andresuchdata/rlcompare/internal/storage"
)

func destDir(c *cli.Context) string {
	if dest := c.String("dest"); dest != "" {
		return dest
	}
	return config.Load().App.DataDir
}

func runFetchS3(c *cli.Context) error {
	client, err := storage.NewMinioClient(config.StorageConfig{
		Endpoint:  c.String("endpoint"),
		AccessKey: c.String("access-key"),
		SecretKey: c.String("secret-key"),
		Bucket:    c.String("bucket"),
		Region:    c.String("region"),
		UseSSL:    c.Bool("use-ssl"),
	})
	if err != nil {
		return err
	}

	paths, err := storage.NewFetcher(client, destDir(c), source.Supported).Fetch(c.Context, c.String("prefix"), c.String("key"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(c.App.Writer, p)
	}
	return nil
}

func runFetchDrive(c *cli.Context) error {
	svc, err := drive.NewServiceFromFile(c.Context, c.String("credentials"))
	if err != nil {
		return err
	}

	folderID := c.String("folder-id")
	if path := c.String("path"); path != "" {
		folderID, err = svc.FindFolderByPath(c.Context, path)
		if err != nil {
			return err
		}
	}

	paths, err := drive.NewDownloader(svc).DownloadFolder(c.Context, drive.DownloadOptions{
		FolderID:    folderID,
		DownloadDir: destDir(c),
	})
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(c.App.Writer, p)
	}
	return nil
}
