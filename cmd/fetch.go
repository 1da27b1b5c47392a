package main

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hec-growth-lab/tfp-cli/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a source table into the local cache",
	Long:  "Downloads a StatCan or BEA source table over HTTP or FTP into the cache directory. ZIP archives are extracted in place.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.Fetch.CacheDir, 0o755); err != nil {
			return eris.Wrap(err, "fetch: create cache dir")
		}

		rawURL := args[0]
		u, err := url.Parse(rawURL)
		if err != nil {
			return eris.Wrapf(err, "fetch: parse url %s", rawURL)
		}
		dest := filepath.Join(cfg.Fetch.CacheDir, path.Base(u.Path))

		var n int64
		switch u.Scheme {
		case "http", "https":
			f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				UserAgent:  cfg.Fetch.UserAgent,
				Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
				MaxRetries: 3,
			})
			n, err = f.DownloadToFile(ctx, rawURL, dest)
		case "ftp":
			f := fetcher.NewFTPFetcher(fetcher.FTPOptions{
				Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			})
			n, err = f.DownloadToFile(ctx, rawURL, dest)
		default:
			return eris.Errorf("fetch: unsupported scheme %q", u.Scheme)
		}
		if err != nil {
			return err
		}
		zap.L().Info("fetch: downloaded", zap.String("url", rawURL), zap.Int64("bytes", n))

		if strings.EqualFold(filepath.Ext(dest), ".zip") {
			extracted, err := fetcher.ExtractZIP(dest, cfg.Fetch.CacheDir)
			if err != nil {
				return err
			}
			for _, p := range extracted {
				fmt.Println(p)
			}
			return nil
		}

		fmt.Println(dest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
