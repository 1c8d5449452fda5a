package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/locator"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/store"
	"github.com/shandysiswandi/orgjoin/internal/orgjoin/usecase"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgerror"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkglog"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkguid"
)

type convertOptions struct {
	orgs      string
	scan      string
	latestDir string
	output    string
	outDir    string
	format    string
	verbose   bool
}

func newConvertCmd() *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Add the OrgName column to one scan report and write the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelInfo
			}
			slog.SetDefault(pkglog.NewLogger(cmd.ErrOrStderr(), level))

			return runConvert(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.orgs, "orgs", "", "Org mapping CSV with $distinct_id and $name columns")
	cmd.Flags().StringVar(&opts.scan, "scan", "", "Scan report CSV with an org_id column")
	cmd.Flags().StringVar(&opts.latestDir, "latest-dir", "", "Use the newest "+locator.DefaultScanPattern+" in this directory instead of --scan")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output base name (default "+usecase.FallbackOutputName+")")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", ".", "Directory the result is written to")
	cmd.Flags().StringVar(&opts.format, "format", string(entity.FormatCSV), "Output format: csv or xlsx")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Log conversion details to stderr")

	cmd.MarkFlagsMutuallyExclusive("scan", "latest-dir")

	return cmd
}

func runConvert(ctx context.Context, opts convertOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format := entity.Format(strings.ToLower(strings.TrimSpace(opts.format)))
	if format != entity.FormatCSV && format != entity.FormatXLSX {
		return fmt.Errorf("invalid --format %q, use csv or xlsx", opts.format)
	}

	in := usecase.ConvertInput{OutputName: opts.output, Format: format}

	if opts.orgs != "" {
		f, err := os.Open(opts.orgs)
		if err != nil {
			return err
		}
		defer f.Close()
		in.Orgs = f
	}

	switch {
	case opts.latestDir != "":
		in.UseLatest = true
		in.DownloadDir = opts.latestDir
	case opts.scan != "":
		f, err := os.Open(opts.scan)
		if err != nil {
			return err
		}
		defer f.Close()
		in.Scan = f
		in.ScanName = opts.scan
	}

	snow, err := pkguid.NewSnowflake(-1)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Store:        store.NewInMemoryStore(1),
		Finder:       locator.Latest,
		ConversionID: snow,
		Options: usecase.Options{
			ScanPattern: locator.DefaultScanPattern,
			DownloadDir: locator.DefaultDownloadDir(),
		},
	})

	result, err := uc.Convert(ctx, in)
	if err != nil {
		return userError(err)
	}

	path := filepath.Join(opts.outDir, result.Filename)
	if err := os.WriteFile(path, result.Content, 0o644); err != nil {
		return err
	}

	if err := uc.MarkDelivered(ctx, result.ConversionID); err != nil {
		return err
	}

	fmt.Fprintln(stdout, result.Message)
	fmt.Fprintf(stdout, "wrote %s (%d rows, %d Unknown)\n", path, result.Rows, result.Unresolved)
	return nil
}

// userError keeps the caller-facing message of a conversion failure and its cause.
func userError(err error) error {
	var perr *pkgerror.Error
	if !errors.As(err, &perr) || perr.Type() == pkgerror.TypeServer {
		return err
	}
	if cause := perr.Unwrap(); cause != nil {
		return fmt.Errorf("%s (%w)", perr.Msg(), cause)
	}
	return errors.New(perr.Msg())
}
