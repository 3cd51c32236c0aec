package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tankermike11/staycation-journal/pkg/compress"
	"github.com/tankermike11/staycation-journal/pkg/uploader"
)

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("journal")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "journal-upload --day <id> <photo>...",
		Short:         "Upload photos into a journal day, one at a time",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := uploadOptions{
				APIURL:   v.GetString("api-url"),
				Token:    v.GetString("token"),
				DayID:    v.GetString("day"),
				MaxBytes: v.GetInt("max-bytes"),
				Paths:    args,
			}
			if err := opts.validate(); err != nil {
				return err
			}
			client := uploader.NewClient(opts.APIURL, opts.Token, nil)
			return runUpload(cmd.Context(), cmd.OutOrStdout(), client, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("api-url", "http://localhost:8080/api/v1", "journal API base URL including the prefix (env JOURNAL_API_URL)")
	flags.String("token", "", "bearer access token (env JOURNAL_TOKEN)")
	flags.String("day", "", "target day id (env JOURNAL_DAY)")
	flags.Int("max-bytes", compress.DefaultThresholdBytes, "compress photos larger than this many bytes (env JOURNAL_MAX_BYTES)")
	_ = v.BindPFlags(flags)

	return cmd
}

type uploadOptions struct {
	APIURL   string
	Token    string
	DayID    string
	MaxBytes int
	Paths    []string
}

func (o uploadOptions) validate() error {
	switch {
	case strings.TrimSpace(o.APIURL) == "":
		return errors.New("--api-url is required")
	case strings.TrimSpace(o.Token) == "":
		return errors.New("--token is required")
	case strings.TrimSpace(o.DayID) == "":
		return errors.New("--day is required")
	}
	return nil
}

type photoUploader interface {
	UploadDayPhoto(ctx context.Context, dayID string, f compress.File) (*uploader.Result, error)
}

// runUpload drives the batch and prints one line per step. It fails when any photo failed.
func runUpload(ctx context.Context, out io.Writer, client photoUploader, opts uploadOptions) error {
	batch := &uploader.Batch{
		DayID:      opts.DayID,
		Paths:      opts.Paths,
		Client:     client,
		Compressor: compress.New(compress.Options{ThresholdBytes: opts.MaxBytes}),
	}

	var tally uploader.Tally
	for _, p := range batch.Steps(ctx) {
		fmt.Fprintln(out, progressLine(p))
		tally.Observe(p)
	}

	fmt.Fprintln(out, uploader.Summary(tally))
	if tally.TooLarge() {
		fmt.Fprintln(out, uploader.TooLargeMessage)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if tally.Failed > 0 {
		return fmt.Errorf("%d of %d photo(s) failed", tally.Failed, len(opts.Paths))
	}
	return nil
}

func progressLine(p uploader.Progress) string {
	line := fmt.Sprintf("[%d/%d] %s %s", p.Done, p.Total, p.Stage, p.Name)
	if p.Err != nil {
		line += ": " + p.Err.Error()
	}
	return line
}
