package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"aegis/internal/batch"
	"aegis/internal/report"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	var (
		file    string
		asJSON  bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Score one or more URLs",
		Example: `  aegis scan http://192.168.1.5:8080/login
  aegis scan -f urls.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if file != "" {
				fromFile, err := readURLs(file)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no urls given: pass them as arguments or with -f")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if workers < 1 {
				workers = a.Config.MaxConcurrency
			}

			var onDone func(batch.Result)
			var progress *mpb.Progress
			if len(urls) > 1 && !asJSON && term.IsTerminal(int(os.Stderr.Fd())) {
				progress, onDone = progressBar(os.Stderr, len(urls))
			}
			results := batch.NewPool(a.Engine, workers).Run(ctx, urls, onDone)
			if progress != nil {
				progress.Wait()
			}

			p := report.New(cmd.OutOrStdout(), asJSON)
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					if err := p.Failure(r.URL, r.Err); err != nil {
						return err
					}
					continue
				}
				if err := p.Verdict(r.Verdict); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d urls could not be scanned", failed, len(urls))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "File with one URL per line (# starts a comment)")
	f.BoolVar(&asJSON, "json", false, "Print one JSON object per URL")
	f.IntVarP(&workers, "workers", "w", 0, "Concurrent scans (default MAX_CONCURRENCY)")
	return cmd
}

func progressBar(w io.Writer, total int) (*mpb.Progress, func(batch.Result)) {
	p := mpb.New(mpb.WithOutput(w), mpb.WithWidth(48))
	bar := p.AddBar(int64(total),
		mpb.BarRemoveOnComplete(),
		mpb.PrependDecorators(
			decor.Name("scanning", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("[%d / %d]", decor.WCSyncWidth),
			decor.Percentage(decor.WCSyncSpace),
		),
	)
	return p, func(batch.Result) { bar.Increment() }
}

func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open url file: %w", err)
	}
	defer f.Close()
	return parseURLList(f)
}

func parseURLList(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
