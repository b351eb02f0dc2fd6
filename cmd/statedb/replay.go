package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/metrics"
	"github.com/NethermindEth/statedb/storage"
	"github.com/NethermindEth/statedb/utils"
	"github.com/NethermindEth/statedb/verify"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	dirF     = "dir"
	metricsF = "metrics"
	workersF = "workers"

	diffFileExt = ".yaml"
)

type diffFile struct {
	block core.BlockNumber
	path  string
}

// diffFiles lists the <block>.yaml files of dir in block order.
func diffFiles(dir string) ([]diffFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []diffFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != diffFileExt {
			continue
		}
		block, err := strconv.ParseUint(strings.TrimSuffix(name, diffFileExt), 10, 32)
		if err != nil {
			continue
		}
		files = append(files, diffFile{block: core.BlockNumber(block), path: filepath.Join(dir, name)})
	}
	slices.SortFunc(files, func(a, b diffFile) int {
		return cmp.Compare(a.block, b.block)
	})
	return files, nil
}

// serveMetrics serves handler on addr until the returned shutdown function is called.
func serveMetrics(addr string, handler http.Handler) (func(context.Context) error, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		_ = srv.Serve(listener)
	}()
	return srv.Shutdown, nil
}

func (a *app) replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Append every <block>.yaml state diff of a directory",
		Long:  `Appends the state diffs of a directory in block order, starting at the state marker. Files below the marker are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			dir, err := cmd.Flags().GetString(dirF)
			if err != nil {
				return err
			}
			metricsAddr, err := cmd.Flags().GetString(metricsF)
			if err != nil {
				return err
			}

			files, err := diffFiles(dir)
			if err != nil {
				return err
			}

			var opts []storage.Option
			if metricsAddr != "" {
				registry := metrics.PrometheusRegistry()
				factory := metrics.PrometheusFactory(registry)
				opts = append(opts,
					storage.WithMetrics(metrics.NewStorage(factory)),
					storage.WithDBListener(metrics.NewDBListener(factory)),
				)
				shutdown, serveErr := serveMetrics(metricsAddr, metrics.PrometheusHandler(registry))
				if serveErr != nil {
					return serveErr
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					err = utils.RunAndWrapOnError(func() error { return shutdown(ctx) }, err)
				}()
				a.log.Infow("Serving metrics", "addr", metricsAddr)
			}

			s, err := a.openStorage(opts...)
			if err != nil {
				return err
			}
			defer func() { err = utils.RunAndWrapOnError(s.Close, err) }()

			var next core.BlockNumber
			if err = s.View(func(txn *storage.ReadTxn) error {
				next, err = txn.StateMarker()
				return err
			}); err != nil {
				return err
			}

			appended := 0
			for _, file := range files {
				if err = cmd.Context().Err(); err != nil {
					return err
				}
				if file.block < next {
					continue
				}
				if file.block != next {
					return fmt.Errorf("missing state diff file for block %d", next)
				}

				diff, err := readDiffFile(file.path)
				if err != nil {
					return err
				}
				if err = s.Update(func(txn *storage.WriteTxn) error {
					return txn.AppendStateDiff(file.block, diff)
				}); err != nil {
					return fmt.Errorf("append %s: %w", file.path, err)
				}
				next = next.Next()
				appended++
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "appended %d blocks, state marker at %d\n", appended, next)
			return err
		},
	}
	cmd.Flags().String(dirF, "", "Directory holding <block>.yaml state diffs.")
	cmd.Flags().String(metricsF, "", "Serve Prometheus metrics on this address while replaying, for example :9090.")
	_ = cmd.MarkFlagRequired(dirF)
	return cmd
}

var errIssuesFound = errors.New("storage is inconsistent")

func (a *app) verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Cross-check the stored state diffs against the state tables",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			opts := verify.DefaultOptions()
			workers, err := cmd.Flags().GetInt(workersF)
			if err != nil {
				return err
			}
			if workers > 0 {
				opts.Workers = workers
			}

			s, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { err = utils.RunAndWrapOnError(s.Close, err) }()

			report, err := verify.Run(cmd.Context(), s, a.log, opts)
			if err != nil {
				return err
			}
			if report.OK() {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d blocks verified, no issues found\n", report.StateMarker)
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Block", "Issue"})
			for _, issue := range report.Issues {
				table.Append([]string{issue.Block.String(), issue.Msg})
			}
			table.SetFooter([]string{"Total", strconv.Itoa(len(report.Issues))})
			table.Render()
			return fmt.Errorf("%w: %d issues", errIssuesFound, len(report.Issues))
		},
	}
	cmd.Flags().Int(workersF, 0, "Number of blocks checked concurrently. 0 uses GOMAXPROCS.")
	return cmd
}
