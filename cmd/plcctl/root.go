package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/plc-assistant/backend/internal/gateway"
	"github.com/plc-assistant/backend/internal/loader"
	"github.com/plc-assistant/backend/internal/logging"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/store"
)

// --- Global Flags ---
type rootOptions struct {
	dir       string
	comments  []string
	programs  []string
	blocks    []string
	jsonOut   bool
	logLevel  string
	gateway   string
	host      string
	port      int
	transport string
	timeout   time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "plcctl",
		Short: "Query PLC ladder exports from the command line",
		Long: `plcctl loads device comments, ladder programs and function-block
metadata from disk and answers the same questions as the server:
where a device is used, what it is called, which coils signal faults,
and what value it currently holds.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.dir, "dir", "d", "", "directory of exported files (classified by name)")
	pf.StringSliceVar(&opts.comments, "comments", nil, "device comment files")
	pf.StringSliceVar(&opts.programs, "programs", nil, "ladder program files")
	pf.StringSliceVar(&opts.blocks, "blocks", nil, "function-block metadata files")
	pf.BoolVar(&opts.jsonOut, "json", false, "print results as JSON")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.gateway, "gateway", gateway.DefaultBaseURL, "gateway base URL")
	pf.StringVar(&opts.host, "host", "", "PLC host passed to the gateway")
	pf.IntVar(&opts.port, "port", 0, "PLC port passed to the gateway")
	pf.StringVar(&opts.transport, "transport", gateway.TransportJSON, "gateway body encoding (json, msgpack)")
	pf.DurationVar(&opts.timeout, "timeout", gateway.DefaultTimeout, "gateway request timeout")

	rootCmd.AddCommand(
		newAddressCmd(opts),
		newCommentCmd(opts),
		newBlocksCmd(opts),
		newRelatedCmd(opts),
		newDataTypeCmd(opts),
		newTraceCmd(opts),
		newSearchCmd(opts),
		newReasonCmd(opts),
		newFunctionBlockCmd(opts),
		newStatsCmd(opts),
		newReadCmd(opts),
		newReadBatchCmd(opts),
	)
	return rootCmd
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	return logging.NewWithWriter(w, o.logLevel, "text")
}

// loadStore imports --dir first, then any explicitly named files, which
// replace the collection of their kind.
func (o *rootOptions) loadStore(cmd *cobra.Command) (*store.PlcDataStore, error) {
	s := store.New()
	ld := loader.New(s, o.logger(cmd.ErrOrStderr()))
	ctx := cmd.Context()

	if o.dir != "" {
		if _, err := ld.ImportDirectory(ctx, o.dir); err != nil {
			return nil, err
		}
	}
	for _, set := range []struct {
		kind  models.ImportKind
		paths []string
	}{
		{models.ImportComments, o.comments},
		{models.ImportPrograms, o.programs},
		{models.ImportFunctionBlocks, o.blocks},
	} {
		if len(set.paths) == 0 {
			continue
		}
		if _, err := ld.Import(ctx, set.kind, set.paths); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (o *rootOptions) gatewayClient(cmd *cobra.Command) (*gateway.Client, error) {
	return gateway.New(gateway.Config{
		BaseURL:     o.gateway,
		DefaultHost: o.host,
		DefaultPort: o.port,
		Timeout:     o.timeout,
		Transport:   o.transport,
	}, o.logger(cmd.ErrOrStderr()))
}

// print writes v as indented JSON with --json, otherwise calls text.
func (o *rootOptions) print(cmd *cobra.Command, v interface{}, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if o.jsonOut || text == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
