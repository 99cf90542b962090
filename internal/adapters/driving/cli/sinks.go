package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/output"
	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/publish/natspub"
	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
)

// Sink names accepted by --sink.
const (
	sinkJSONL  = "jsonl"
	sinkSQLite = "sqlite"
	sinkNATS   = "nats"
)

// Config keys for the NATS sink.
const (
	keyNATSURL    = "nats.url"
	keyNATSPrefix = "nats.prefix"
)

// sinkFlags selects where a command writes its records.
type sinkFlags struct {
	kinds  []string
	output string
}

func (f *sinkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.kinds, "sink", []string{sinkJSONL}, "record sinks: jsonl, sqlite, nats")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write JSON lines to this file instead of stdout")
}

// open builds the selected sinks. Several sinks receive every record in order.
func (f *sinkFlags) open(ctx context.Context, cmd *cobra.Command, t *tenant, command string) (driven.RecordSink, error) {
	if len(f.kinds) == 0 {
		return output.NewJSONLSink(cmd.OutOrStdout()), nil
	}

	sinks := make(output.Fanout, 0, len(f.kinds))
	for _, kind := range f.kinds {
		sink, err := f.openOne(ctx, cmd, t, kind, command)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

func (f *sinkFlags) openOne(
	ctx context.Context, cmd *cobra.Command, t *tenant, kind, command string,
) (driven.RecordSink, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case sinkJSONL:
		if f.output == "" {
			return output.NewJSONLSink(cmd.OutOrStdout()), nil
		}
		fh, err := os.Create(f.output)
		if err != nil {
			return nil, fmt.Errorf("creating output file: %w", err)
		}
		return output.NewJSONLSink(fh), nil

	case sinkSQLite:
		run, err := sqlite.OpenRun(ctx, t.cfg.DataDir, command)
		if err != nil {
			return nil, fmt.Errorf("opening run database: %w", err)
		}
		cmd.PrintErrf("Run %s\n", run.RunID())
		return run, nil

	case sinkNATS:
		url := t.store.GetString(keyNATSURL)
		if url == "" {
			url = nats.DefaultURL
		}
		pub, err := natspub.Connect(url, t.store.GetString(keyNATSPrefix))
		if err != nil {
			return nil, err
		}
		return pub, nil

	default:
		return nil, fmt.Errorf("%w: unknown sink %q", domain.ErrInvalidInput, kind)
	}
}
