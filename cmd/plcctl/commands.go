package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plc-assistant/backend/internal/analysis"
	"github.com/plc-assistant/backend/internal/device"
	"github.com/plc-assistant/backend/internal/gateway"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/search"
	"github.com/plc-assistant/backend/internal/store"
)

// deviceCmd builds a command taking a single device argument and a loaded store.
func deviceCmd(opts *rootOptions, use, short string, run func(cmd *cobra.Command, s *store.PlcDataStore, addr device.Address) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " DEVICE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.loadStore(cmd)
			if err != nil {
				return err
			}
			return run(cmd, s, device.Parse(args[0]))
		},
	}
}

func newAddressCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "address SPEC",
		Short: "Parse a device spec such as D100:5",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := device.Parse(args[0])
			return opts.print(cmd, addr, func(w io.Writer) {
				printf(w, "device:  %s\naddress: %s\nlength:  %d\nspec:    %s\n",
					addr.Class, addr.Address, addr.Length, addr.ToSpec())
			})
		},
	}
}

func newCommentCmd(opts *rootOptions) *cobra.Command {
	return deviceCmd(opts, "comment", "Show the comment of a device",
		func(cmd *cobra.Command, s *store.PlcDataStore, addr device.Address) error {
			comment := analysis.NewProgramAnalyzer(s).Comment(addr.Class, addr.Address)
			return opts.print(cmd, map[string]string{"device": addr.Display(), "comment": comment}, func(w io.Writer) {
				if comment == "" {
					printf(w, "%s: (no comment)\n", addr.Display())
					return
				}
				printf(w, "%s: %s\n", addr.Display(), comment)
			})
		})
}

func newBlocksCmd(opts *rootOptions) *cobra.Command {
	var context int
	cmd := deviceCmd(opts, "blocks", "Show program lines around every use of a device",
		func(cmd *cobra.Command, s *store.PlcDataStore, addr device.Address) error {
			blocks := analysis.NewProgramAnalyzer(s).Blocks(addr.Class, addr.Address, context)
			return opts.print(cmd, blocks, func(w io.Writer) {
				if len(blocks) == 0 {
					printf(w, "%s is not used in any program\n", addr.Display())
					return
				}
				for i, b := range blocks {
					if i > 0 {
						printf(w, "\n")
					}
					printf(w, "== %s lines %d-%d (match %d)\n%s\n", b.Program, b.StartLine, b.EndLine, b.MatchLine, b.Text())
				}
			})
		})
	cmd.Flags().IntVarP(&context, "context", "c", analysis.DefaultContextLines, "lines shown on each side of a match")
	return cmd
}

func newRelatedCmd(opts *rootOptions) *cobra.Command {
	return deviceCmd(opts, "related", "List devices used next to a device",
		func(cmd *cobra.Command, s *store.PlcDataStore, addr device.Address) error {
			related := analysis.NewProgramAnalyzer(s).RelatedDevices(addr.Class, addr.Address)
			return opts.print(cmd, related, func(w io.Writer) {
				printf(w, "%s\n", strings.Join(related, " "))
			})
		})
}

func newDataTypeCmd(opts *rootOptions) *cobra.Command {
	return deviceCmd(opts, "datatype", "Guess the data type held by a word device",
		func(cmd *cobra.Command, s *store.PlcDataStore, addr device.Address) error {
			dt := analysis.NewProgramAnalyzer(s).InferDeviceDataType(addr.Class, addr.Address)
			return opts.print(cmd, map[string]interface{}{"device": addr.Display(), "dataType": dt}, func(w io.Writer) {
				printf(w, "%s: %s\n", addr.Display(), dt)
			})
		})
}

func newTraceCmd(opts *rootOptions) *cobra.Command {
	var keywords []string
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List coils whose comments mark them as fault signals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.loadStore(cmd)
			if err != nil {
				return err
			}
			tracer := analysis.NewFaultTracer(s)
			if len(keywords) > 0 {
				tracer = analysis.NewFaultTracerWithKeywords(s, keywords)
			}
			report := tracer.TraceErrorCoils()
			return opts.print(cmd, report, func(w io.Writer) {
				if report.Status != models.FaultStatusSuccess {
					printf(w, "%s\n", report.Message)
					return
				}
				for _, c := range report.Candidates {
					printf(w, "%s\t%s\t%s:%d\t%s\trelated: %s\n",
						c.Device, c.Comment, c.Program, c.LineNumber, c.Line, strings.Join(c.RelatedDevices, ","))
				}
			})
		},
	}
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "comment keywords marking a fault (replaces the defaults)")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var maxResults int
	cmd := &cobra.Command{
		Use:   "search QUESTION...",
		Short: "Rank device comments against a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.loadStore(cmd)
			if err != nil {
				return err
			}
			results := search.NewCommentSearchService(s).Search(strings.Join(args, " "), maxResults)
			return opts.print(cmd, results, func(w io.Writer) {
				if len(results) == 0 {
					printf(w, "no matching comments\n")
					return
				}
				for _, r := range results {
					printf(w, "%6.2f  %-8s %s\n", r.Score, r.Device, r.Comment)
				}
			})
		},
	}
	cmd.Flags().IntVarP(&maxResults, "max", "n", search.DefaultMaxResults, "maximum results (1-20)")
	return cmd
}

func newReasonCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reason TEXT...",
		Short: "Pick out the devices mentioned in free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := analysis.Reasoner{}.Infer(strings.Join(args, " "))
			return opts.print(cmd, result, func(w io.Writer) {
				if !result.Inferred {
					printf(w, "%s\n", result.Message)
					return
				}
				for _, g := range result.Candidates {
					printf(w, "%d. %s\n", g.Priority, g.Device)
				}
			})
		},
	}
}

func newFunctionBlockCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "fb NAME",
		Aliases: []string{"function-block"},
		Short:   "Show function-block metadata",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.loadStore(cmd)
			if err != nil {
				return err
			}
			block, ok := s.TryGetFunctionBlock(args[0])
			if !ok {
				suggestions := search.SuggestNames(args[0], s.FunctionBlockNames(), search.DefaultSuggestions)
				if len(suggestions) > 0 {
					return fmt.Errorf("function block %q not found (did you mean %s?)", args[0], strings.Join(suggestions, ", "))
				}
				return fmt.Errorf("function block %q not found", args[0])
			}
			return opts.print(cmd, block, func(w io.Writer) {
				printf(w, "name: %s\nlabels:\n%s\nprogram:\n%s\n", block.Name, block.LabelContent, block.ProgramContent)
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how much was loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.loadStore(cmd)
			if err != nil {
				return err
			}
			stats := s.Stats()
			return opts.print(cmd, stats, func(w io.Writer) {
				printf(w, "comments:        %d\nprograms:        %d\nprogram lines:   %d\nfunction blocks: %d\n",
					stats.Comments, stats.Programs, stats.ProgramLines, stats.FunctionBlocks)
			})
		},
	}
}

func newReadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read SPEC",
		Short: "Read live values of one device through the gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.gatewayClient(cmd)
			if err != nil {
				return err
			}
			result := client.Read(cmd.Context(), args[0], gateway.Options{})
			if err := opts.print(cmd, result, func(w io.Writer) { printReadResult(w, result) }); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("read %s failed", result.Label)
			}
			return nil
		},
	}
}

func newReadBatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read-batch SPEC...",
		Short: "Read several devices in one gateway call",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.gatewayClient(cmd)
			if err != nil {
				return err
			}
			result := client.ReadBatch(cmd.Context(), args, gateway.Options{})
			if err := opts.print(cmd, result, func(w io.Writer) {
				for _, r := range result.Results {
					printReadResult(w, r)
				}
			}); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("batch read failed: %s", result.Error)
			}
			return nil
		},
	}
}

func printReadResult(w io.Writer, r models.DeviceReadResult) {
	if !r.Success {
		printf(w, "%s\tERROR %s\n", r.Label, r.Error)
		return
	}
	values := make([]string, len(r.Values))
	for i, v := range r.Values {
		values[i] = fmt.Sprint(v)
	}
	printf(w, "%s\t%s\n", r.Label, strings.Join(values, " "))
}
