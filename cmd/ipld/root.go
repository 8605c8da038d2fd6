package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/distribution/ipld"
	"github.com/distribution/ipld/address"
	"github.com/distribution/ipld/internal/dcontext"
	prometheus "github.com/distribution/ipld/metrics"
	"github.com/distribution/ipld/selector"
	"github.com/distribution/ipld/storage/car"
	"github.com/distribution/ipld/version"
	"github.com/docker/go-metrics"
	"github.com/spf13/cobra"
)

var (
	showVersion bool
	debugAddr   string
	selectMode  string
	onlyMatched bool
)

func init() {
	metrics.Register(prometheus.StorageNamespace)
	metrics.Register(prometheus.SelectNamespace)

	RootCmd.AddCommand(PutCmd)
	RootCmd.AddCommand(GetCmd)
	RootCmd.AddCommand(SelectCmd)
	RootCmd.AddCommand(CarExportCmd)
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")
	RootCmd.PersistentFlags().StringVar(&debugAddr, "debug-addr", "", "serve prometheus metrics on this address while the command runs")
	SelectCmd.Flags().StringVarP(&selectMode, "mode", "m", "node", "what to print for each selection: node or dag")
	SelectCmd.Flags().BoolVar(&onlyMatched, "only-matched", false, "in node mode, print only matched nodes")
}

// RootCmd is the main command for the 'ipld' binary.
var RootCmd = &cobra.Command{
	Use:   "ipld",
	Short: "`ipld` stores and selects IPLD blocks",
	Long:  "`ipld` stores and selects IPLD blocks",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugAddr == "" {
			return
		}
		go func() {
			if err := http.ListenAndServe(debugAddr, metrics.Handler()); err != nil {
				fmt.Fprintf(os.Stderr, "debug server: %v\n", err)
			}
		}()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			version.PrintVersion()
			return
		}
		// nolint:errcheck
		cmd.Usage()
	},
}

// PutCmd stores a dag-json document read from stdin.
var PutCmd = &cobra.Command{
	Use:   "put <config>",
	Short: "`put` stores the dag-json value read from stdin and prints its address",
	Long:  "`put` stores the dag-json value read from stdin and prints its address",
	Run: func(cmd *cobra.Command, args []string) {
		e := mustSetup(cmd, args)
		defer e.close()

		addr, err := putValue(e.ctx, e.store, os.Stdin, e.code, e.mhType)
		if err != nil {
			fatalf("put: %v", err)
		}
		fmt.Fprintln(os.Stdout, addr)
	},
}

// GetCmd prints a block as dag-json.
var GetCmd = &cobra.Command{
	Use:   "get <config> <address>",
	Short: "`get` prints the block at an address as dag-json",
	Long:  "`get` prints the block at an address as dag-json",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		e := mustSetup(cmd, args)
		defer e.close()

		addr := mustParseAddress(args[1])
		if err := getValue(e.ctx, e.store, addr, os.Stdout); err != nil {
			fatalf("get: %v", err)
		}
	},
}

// SelectCmd runs a selector over the graph below an address.
var SelectCmd = &cobra.Command{
	Use:   "select <config> <address> <selector-json>",
	Short: "`select` prints one line for each node a selector selects",
	Long: "`select` runs a dag-json encoded selector over the graph rooted at an address. " +
		"In node mode each line holds the path, kind, type and block of a node; in dag " +
		"mode it holds the path and the dag-json value of a matched node.",
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		e := mustSetup(cmd, args)
		defer e.close()

		root := mustParseAddress(args[1])
		sel, err := selector.ParseJSON(args[2])
		if err != nil {
			fatalf("invalid selector: %v", err)
		}

		p := ipld.Params{
			Root:         root,
			Selector:     sel,
			MaxPathDepth: e.config.Selection.MaxPathDepth,
			MaxLinkDepth: e.config.Selection.MaxLinkDepth,
		}
		if err := selectTo(e.ctx, e.store, p, selectMode, onlyMatched, os.Stdout); err != nil {
			fatalf("select: %v", err)
		}
	},
}

// CarExportCmd writes the blocks a selection visits to a CAR file.
var CarExportCmd = &cobra.Command{
	Use:   "car-export <config> <address> <out.car> <selector-json>",
	Short: "`car-export` copies the blocks visited by a selector into a CARv2 file",
	Long:  "`car-export` copies the blocks visited by a selector into a CARv2 file",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		e := mustSetup(cmd, args)
		defer e.close()

		root := mustParseAddress(args[1])
		sel, err := selector.ParseJSON(args[3])
		if err != nil {
			fatalf("invalid selector: %v", err)
		}
		n, err := car.Export(e.ctx, e.store, root, sel, args[2])
		if err != nil {
			fatalf("car-export: %v", err)
		}
		dcontext.GetLogger(e.ctx).Infof("wrote %d blocks to %s", n, args[2])
	},
}

func mustSetup(cmd *cobra.Command, args []string) *environment {
	config, err := resolveConfiguration(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		// nolint:errcheck
		cmd.Usage()
		os.Exit(1)
	}
	e, err := newEnvironment(dcontext.Background(), config)
	if err != nil {
		fatalf("%v", err)
	}
	return e
}

func mustParseAddress(s string) address.Address {
	addr, err := address.Parse(s)
	if err != nil {
		fatalf("invalid address %q: %v", s, err)
	}
	return addr
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// closeQuietly closes c if it is an io.Closer.
func closeQuietly(v any) {
	if c, ok := v.(io.Closer); ok {
		// nolint:errcheck
		c.Close()
	}
}
