package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xasm8080/pkg/asm"
	"xasm8080/pkg/listing"
	"xasm8080/pkg/utils"
)

type options struct {
	out         string
	listing     bool
	dumpSymbols bool
}

func main() {
	// Log to stderr unless the user asks for log files.
	flag.Set("logtostderr", "true")
	defer glog.Flush()

	if err := newRootCmd().Execute(); err != nil {
		glog.Flush()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "xasm8080 [flags] file...",
		Short: "Multi-pass Intel 8080 assembler",
		Long: `xasm8080 assembles one or more 8080 source files into a single binary image.

Files are assembled in order as one program. Global labels ($NAME or GLOBAL NAME)
are shared between files; static labels are private to their file; .NAME labels
belong to the preceding static label.

Next to the first input it writes the binary (.bin), the listing (.lst), the
symbol table with cross references (.xrf) and the error file (.err).`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output binary file path (default: first input with .bin extension)")
	cmd.Flags().BoolVar(&opts.listing, "listing", true, "write .lst, .xrf and .err files next to the first input")
	cmd.Flags().BoolVar(&opts.dumpSymbols, "dump-symbols", false, "pretty-print the symbol table to stderr")
	cmd.Flags().AddGoFlagSet(flag.CommandLine)
	return cmd
}

func run(stdout, stderr io.Writer, paths []string, opts *options) error {
	files := make([]*asm.SourceFile, 0, len(paths))
	for _, p := range paths {
		src, err := asm.LoadFile(p)
		if err != nil {
			fmt.Fprintf(stderr, "failed to read input file %q: %v\n", p, err)
			return err
		}
		files = append(files, src)
	}

	fullPath, dir, err := utils.GetPathInfo(paths[0])
	if err != nil {
		fmt.Fprintf(stderr, "failed to resolve input path %q: %v\n", paths[0], err)
		return err
	}
	glog.V(1).Infof("writing outputs to %s", dir)

	a := asm.NewAssembler(files...)
	base := utils.OutputBase(fullPath)
	if opts.listing {
		w, err := listing.Create(base)
		if err != nil {
			fmt.Fprintf(stderr, "failed to create listing files: %v\n", err)
			return err
		}
		defer w.Close()
		a.SetReporter(w)
	}

	res, err := a.Assemble()
	if res != nil {
		for _, e := range res.Errors {
			fmt.Fprintln(stderr, e)
		}
	}
	if opts.dumpSymbols {
		dumpSymbols(stderr, a.Symbols, isTerminal(stderr))
	}
	if err != nil {
		if errors.Is(err, asm.ErrUnresolvedSymbols) {
			fmt.Fprintf(stderr, "%v\n", err)
		} else {
			fmt.Fprintf(stderr, "assembly failed: %v\n", err)
		}
		return err
	}

	output := opts.out
	if output == "" {
		output = utils.WithExt(fullPath, ".bin")
	}
	if err := writeBinary(output, res.Image); err != nil {
		fmt.Fprintf(stderr, "failed to write binary file %q: %v\n", output, err)
		return err
	}

	end := res.Origin
	if len(res.Image) > 0 {
		end += uint16(len(res.Image) - 1)
	}
	fmt.Fprintf(stdout, "assembled %d bytes (%04XH-%04XH) in %d passes -> %s\n",
		len(res.Image), res.Origin, end, res.Passes, output)
	if len(res.Errors) > 0 {
		fmt.Fprintf(stdout, "%d errors\n", len(res.Errors))
	}
	return nil
}

func writeBinary(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// dumpSymbols pretty-prints every symbol table entry.
func dumpSymbols(w io.Writer, syms *asm.SymbolTable, color bool) {
	printer := pp.New()
	printer.SetColoringEnabled(color)
	printer.SetExportedOnly(true)
	printer.Fprintln(w, syms.Symbols())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
