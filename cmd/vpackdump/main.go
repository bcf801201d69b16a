package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/arangodb/go-vpack"
	"github.com/arangodb/go-vpack/hexdump"
)

type cli struct {
	File          string `arg:"" optional:"" help:"Path to an encoded vpack document, or - / omitted for stdin."`
	ValuesPerLine int    `help:"Bytes per hex dump line." default:"16"`
	NoHex         bool   `help:"Skip the hex dump and only print the structure."`
}

func main() {
	log.SetFlags(0)

	var args cli
	kong.Parse(&args,
		kong.Name("vpackdump"),
		kong.Description("Hex-dump and structurally print an encoded vpack document."),
		kong.UsageOnError(),
	)

	data, err := readInput(args.File)
	if err != nil {
		log.Fatal(err)
	}

	if !args.NoHex {
		fmt.Println(hexdump.Summary(os.Stdout, data))
		d := hexdump.New(data)
		d.ValuesPerLine = args.ValuesPerLine
		if _, err := d.WriteTo(os.Stdout); err != nil {
			log.Fatal(err)
		}
		fmt.Println()
	}

	s := vpack.NewSlice(data)
	if err := printSlice(os.Stdout, s, 0); err != nil {
		log.Fatal(err)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printSlice(w io.Writer, s vpack.Slice, depth int) error {
	indent := strings.Repeat("  ", depth)
	if tag, ok := s.HasTag(); ok {
		fmt.Fprintf(w, "%stag(%d):\n", indent, tag)
		return printSlice(w, s.Value(), depth)
	}
	switch s.Kind() {
	case vpack.ValueKindArray:
		n, err := s.Length()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%sarray[%d]\n", indent, n)
		for i := 0; i < n; i++ {
			mv, err := s.At(i)
			if err != nil {
				return err
			}
			if err := printSlice(w, mv, depth+1); err != nil {
				return err
			}
		}
	case vpack.ValueKindObject:
		keys, err := s.Keys()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%sobject{%d}\n", indent, len(keys))
		for _, k := range keys {
			mv, err := s.Get(k)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s  %q:\n", indent, k)
			if err := printSlice(w, mv, depth+2); err != nil {
				return err
			}
		}
	default:
		v, err := s.ToAny()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s: %v\n", indent, s.Kind(), v)
	}
	return nil
}
