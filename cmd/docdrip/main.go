package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docdrip/docdrip"
)

var version = "dev"

func main() {
	var (
		output       string
		filename     string
		validateOnly bool
		showFormats  bool
		showVersion  bool
		keepDataURIs bool
	)

	flag.StringVar(&output, "o", "", "Output file (default: stdout)")
	flag.StringVar(&output, "output", "", "Output file (default: stdout)")
	flag.StringVar(&filename, "n", "", "Filename hint (for stdin input)")
	flag.StringVar(&filename, "name", "", "Filename hint (for stdin input)")
	flag.BoolVar(&validateOnly, "validate", false, "Validate without converting; prints JSON")
	flag.BoolVar(&showFormats, "formats", false, "List supported formats")
	flag.BoolVar(&showVersion, "v", false, "Show version")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&keepDataURIs, "keep-data-uris", false, "Keep full base64-encoded data URIs")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docdrip [flags] [source]\n\n")
		fmt.Fprintf(os.Stderr, "Convert documents to Markdown.\n\n")
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  source    File path to convert (reads stdin if omitted)\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("docdrip %s\n", version)
		os.Exit(0)
	}

	var opts []docdrip.Option
	if keepDataURIs {
		opts = append(opts, docdrip.WithKeepDataURIs(true))
	}
	engine := docdrip.New(opts...)

	if showFormats {
		for _, ext := range engine.SupportedExtensions() {
			fmt.Println(ext)
		}
		os.Exit(0)
	}

	var data []byte
	var err error

	args := flag.Args()
	if len(args) == 0 {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
	} else {
		source := args[0]
		data, err = os.ReadFile(source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", source, err)
			os.Exit(1)
		}
		if filename == "" {
			filename = filepath.Base(source)
		}
	}

	if validateOnly {
		vr := engine.Validate(data, filename)
		out, _ := json.MarshalIndent(vr, "", "  ")
		fmt.Println(string(out))
		if !vr.Valid {
			os.Exit(1)
		}
		os.Exit(0)
	}

	result := engine.Process(context.Background(), docdrip.UploadedDocument{
		Data:     data,
		Filename: filename,
	})
	if result.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", result.Err)
		os.Exit(1)
	}

	for _, w := range result.Metadata.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	if output != "" {
		dir := filepath.Dir(output)
		if dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", mkErr)
				os.Exit(1)
			}
		}
		if writeErr := os.WriteFile(output, []byte(result.Markdown+"\n"), 0o644); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", writeErr)
			os.Exit(1)
		}
	} else {
		fmt.Print(result.Markdown)
		fmt.Println()
	}
}
