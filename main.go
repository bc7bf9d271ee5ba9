package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathanKingston/mhtml2html/browser"
	"github.com/jonathanKingston/mhtml2html/convert"
	"github.com/jonathanKingston/mhtml2html/domtree"
	"github.com/jonathanKingston/mhtml2html/output"
	"github.com/jonathanKingston/mhtml2html/register"
)

const version = "1.0.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	noBrowser := flag.Bool("no-browser", false, "Don't open browser after conversion")
	convertIframes := flag.Bool("convert-iframes", false, "Recursively inline cid: iframes into data URIs")
	strict := flag.Bool("strict", false, "Fail on truncated streams or malformed parts instead of recovering leniently")
	doRegister := flag.Bool("register", false, "Register mhtml2html as the default program for .mht/.mhtml files")
	doUnregister := flag.Bool("unregister", false, "Unregister mhtml2html as the default program for .mht/.mhtml files")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "mhtml2html - MHTML archive to self-contained HTML converter\n\n")
		fmt.Fprintf(os.Stderr, "Usage: mhtml2html [options] <input.mhtml> [output.html]\n\n")
		fmt.Fprintf(os.Stderr, "Arguments:\n")
		fmt.Fprintf(os.Stderr, "  input.mhtml   Path to the MHTML archive to convert\n")
		fmt.Fprintf(os.Stderr, "  output.html   Optional output path (default: temp file in %%LocalAppData%%\\mhtml2html)\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  --%s", f.Name)
			if f.DefValue != "false" && f.DefValue != "" {
				fmt.Fprintf(os.Stderr, " %s", f.DefValue)
			}
			fmt.Fprintf(os.Stderr, "\n        %s\n", f.Usage)
		})
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("mhtml2html version %s\n", version)
		os.Exit(0)
	}

	if *doRegister {
		if err := register.Register(); err != nil {
			fmt.Fprintf(os.Stderr, "Error registering: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("mhtml2html registered as default program for .mht/.mhtml files")
		os.Exit(0)
	}

	if *doUnregister {
		if err := register.Unregister(); err != nil {
			fmt.Fprintf(os.Stderr, "Error unregistering: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("mhtml2html unregistered as default program for .mht/.mhtml files")
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: input MHTML file is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	inputPath := args[0]
	var outputPath string
	if len(args) >= 2 {
		outputPath = args[1]
	}

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: input file does not exist: %s\n", inputPath)
		os.Exit(1)
	}

	if err := run(inputPath, outputPath, !*noBrowser, *convertIframes, *strict); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(inputPath, outputPath string, openBrowser, convertIframes, strict bool) error {
	finalOutputPath, err := output.GetOutputPath(outputPath)
	if err != nil {
		return fmt.Errorf("failed to determine output path: %w", err)
	}

	absInputPath, err := filepath.Abs(inputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %w", err)
	}

	data, err := os.ReadFile(absInputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	logger := func(format string, a ...any) {
		fmt.Fprintf(os.Stderr, "mhtml2html: "+format+"\n", a...)
	}

	doc, err := convert.Convert(data, convert.ConvertOptions{
		ConvertIframes: convertIframes,
		Strict:         strict,
		Provider:       domtree.ParseDocument,
		Logger:         convert.Logger(logger),
	})
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	rendered, err := doc.Serialize()
	if err != nil {
		return fmt.Errorf("serializing output failed: %w", err)
	}

	if err := os.WriteFile(finalOutputPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Generated: %s\n", finalOutputPath)

	if openBrowser {
		if err := browser.Open(finalOutputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to open browser: %v\n", err)
		}
	}

	return nil
}

func init() {
	// Normalize Windows paths in arguments, handling mixed separators
	// like "C:\path\to\file.mhtml".
	for i, arg := range os.Args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		os.Args[i] = filepath.Clean(arg)
	}
}
