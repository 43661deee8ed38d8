package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	flexschema "github.com/flexdata/flexschema"
	"github.com/flexdata/flexschema/jsonschema"
	"github.com/flexdata/flexschema/schemafile"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "export":
		exportCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "align":
		alignCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `flexschema CLI

Usage:
  flexschema export -schema decl.yaml [-o out.json]
  flexschema validate -schema decl.yaml -data table.json
  flexschema align -schema decl.yaml -data table.json [-o out.json]

Notes:
  - Declaration files are YAML or JSON (see the schemafile package).
  - Data files are JSON arrays of row objects.`)
}

func exportCmd(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var schemaPath, out string
	fs.StringVar(&schemaPath, "schema", "", "declaration file (YAML or JSON)")
	fs.StringVar(&out, "o", "", "output filename (default stdout)")
	_ = fs.Parse(args)
	if schemaPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	decl := loadDeclaration(schemaPath)
	doc, err := jsonschema.Export(decl)
	if err != nil {
		fatalf("export: %v", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fatalf("encoding JSON Schema: %v", err)
	}
	writeOutput(out, append(data, '\n'))
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var schemaPath, dataPath string
	fs.StringVar(&schemaPath, "schema", "", "declaration file (YAML or JSON)")
	fs.StringVar(&dataPath, "data", "", "JSON data file (array of objects)")
	_ = fs.Parse(args)
	if schemaPath == "" || dataPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	b := bind(loadDeclaration(schemaPath))
	tbl := loadTable(dataPath)

	if err := b.ValidateTable(context.Background(), tbl); err != nil {
		reportValidation(err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func alignCmd(args []string) {
	fs := flag.NewFlagSet("align", flag.ExitOnError)
	var schemaPath, dataPath, out string
	fs.StringVar(&schemaPath, "schema", "", "declaration file (YAML or JSON)")
	fs.StringVar(&dataPath, "data", "", "JSON data file (array of objects)")
	fs.StringVar(&out, "o", "", "output filename (default stdout)")
	_ = fs.Parse(args)
	if schemaPath == "" || dataPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	b := bind(loadDeclaration(schemaPath))
	tbl := loadTable(dataPath)

	aligned, err := b.Align(context.Background(), tbl)
	if err != nil {
		reportValidation(err)
		os.Exit(1)
	}
	data, err := json.MarshalIndent(aligned, "", "  ")
	if err != nil {
		fatalf("encoding aligned table: %v", err)
	}
	writeOutput(out, append(data, '\n'))
}

func bind(decl *flexschema.Declaration) *jsonschema.Binding {
	b, err := jsonschema.Bind(decl)
	if err != nil {
		fatalf("binding declaration: %v", err)
	}
	return b
}

func loadDeclaration(path string) *flexschema.Declaration {
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf("reading %s: %v", path, err)
	}
	decl, err := schemafile.Parse(data)
	if err != nil {
		fatalf("parsing %s: %v", path, err)
	}
	return decl
}

func loadTable(path string) *jsonschema.Table {
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf("reading %s: %v", path, err)
	}
	tbl, err := jsonschema.DecodeTable(data)
	if err != nil {
		fatalf("parsing %s: %v", path, err)
	}
	return tbl
}

func reportValidation(err error) {
	if ve, ok := flexschema.AsValidationError(err); ok {
		fmt.Fprintln(os.Stderr, ve.Error())
		return
	}
	var tve *flexschema.TableValidationError
	if errors.As(err, &tve) {
		fmt.Fprintln(os.Stderr, tve.Error())
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

func writeOutput(out string, data []byte) {
	if out == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fatalf("writing %s: %v", out, err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "flexschema: "+format+"\n", args...)
	os.Exit(1)
}
