package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// formatTokensText formats CLIToken results as aligned columns.
func formatTokensText(w io.Writer, toks []CLIToken) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCHAR\tLENGTH\tTYPE\tTEXT")
	for _, t := range toks {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", t.Line, t.Char, t.Length, t.Type, t.Text)
	}
	tw.Flush()
}

// formatDefinitionsText formats CLIDefinition results as aligned columns.
func formatDefinitionsText(w io.Writer, defs []CLIDefinition) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tCONTAINER\tLINE\tCOL")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", d.Name, d.Kind, d.Container, d.StartLine, d.StartCol)
	}
	tw.Flush()
}

// formatCapturesText formats CLICapture results as "line:col @name text".
func formatCapturesText(w io.Writer, caps []CLICapture) {
	for _, c := range caps {
		fmt.Fprintf(w, "%d:%d @%s %s\n", c.StartLine, c.StartCol, c.Name, c.Text)
	}
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tCONTAINER\tFILE\tLINE")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", s.Name, s.Kind, s.Container, s.File, s.StartLine)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIToken:
		formatTokensText(w, v)
	case []CLIDefinition:
		formatDefinitionsText(w, v)
	case []CLICapture:
		formatCapturesText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case CLITree:
		fmt.Fprintln(w, v.Sexp)
	case CLILegend:
		for i, t := range v.TokenTypes {
			fmt.Fprintf(w, "%d\t%s\n", i, t)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputResult writes a CLIResult to the command's stdout in the selected
// format.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	w := cmd.OutOrStdout()
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
