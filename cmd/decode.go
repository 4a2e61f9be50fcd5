// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/envnode/pkg/jsonlite"
	"github.com/Thermoquad/envnode/pkg/params"
)

var (
	decodeKind string
	decodeRaw  bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode [payload]",
	Short: "Decode a payload and show its parse tree",
	Long: `Decode one payload with the same decoder the node uses and print every
level of the parse tree, the located "value" and its metadata.

The payload is read from the argument, or from stdin when omitted:
  envnode decode '{"temp":{"value":21.50,"location":"garage"}}'
  echo '{"value":1}' | envnode decode --kind int`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeKind, "kind", "", "Also convert the value as int, float, bool or string")
	decodeCmd.Flags().BoolVar(&decodeRaw, "raw", false, "Print the plain tree instead of a table")
}

func runDecode(cmd *cobra.Command, args []string) error {
	var payload []byte
	if len(args) == 1 {
		payload = []byte(args[0])
	} else {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, int64(jsonlite.DefaultMaxPayload)+1))
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		payload = []byte(strings.TrimRight(string(data), "\r\n"))
	}

	parser := jsonlite.NewParser(jsonlite.DefaultLimits())
	result, err := parser.Parse(payload)
	if err != nil {
		return fmt.Errorf("decode failed: %s", jsonlite.FormatError(err))
	}

	if decodeRaw {
		fmt.Print(jsonlite.FormatResult(result))
	} else {
		table, err := treeTable(result)
		if err != nil {
			return err
		}
		fmt.Println(table)
	}

	raw, err := result.Value()
	if err != nil {
		return fmt.Errorf("depth %d: %w", result.Depth, err)
	}

	rows := pterm.TableData{{"Field", "Text"}, {"value", raw}}
	if location, err := result.Lookup(jsonlite.LocationLabel); err == nil {
		rows = append(rows, []string{"location", jsonlite.Unquote(location)})
	}
	if stamp, err := result.Lookup(jsonlite.TimestampLabel); err == nil {
		rows = append(rows, []string{"tstamp", jsonlite.Unquote(stamp)})
	}

	if decodeKind != "" {
		kind, err := params.ParseKind(decodeKind)
		if err != nil {
			return err
		}
		desc := params.Descriptor{Topic: "decode", Kind: kind, Raw: raw}
		v, err := desc.Value()
		if err != nil {
			return err
		}
		rows = append(rows, []string{kind.String(), v.String()})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// treeTable renders every child of every level as a table row
func treeTable(r *jsonlite.Result) (string, error) {
	d := pterm.TableData{{"Level", "Child", "Label", "Value"}}
	for i := 0; i <= r.Depth; i++ {
		for j, c := range r.Level(i).Children() {
			d = append(d, []string{
				fmt.Sprintf("%d", i),
				fmt.Sprintf("%d", j),
				c.Label(),
				c.Value(),
			})
		}
	}
	return pterm.DefaultTable.WithHasHeader().WithData(d).Srender()
}
