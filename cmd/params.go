// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/envnode/pkg/params"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the parameter table",
	Long: `List every topic the node follows, in table order, with its label, kind
and whether it appears on the current conditions screen.

The stock table can be extended with --param topic:kind[:label].`,
	Args: cobra.NoArgs,
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	registry, err := buildRegistry(paramFlags)
	if err != nil {
		return err
	}
	out, err := paramsTable(registry)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// paramsTable renders the registry in table order
func paramsTable(r *params.Registry) (string, error) {
	d := pterm.TableData{{"#", "Topic", "Label", "Kind", "Display"}}
	i := 0
	r.Each(func(desc params.Descriptor) bool {
		i++
		display := "no"
		if desc.Display {
			display = "yes"
		}
		d = append(d, []string{fmt.Sprintf("%d", i), desc.Topic, desc.Label, desc.Kind.String(), display})
		return true
	})
	d = append(d, []string{
		"",
		pterm.DefaultTable.HeaderStyle.Sprint("TOTAL"),
		pterm.DefaultTable.HeaderStyle.Sprintf("%d of %d", r.Len(), r.Limits().MaxEntries),
		"", "",
	})
	return pterm.DefaultTable.WithHasHeader().WithData(d).Srender()
}
