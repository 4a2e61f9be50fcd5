// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Thermoquad/envnode/pkg/nvconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the node configuration",
	Long: `Prompt for every node setting in turn and save the result.

Settings: Wi-Fi SSID and password, MQTT server and port, location, GMT
offset, calibration offsets and debug level.

Press <enter> alone to keep the value shown, <esc> as the first character to
skip the remaining settings. A value longer than the setting allows leaves it
unchanged. The password is read without echo.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the node configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	store := configStore()
	cfg, err := loadNodeConfig()
	if err != nil {
		return err
	}

	fmt.Printf("Envnode - Node Configuration\n")
	fmt.Printf("File: %s\n", store.Path)

	p := nvconfig.NewPrompter(os.Stdin, os.Stdout)
	if term.IsTerminal(int(syscall.Stdin)) {
		p.ReadSecret = func() (string, error) {
			b, err := term.ReadPassword(int(syscall.Stdin))
			return string(b), err
		}
	}
	if err := p.Edit(cfg); err != nil {
		return err
	}

	if err := store.Save(cfg); err != nil {
		return err
	}
	log.WithField("path", store.Path).Info("Node config saved")

	return printConfig(cfg)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadNodeConfig()
	if err != nil {
		return err
	}
	fmt.Printf("File: %s\n", configStore().Path)
	return printConfig(cfg)
}

// printConfig renders every setting, secrets masked
func printConfig(cfg *nvconfig.Config) error {
	d := pterm.TableData{{"Setting", "Value"}}
	for _, row := range nvconfig.Rows(cfg) {
		d = append(d, []string{row[0], row[1]})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(d).Srender()
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
