package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newsdailly/newsdailly/theme"
)

func newThemeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "theme [toggle|light|dark]",
		Short: "Show or change the colour theme",
		Long: `With no argument, print the current theme. "toggle" switches between
light and dark; "light" or "dark" selects one. The choice is saved to the
preference database and restored on the next start.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"toggle", string(theme.Light), string(theme.Dark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.openTheme()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(w, state.Mode())
				return nil
			}

			if args[0] == "toggle" {
				mode, err := state.Toggle()
				if err != nil {
					return fmt.Errorf("failed to save theme: %w", err)
				}
				fmt.Fprintf(w, "Theme set to %s\n", mode)
				return nil
			}

			mode, err := theme.ParseMode(args[0])
			if err != nil {
				return err
			}
			if err := state.Set(mode); err != nil {
				return fmt.Errorf("failed to save theme: %w", err)
			}
			fmt.Fprintf(w, "Theme set to %s\n", mode)
			return nil
		},
	}
}
