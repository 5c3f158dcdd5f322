package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newUseraddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "useradd USERNAME",
		Short: "Register a user, reading the password from stdin",
		Long: `Register USERNAME with the password read from the first line of stdin.
The username and password are used exactly as given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			engine, cleanup, err := rt.openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := engine.Register(cmd.Context(), args[0], password); err != nil {
				return err
			}
			cmd.Printf("created user %s\n", args[0])
			return nil
		},
	}
}

// readPassword returns the first line of r without its line terminator.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
