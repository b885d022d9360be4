package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stanza/internal/store"
)

func newCredsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Manage stored catalog credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <host|url>",
		Short: "Store a credential for a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			host := credentialHost(args[0])
			if host == "" {
				return fmt.Errorf("cannot derive a host from %q", args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Username for %s: ", host)
			reader := bufio.NewReader(cmd.InOrStdin())
			username, err := reader.ReadString('\n')
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Password for %s: ", host)
			secret, err := readSecret()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())

			cred := store.Credential{
				Username: strings.TrimSpace(username),
				Secret:   secret,
			}
			if err := ctx.store.SetCredential(host, cred); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored credential for %s\n", host)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <host|url>",
		Short: "Remove a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			host := credentialHost(args[0])
			if host == "" {
				return fmt.Errorf("cannot derive a host from %q", args[0])
			}
			if err := ctx.store.DeleteCredential(host); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed credential for %s\n", host)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List hosts with stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			hosts := ctx.store.Hosts()
			if len(hosts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no stored credentials")
				return nil
			}
			rows := make([][]string, 0, len(hosts))
			for _, h := range hosts {
				rows = append(rows, []string{h})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Host"}, rows))
			return nil
		},
	})

	return cmd
}

// credentialHost normalizes either a bare host or a full URL to the
// credential key.
func credentialHost(arg string) string {
	if strings.Contains(arg, "://") {
		return store.NormalizeHost(arg)
	}
	return store.NormalizeHost("//" + arg)
}

// readSecret reads a password without echo when stdin is a terminal
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
