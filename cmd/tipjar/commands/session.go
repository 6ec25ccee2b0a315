package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tipjar/internal/addressing"
)

func printSession() {
	s := wire.Session.Snapshot()
	fmt.Printf("State:           %s\n", s.State)
	fmt.Printf("Principal:       %s\n", s.Principal.Text())
	fmt.Printf("Account id:      %s\n", addressing.AccountIDHex(s.Account.AccountID))
	fmt.Printf("ICRC account:    %s\n", s.Account.ICRCAccountID)
	fmt.Printf("Own account id:  %s\n", addressing.AccountIDHex(s.Account.PrincipalAccountID))
	fmt.Println(wire.Session.Status())
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state and deposit addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printSession()
			return nil
		},
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through the identity provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := wire.Session.Login(cmd.Context())
			printSession()
			return err
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and continue anonymously",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			printSession()
			return nil
		},
	}
}

func tempCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "temp",
		Short: "Switch to a temporary identity kept on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Session.SwitchToTemporary(); err != nil {
				return err
			}
			printSession()
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <pem-file>",
		Short: "Adopt an Ed25519 key from a PEM file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			err = wire.Session.Import(cmd.Context(), data)
			printSession()
			return err
		},
	}
}
