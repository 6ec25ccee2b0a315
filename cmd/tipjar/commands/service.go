package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tipjar/internal/addressing"
	"tipjar/internal/domain"
	"tipjar/internal/session"
)

func printUserInfo(info domain.UserInfo) {
	fmt.Printf("ICP:     %d e8s\n", info.Balance.ICP)
	fmt.Printf("Cycles:  %s\n", domain.FormatCycles(info.Balance.Cycle))
	if info.Status != "" {
		fmt.Printf("Status:  %s\n", info.Status)
	}
	if len(info.Allocations) == 0 {
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CANISTER\tALIAS\tALLOCATED\tDONATED")
	for _, a := range info.Allocations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Canister.Text(), a.Alias,
			domain.FormatCycles(a.Allocated), domain.FormatCycles(a.Donated))
	}
	tw.Flush()
}

func aboutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "Fetch and show your donor record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := session.NewRefresher(wire.Session, wire.Config.RefreshInterval)
			if err := r.RefreshUserInfo(cmd.Context()); err != nil {
				return err
			}
			if err := r.RefreshLedger(cmd.Context()); err != nil {
				return err
			}
			info, ok := wire.Session.GetUserInfo()
			if !ok {
				fmt.Println("No donor record for an anonymous session.")
				return nil
			}
			printUserInfo(info)
			return nil
		},
	}
}

func allocateCmd() *cobra.Command {
	var (
		alias     string
		allocated uint64
	)
	cmd := &cobra.Command{
		Use:   "allocate <canister>",
		Short: "Direct part of your cycles to a canister",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			canister, err := domain.ParsePrincipal(args[0])
			if err != nil {
				return err
			}
			req := domain.AllocateRequest{Canister: canister, Allocated: allocated}
			if cmd.Flags().Changed("alias") {
				req.Alias = &alias
			}
			info, err := wire.Session.Allocate(cmd.Context(), req)
			if err != nil {
				fmt.Println(wire.Session.Status())
				return err
			}
			printUserInfo(info)
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "display name for the canister")
	cmd.Flags().Uint64Var(&allocated, "cycles", 0, "cycles to allocate")
	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Query the ledgers for your deposit account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := wire.Session.Snapshot()
			icp, err := s.Client.AccountBalance(cmd.Context(), s.Account.AccountID)
			if err != nil {
				return err
			}
			cycles, err := s.Client.ICRC1BalanceOf(cmd.Context(), s.Account.ICRCAccount)
			if err != nil {
				return err
			}
			wire.Session.SetICPBalance(s.Principal, icp)
			fmt.Printf("ICP deposit (%s): %d e8s\n", addressing.AccountIDHex(s.Account.AccountID), icp)
			fmt.Printf("Cycles deposit (%s): %s\n", s.Account.ICRCAccountID, domain.FormatCycles(cycles))
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show service-wide totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := wire.Session.Snapshot().Client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Donors:     %d\n", st.Donors)
			fmt.Printf("Canisters:  %d\n", st.Canisters)
			fmt.Printf("Donated:    %s\n", domain.FormatCycles(st.Donated))
			fmt.Printf("Funded:     %s\n", domain.FormatCycles(st.Funded))
			return nil
		},
	}
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the service accepts our requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := wire.Session.Snapshot()
			if err := s.Client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("pong (%s)\n", s.Principal.Text())
			return nil
		},
	}
}

func topupAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topup-account <canister>",
		Short: "Print the minting account that converts ICP into cycles for a canister",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			canister, err := domain.ParsePrincipal(args[0])
			if err != nil {
				return err
			}
			id := addressing.TopUpAccountID(wire.Minting, canister)
			fmt.Printf("Account: %s\n", addressing.AccountIDHex(id))
			fmt.Printf("Memo:    %#x\n", addressing.TopUpMemo)
			fmt.Printf("Fee:     %d e8s\n", addressing.TopUpFee)
			return nil
		},
	}
}

func topupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topup <e8s> [canister]",
		Short: "Convert ICP from your own account into cycles for a canister",
		Long: "Sends <e8s> from your identity's own ledger account to the minting\n" +
			"account and notifies the minting canister. The canister defaults to\n" +
			"the tip-jar service.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e8s, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			canister := wire.Service
			if len(args) == 2 {
				if canister, err = domain.ParsePrincipal(args[1]); err != nil {
					return err
				}
			}
			cycles, err := wire.Session.TopUp(cmd.Context(), canister, e8s)
			if err != nil {
				fmt.Println(wire.Session.Status())
				return err
			}
			fmt.Printf("Topped up %s with %s cycles.\n", canister.Text(), domain.FormatCycles(cycles))
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep balances and the login fresh until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			unsubscribe := wire.Session.Subscribe(func(s session.Session) {
				fmt.Printf("session: %s %s\n", s.State, s.Principal.Text())
			})
			defer unsubscribe()

			r := session.NewRefresher(wire.Session, wire.Config.RefreshInterval)
			if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if info, ok := wire.Session.GetUserInfo(); ok {
				printUserInfo(info)
			}
			return nil
		},
	}
}
