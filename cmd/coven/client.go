package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/coven/internal/service"
)

var (
	serverURL   string
	bearerToken string
	gatheringID string
	amount      string
	consumers   []string
	payee       string
	note        string
)

func guestClient() *service.GuestServiceClient {
	return service.NewGuestServiceClient(http.DefaultClient, serverURL,
		connect.WithInterceptors(service.BearerToken(bearerToken)))
}

var guestsCmd = &cobra.Command{
	Use:   "guests",
	Short: "List a gathering's guests and balances",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resp, err := guestClient().ListGuests(cmd.Context(), connect.NewRequest(&service.ListGuestsRequest{
			GatheringID: gatheringID,
		}))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USER\tNAME\tSTATUS\tBALANCE\tREMARKS")
		for _, g := range resp.Msg.Guests {
			remarks := ""
			if g.Remarks != nil {
				remarks = *g.Remarks
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", g.UserID, g.DisplayName, g.ArrivingStatus, g.Expenses, remarks)
		}
		return w.Flush()
	},
}

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Work with gathering expenses",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense paid by the token's user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resp, err := guestClient().RecordExpense(cmd.Context(), connect.NewRequest(&service.RecordExpenseRequest{
			GatheringID: gatheringID,
			Amount:      amount,
			ConsumerIDs: consumers,
			Note:        note,
		}))
		if err != nil {
			var cerr *connect.Error
			if errors.As(err, &cerr) && cerr.Code() == connect.CodeAborted {
				return fmt.Errorf("%w (unapplied: %s)", err, cerr.Meta().Get(service.MetaUnappliedGuests))
			}
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Recorded %s (share %s)\n", resp.Msg.Expense.Amount, resp.Msg.Expense.Share)
		for _, adj := range resp.Msg.Adjustments {
			fmt.Fprintf(out, "  %s %s\n", adj.UserID, adj.Delta)
		}
		return nil
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Record a payment from the token's user to another guest",
	RunE: func(cmd *cobra.Command, _ []string) error {
		resp, err := guestClient().RecordSettlement(cmd.Context(), connect.NewRequest(&service.RecordSettlementRequest{
			GatheringID: gatheringID,
			ToUserID:    payee,
			Amount:      amount,
			Note:        note,
		}))
		if err != nil {
			return err
		}

		st := resp.Msg.Settlement
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s paid %s to %s\n", st.FromUserID, st.Amount, st.ToUserID)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{guestsCmd, expenseAddCmd, settleCmd} {
		c.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Coven server base URL.")
		c.Flags().StringVar(&bearerToken, "token", os.Getenv("COVEN_TOKEN"), "Bearer token (default $COVEN_TOKEN).")
		c.Flags().StringVar(&gatheringID, "gathering", "", "Gathering ID.")
		c.MarkFlagRequired("gathering")
	}

	expenseAddCmd.Flags().StringVar(&amount, "amount", "", "Amount paid, e.g. 30 or 12.50.")
	expenseAddCmd.Flags().StringSliceVar(&consumers, "with", nil, "Comma-separated guest IDs sharing the expense.")
	expenseAddCmd.Flags().StringVar(&note, "note", "", "Optional note.")
	expenseAddCmd.MarkFlagRequired("amount")

	settleCmd.Flags().StringVar(&payee, "to", "", "Guest ID receiving the payment.")
	settleCmd.Flags().StringVar(&amount, "amount", "", "Amount paid.")
	settleCmd.Flags().StringVar(&note, "note", "", "Optional note.")
	settleCmd.MarkFlagRequired("to")
	settleCmd.MarkFlagRequired("amount")

	expenseCmd.AddCommand(expenseAddCmd)
	rootCmd.AddCommand(guestsCmd, expenseCmd, settleCmd)
}
