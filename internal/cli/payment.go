package cli

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dyike/xagent/internal/display"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/panels"
)

type quote struct {
	ItemType string          `json:"item_type" yaml:"item_type"`
	Quantity int             `json:"quantity" yaml:"quantity"`
	Amount   decimal.Decimal `json:"amount" yaml:"amount"`
	Currency string          `json:"currency" yaml:"currency"`
}

func (a *app) accountPanel() *panels.AccountPanel {
	return panels.NewAccountPanel(a.client.Auth(), a.client.Payment(), a.store())
}

func (a *app) newPayCmd() *cobra.Command {
	payCmd := &cobra.Command{
		Use:   "pay",
		Short: "Buy extra suggestions with BNB",
		Long: `Buying suggestions takes three steps: request a payment, send the amount
to the address shown, then verify the payment with the transaction hash.`,
	}

	var quantity int
	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Quote the price of suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if quantity < 1 {
				return fmt.Errorf("quantity must be at least 1")
			}
			q := quote{
				ItemType: models.ItemSuggestion,
				Quantity: quantity,
				Amount:   a.accountPanel().Quote(quantity),
				Currency: "BNB",
			}
			return a.write(cmd.OutOrStdout(), q, func(w io.Writer) {
				fmt.Fprintf(w, "%d suggestions cost %s %s\n", q.Quantity, q.Amount.String(), q.Currency)
			})
		},
	}
	priceCmd.Flags().IntVarP(&quantity, "quantity", "n", 10, "Number of suggestions")

	var requestQuantity int
	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Open a payment request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.accountPanel().RequestSuggestions(cmd.Context(), requestQuantity)
			if err != nil {
				return fmt.Errorf("failed to create payment request: %w", err)
			}
			return a.write(cmd.OutOrStdout(), req, func(w io.Writer) {
				fmt.Fprint(w, display.PaymentRequest(req))
				display.Info(w, fmt.Sprintf("Send the amount, then run: xagent pay verify %s <tx-hash>", req.Reference()))
			})
		},
	}
	requestCmd.Flags().IntVarP(&requestQuantity, "quantity", "n", 10, "Number of suggestions")

	verifyCmd := &cobra.Command{
		Use:   "verify TX_ID TX_HASH",
		Short: "Verify a payment with its transaction hash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			account := a.accountPanel()
			v, err := account.Verify(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to verify payment: %w", err)
			}
			if !v.Completed() {
				return fmt.Errorf("payment %s not completed: %s", args[0], account.Error())
			}
			user := a.store().Snapshot().User
			return a.write(cmd.OutOrStdout(), v, func(w io.Writer) {
				display.Success(w, "Payment verified")
				if user != nil {
					fmt.Fprintf(w, "Suggestions remaining: %d\n", user.SuggestionsRemaining)
				}
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status TX_ID",
		Short: "Show the status of a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.accountPanel().Status(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get payment status: %w", err)
			}
			return a.write(cmd.OutOrStdout(), req, func(w io.Writer) {
				fmt.Fprint(w, display.PaymentRequest(req))
			})
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List your payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := a.accountPanel().LoadHistory(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get payment history: %w", err)
			}
			return a.write(cmd.OutOrStdout(), history, func(w io.Writer) {
				fmt.Fprint(w, display.Payments(history))
			})
		},
	}

	payCmd.AddCommand(priceCmd, requestCmd, verifyCmd, statusCmd, historyCmd)
	return payCmd
}
