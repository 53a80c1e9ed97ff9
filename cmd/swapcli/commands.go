package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli"
)

var registerKeysCommand = cli.Command{
	Name:      "registerkeys",
	Usage:     "register Ed25519 public keys authorized to sign an account's orders",
	ArgsUsage: "account pubkey_hex [pubkey_hex...]",
	Action:    registerKeys,
}

func registerKeys(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 2 {
		return fmt.Errorf("registerkeys requires an account and at least one pubkey")
	}

	var resp struct{}
	return apiClient(ctx, "/v1/register_keys", map[string]interface{}{
		"account":  args[0],
		"pub_keys": []string(args[1:]),
	}, &resp)
}

var getRegisteredKeysCommand = cli.Command{
	Name:      "getkeys",
	Usage:     "list an account's registered public keys",
	ArgsUsage: "account",
	Action:    getRegisteredKeys,
}

func getRegisteredKeys(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return fmt.Errorf("getkeys requires exactly one account")
	}

	var resp struct {
		PubKeys []string `json:"pub_keys"`
	}
	if err := apiClient(ctx, "/v1/get_registered_keys", map[string]interface{}{
		"account": args[0],
	}, &resp); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "public key"})
	for i, k := range resp.PubKeys {
		t.AppendRow(table.Row{i, k})
	}
	t.Render()

	return nil
}

var depositCommand = cli.Command{
	Name:      "deposit",
	Usage:     "record an external fungible-token deposit for an account",
	ArgsUsage: "account token amount",
	Action:    deposit,
}

func deposit(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 3 {
		return fmt.Errorf("deposit requires account, token, amount")
	}

	var resp struct{}
	return apiClient(ctx, "/v1/ft_on_transfer", map[string]interface{}{
		"sender": args[0],
		"token":  args[1],
		"amount": args[2],
		"msg":    map[string]interface{}{"type": "Deposit"},
	}, &resp)
}

var withdrawCommand = cli.Command{
	Name:      "withdraw",
	Usage:     "withdraw previously deposited, unlocked funds",
	ArgsUsage: "account token amount",
	Action:    withdraw,
}

func withdraw(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 3 {
		return fmt.Errorf("withdraw requires account, token, amount")
	}

	var resp struct{}
	return apiClient(ctx, "/v1/withdraw_deposit", map[string]interface{}{
		"account": args[0],
		"token":   args[1],
		"amount":  args[2],
	}, &resp)
}

var balanceCommand = cli.Command{
	Name:      "balance",
	Usage:     "show an account's available balance for a token",
	ArgsUsage: "account token",
	Action:    balance,
}

func balance(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		return fmt.Errorf("balance requires account, token")
	}

	var resp struct {
		Available string `json:"available"`
	}
	if err := apiClient(ctx, "/v1/get_available_balance", map[string]interface{}{
		"account": args[0],
		"token":   args[1],
	}, &resp); err != nil {
		return err
	}

	fmt.Println(resp.Available)
	return nil
}

var createDestinationEscrowCommand = cli.Command{
	Name:      "createdestinationescrow",
	Usage:     "open the destination half of a swap",
	ArgsUsage: "sender token amount hashlock_hex maker_id safety_deposit delays_json",
	Action:    createDestinationEscrow,
}

func createDestinationEscrow(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 7 {
		return fmt.Errorf("createdestinationescrow requires sender, token, amount, hashlock, maker_id, safety_deposit, delays_json")
	}

	msg := map[string]interface{}{
		"type":      "CreateDestinationEscrow",
		"hashlock":  args[3],
		"maker_id":  args[4],
		"timelocks": mustParseDelaysJSON(args[6]),
	}

	var resp struct{}
	return apiClient(ctx, "/v1/ft_on_transfer", map[string]interface{}{
		"sender":         args[0],
		"token":          args[1],
		"amount":         args[2],
		"msg":            msg,
		"safety_deposit": mustParseInt64(args[5]),
	}, &resp)
}

var initiateSourceEscrowCommand = cli.Command{
	Name:      "initiatesourceescrow",
	Usage:     "open the source half of a swap against a signed order",
	ArgsUsage: "order_json signature_hex pubkey_hex resolver safety_deposit",
	Action:    initiateSourceEscrow,
}

func initiateSourceEscrow(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 5 {
		return fmt.Errorf("initiatesourceescrow requires order_json, signature_hex, pubkey_hex, resolver, safety_deposit")
	}

	var resp struct{}
	return apiClient(ctx, "/v1/initiate_source_escrow", map[string]interface{}{
		"order":          mustParseJSON(args[0]),
		"signature":      args[1],
		"pub_key":        args[2],
		"resolver":       args[3],
		"safety_deposit": mustParseInt64(args[4]),
	}, &resp)
}

var claimCommand = cli.Command{
	Name:      "claim",
	Usage:     "reveal an escrow's secret and claim its payout",
	ArgsUsage: "secret_hex caller",
	Action:    claim,
}

func claim(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		return fmt.Errorf("claim requires secret_hex, caller")
	}

	var resp struct{}
	return apiClient(ctx, "/v1/claim", map[string]interface{}{
		"secret": args[0],
		"caller": args[1],
	}, &resp)
}

var cancelCommand = cli.Command{
	Name:      "cancel",
	Usage:     "refund a stalled escrow",
	ArgsUsage: "hashlock_hex caller",
	Action:    cancel,
}

func cancel(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		return fmt.Errorf("cancel requires hashlock_hex, caller")
	}

	var resp struct{}
	return apiClient(ctx, "/v1/cancel", map[string]interface{}{
		"hashlock": args[0],
		"caller":   args[1],
	}, &resp)
}

var auditLedgerCommand = cli.Command{
	Name:   "auditledger",
	Usage:  "list any locked > total ledger invariant violations",
	Action: auditLedger,
}

func auditLedger(ctx *cli.Context) error {
	var resp struct {
		Violations []struct {
			Account string `json:"account"`
			Asset   string `json:"asset"`
			Total   string `json:"total"`
			Locked  string `json:"locked"`
		} `json:"violations"`
	}
	if err := apiClient(ctx, "/v1/audit_ledger", map[string]interface{}{}, &resp); err != nil {
		return err
	}

	if len(resp.Violations) == 0 {
		fmt.Println("no violations")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"account", "asset", "total", "locked"})
	for _, v := range resp.Violations {
		t.AppendRow(table.Row{v.Account, v.Asset, v.Total, v.Locked})
	}
	t.Render()

	return nil
}
