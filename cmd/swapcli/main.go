// Command swapcli is a command-line client for swapd's JSON business API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[swapcli] %v\n", err)
	os.Exit(1)
}

// apiClient posts body as JSON to path on the configured rpcserver and
// decodes the JSON response into out.
func apiClient(ctx *cli.Context, path string, body, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s%s", ctx.GlobalString("rpcserver"), path)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if !ctx.GlobalBool("no-macaroon") {
		mac, err := readMacaroonHex(ctx.GlobalString("macaroonpath"))
		if err != nil {
			return err
		}
		req.Header.Set("Macaroon", mac)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func readMacaroonHex(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read macaroon: %w", err)
	}
	return string(raw), nil
}

func main() {
	app := cli.NewApp()
	app.Name = "swapcli"
	app.Version = "0.1"
	app.Usage = "control plane for swapd, the escrow coordinator daemon"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rpcserver",
			Value: "localhost:8420",
			Usage: "host:port of swapd's JSON business API",
		},
		cli.BoolFlag{
			Name:  "no-macaroon",
			Usage: "disable macaroon authentication",
		},
		cli.StringFlag{
			Name:  "macaroonpath",
			Value: defaultMacaroonPath(),
			Usage: "path to a hex-encoded macaroon file",
		},
	}
	app.Commands = []cli.Command{
		registerKeysCommand,
		getRegisteredKeysCommand,
		depositCommand,
		withdrawCommand,
		balanceCommand,
		createDestinationEscrowCommand,
		initiateSourceEscrowCommand,
		claimCommand,
		cancelCommand,
		auditLedgerCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func defaultMacaroonPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "admin.macaroon"
	}
	return home + "/.swapcore/admin.macaroon"
}
