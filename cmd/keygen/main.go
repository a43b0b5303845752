// Command keygen generates a wallet keypair file in the standard
// solana-keygen JSON format and prints the public address.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

func main() {
	outPath := flag.String("out", "wallet.json", "where to write the keypair file")
	force := flag.Bool("force", false, "overwrite an existing file")
	flag.Parse()

	if !*force {
		if _, err := os.Stat(*outPath); err == nil {
			fmt.Fprintf(os.Stderr, "%s already exists, refusing to overwrite (use -force)\n", *outPath)
			os.Exit(1)
		}
	}

	wallet := solana.NewWallet()
	raw := make([]int, len(wallet.PrivateKey))
	for i, b := range wallet.PrivateKey {
		raw[i] = int(b)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode keypair: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, data, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "write keypair: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Keypair generated ===")
	fmt.Println()
	fmt.Printf("address: %s\n", wallet.PublicKey())
	fmt.Printf("file:    %s\n", *outPath)
	fmt.Println()
	fmt.Println("Point keypair_path in config.yaml (or VAULT_KEYPAIR) at this file.")
	fmt.Println("Fund the address with SOL before depositing.")
}
