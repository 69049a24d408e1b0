// escrowd is a local harness for the job escrow program.
//
// It runs the program against a persistent Badger account store, applying
// instruction scripts described in JSON, and can export, restore, and
// digest the resulting ledger state.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/NoleMoltCities/moltcities-escrow/pkg/accounts"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/bank"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/escrow"
	"github.com/NoleMoltCities/moltcities-escrow/pkg/types"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

var (
	dataDir     = flag.String("data-dir", "./escrowd-data", "Data directory for the account store")
	scriptFile  = flag.String("script", "", "JSON instruction script to execute")
	snapshotOut = flag.String("snapshot-out", "", "Write a zstd snapshot of the store to this path")
	restoreFrom = flag.String("restore", "", "Restore the store from a zstd snapshot before running")
	printDigest = flag.Bool("digest", false, "Print the program state digest after running")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// script is the JSON shape escrowd executes.
type script struct {
	Clock struct {
		UnixTimestamp int64  `json:"unix_timestamp"`
		Slot          uint64 `json:"slot"`
	} `json:"clock"`
	SlotHashes []struct {
		Slot uint64 `json:"slot"`
		Hash string `json:"hash"`
	} `json:"slot_hashes"`
	Airdrops []struct {
		Pubkey   string `json:"pubkey"`
		Lamports uint64 `json:"lamports"`
	} `json:"airdrops"`
	Transactions []struct {
		Accounts []struct {
			Pubkey   string `json:"pubkey"`
			Signer   bool   `json:"signer"`
			Writable bool   `json:"writable"`
		} `json:"accounts"`
		DataHex string `json:"data_hex"`
	} `json:"transactions"`
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("escrowd %s (%s)\n", Version, GitCommit)
		return
	}

	db, err := accounts.NewBadgerDB(*dataDir)
	if err != nil {
		log.Fatalf("open account store: %v", err)
	}
	defer db.Close()

	if *restoreFrom != "" {
		f, err := os.Open(*restoreFrom)
		if err != nil {
			log.Fatalf("open snapshot: %v", err)
		}
		if err := accounts.ReadSnapshot(db, f); err != nil {
			f.Close()
			log.Fatalf("restore snapshot: %v", err)
		}
		f.Close()
		log.Printf("restored %d accounts from %s", db.GetAccountsCount(), *restoreFrom)
	}

	b := bank.New(db, escrow.New())

	if *scriptFile != "" {
		if err := runScript(b, db, *scriptFile); err != nil {
			log.Fatalf("script failed: %v", err)
		}
	}

	if *printDigest {
		digest, err := b.StateDigest()
		if err != nil {
			log.Fatalf("state digest: %v", err)
		}
		fmt.Printf("state digest: %s\n", digest.Hex())
	}

	if *snapshotOut != "" {
		f, err := os.Create(*snapshotOut)
		if err != nil {
			log.Fatalf("create snapshot: %v", err)
		}
		if err := accounts.WriteSnapshot(db, f); err != nil {
			f.Close()
			log.Fatalf("write snapshot: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("close snapshot: %v", err)
		}
		log.Printf("wrote snapshot of %d accounts to %s", db.GetAccountsCount(), *snapshotOut)
	}
}

func runScript(b *bank.Bank, db accounts.AccountsDB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var s script
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("parse script: %w", err)
	}

	b.SetClock(s.Clock.UnixTimestamp, s.Clock.Slot)
	for _, sh := range s.SlotHashes {
		hash, err := types.HashFromBase58(sh.Hash)
		if err != nil {
			return fmt.Errorf("slot hash: %w", err)
		}
		b.PushSlotHash(sh.Slot, hash)
	}

	for _, drop := range s.Airdrops {
		pk, err := types.PubkeyFromBase58(drop.Pubkey)
		if err != nil {
			return fmt.Errorf("airdrop pubkey: %w", err)
		}
		acc, err := db.GetAccount(pk)
		if err != nil {
			return err
		}
		if acc == nil {
			acc = types.NewAccount(0, types.SystemProgramID)
		}
		acc.Lamports += types.Lamports(drop.Lamports)
		if err := db.SetAccount(pk, acc); err != nil {
			return err
		}
	}

	for i, tx := range s.Transactions {
		metas := make([]bank.AccountMeta, len(tx.Accounts))
		for j, a := range tx.Accounts {
			pk, err := types.PubkeyFromBase58(a.Pubkey)
			if err != nil {
				return fmt.Errorf("tx %d account %d: %w", i, j, err)
			}
			metas[j] = bank.AccountMeta{Pubkey: pk, IsSigner: a.Signer, IsWritable: a.Writable}
		}
		data, err := hex.DecodeString(tx.DataHex)
		if err != nil {
			return fmt.Errorf("tx %d data: %w", i, err)
		}
		logs, err := b.Execute(&bank.Transaction{Accounts: metas, Data: data})
		if err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
		for _, l := range logs {
			log.Printf("tx %d: %s", i, l)
		}
	}
	log.Printf("executed %d transactions", len(s.Transactions))
	return nil
}
