package main

import (
	"context"
	"fmt"
	"sort"
	"sync"

	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// memBank is a process-local bank: balances live only for one simulator run.
type memBank struct {
	mu       sync.Mutex
	balances map[string]sdk.Coins
	minted   sdk.Coins
}

func newMemBank() *memBank {
	return &memBank{balances: make(map[string]sdk.Coins)}
}

func (b *memBank) MintCoins(_ context.Context, moduleName string, amt sdk.Coins) error {
	if !amt.IsValid() {
		return fmt.Errorf("invalid mint amount %s", amt)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	addr := authtypes.NewModuleAddress(moduleName).String()
	b.balances[addr] = b.balances[addr].Add(amt...)
	b.minted = b.minted.Add(amt...)
	return nil
}

func (b *memBank) SendCoinsFromModuleToAccount(_ context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sender := authtypes.NewModuleAddress(senderModule).String()
	remaining, negative := b.balances[sender].SafeSub(amt...)
	if negative {
		return fmt.Errorf("module %s has %s, cannot send %s", senderModule, b.balances[sender], amt)
	}
	b.balances[sender] = remaining
	recipient := recipientAddr.String()
	b.balances[recipient] = b.balances[recipient].Add(amt...)
	return nil
}

type balanceReport struct {
	Address string `json:"address"`
	Coins   string `json:"coins"`
}

// Balances lists every non-empty balance ordered by address.
func (b *memBank) Balances() []balanceReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]balanceReport, 0, len(b.balances))
	for addr, coins := range b.balances {
		if coins.IsZero() {
			continue
		}
		out = append(out, balanceReport{Address: addr, Coins: coins.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (b *memBank) Minted() sdk.Coins {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.minted
}
