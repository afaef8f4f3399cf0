package types

import (
	"fmt"
	stdmath "math"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// x/subnetemission module sentinel errors
var (
	ErrInvalidSigner           = errorsmod.Register(ModuleName, 1100, "expected gov account as only signer for proposal message")
	ErrSubnetNotFound          = errorsmod.Register(ModuleName, 1101, "subnet not found")
	ErrSubnetAlreadyExists     = errorsmod.Register(ModuleName, 1102, "subnet already exists")
	ErrModuleNotFound          = errorsmod.Register(ModuleName, 1103, "module not found")
	ErrModuleAlreadyRegistered = errorsmod.Register(ModuleName, 1104, "module already registered")
	ErrInvalidWeights          = errorsmod.Register(ModuleName, 1105, "invalid weights")
	ErrInvalidParams           = errorsmod.Register(ModuleName, 1106, "invalid params")
	ErrInvalidDelegationFee    = errorsmod.Register(ModuleName, 1107, "invalid delegation fee")
	ErrStructural              = errorsmod.Register(ModuleName, 1110, "structural mismatch in subnet state")
	ErrBalanceConversionFailed = errorsmod.Register(ModuleName, 1111, "balance conversion failed")
	ErrEmittedMoreThanExpected = errorsmod.Register(ModuleName, 1112, "emitted more than expected")
)

// EmittedMoreThanExpectedError carries the amounts of a failed conservation check.
type EmittedMoreThanExpectedError struct {
	Emitted  uint64
	Expected uint64
}

func (e *EmittedMoreThanExpectedError) Error() string {
	return fmt.Sprintf("%s: emitted %d, expected at most %d", ErrEmittedMoreThanExpected.Error(), e.Emitted, e.Expected)
}

func (e *EmittedMoreThanExpectedError) Unwrap() error {
	return ErrEmittedMoreThanExpected
}

// BalanceCoins converts a token amount into coins of denom. Amounts outside
// the signed 64-bit balance range are rejected.
func BalanceCoins(denom string, amount uint64) (sdk.Coins, error) {
	if err := sdk.ValidateDenom(denom); err != nil {
		return nil, errorsmod.Wrapf(ErrBalanceConversionFailed, "denom %q: %s", denom, err)
	}
	if amount > stdmath.MaxInt64 {
		return nil, errorsmod.Wrapf(ErrBalanceConversionFailed, "amount %d exceeds balance range", amount)
	}
	return sdk.NewCoins(sdk.NewCoin(denom, math.NewIntFromUint64(amount))), nil
}
