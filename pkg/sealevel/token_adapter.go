package sealevel

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// Extensions that break the pool's security model if present on a mint.
// TransferFeeConfig is deliberately absent: fee-charging mints are supported
// through balance-delta accounting in transferTokensWithFee.
var unsafeMintExtensions = map[uint16]string{
	TokenExtensionMintCloseAuthority:   "MintCloseAuthority",
	TokenExtensionConfidentialTransfer: "ConfidentialTransfer",
	TokenExtensionDefaultAccountState:  "DefaultAccountState",
	TokenExtensionPermanentDelegate:    "PermanentDelegate",
	TokenExtensionTransferHook:         "TransferHook",
	TokenExtensionMetadataPointer:      "MetadataPointer",
	TokenExtensionGroupPointer:         "GroupPointer",
	TokenExtensionGroupMemberPointer:   "GroupMemberPointer",
}

// validateMintSafety rejects mints whose configuration lets a third party
// seize or freeze user deposits: a freeze authority, or any extension from
// the deny list.
func validateMintSafety(mintData []byte, mintName string) error {
	mint, err := unmarshalTokenMint(mintData)
	if err != nil {
		return StakePoolErrInvalidTokenProgram
	}

	if mint.FreezeAuthority != nil {
		klog.Errorf("%s has a freeze authority set: %s", mintName, *mint.FreezeAuthority)
		return StakePoolErrMintHasFreezeAuthority
	}

	extensions, err := parseTokenExtensions(mintData)
	if err != nil {
		return StakePoolErrInvalidTokenProgram
	}

	for _, ext := range extensions {
		if name, unsafe := unsafeMintExtensions[ext.ExtensionType]; unsafe {
			klog.Errorf("%s has unsafe token extension: %s", mintName, name)
			return StakePoolErrUnsafeTokenExtension
		}
	}

	return nil
}

// verifyTokenAccountMint checks that a token account belongs to the
// expected mint.
func verifyTokenAccountMint(tokenAcctData []byte, expectedMint solana.PublicKey) error {
	tokenAcct, err := unmarshalTokenAccount(tokenAcctData)
	if err != nil {
		return StakePoolErrInvalidTokenProgram
	}

	if tokenAcct.Mint != expectedMint {
		return StakePoolErrInvalidMint
	}

	return nil
}

// verifyVaultOwnership checks that a vault token account is owned by the
// pool PDA, so only this program can authorize transfers out of it.
func verifyVaultOwnership(tokenAcctData []byte, expectedOwner solana.PublicKey, acctName string) error {
	tokenAcct, err := unmarshalTokenAccount(tokenAcctData)
	if err != nil {
		return StakePoolErrInvalidTokenProgram
	}

	if tokenAcct.Owner != expectedOwner {
		klog.Errorf("%s token account owner mismatch: expected %s, got %s", acctName, expectedOwner, tokenAcct.Owner)
		return StakePoolErrInvalidVaultOwner
	}

	return nil
}

func tokenAccountBalance(tokenAcctData []byte) (uint64, error) {
	tokenAcct, err := unmarshalTokenAccount(tokenAcctData)
	if err != nil {
		return 0, StakePoolErrInvalidTokenProgram
	}
	return tokenAcct.Amount, nil
}

func transactionAccountData(execCtx *ExecutionCtx, pubkey solana.PublicKey) ([]byte, error) {
	txCtx := execCtx.TransactionContext

	idx, err := txCtx.IndexOfAccount(pubkey)
	if err != nil {
		return nil, err
	}

	acct, err := txCtx.Accounts.GetAccount(idx)
	if err != nil {
		return nil, err
	}

	return acct.Data, nil
}

// transferTokensWithFee moves amount from source to dest via the token
// program and returns the amount the destination actually received. The
// destination balance is snapshotted before and after the transfer; for
// fee-charging mints the delta is smaller than the requested amount, and
// all downstream accounting must use the delta. The extra pubkeys in
// signers stand in for PDA-derived signing authority.
func transferTokensWithFee(execCtx *ExecutionCtx, tokenProgram solana.PublicKey, source solana.PublicKey, mint solana.PublicKey, dest solana.PublicKey, authority solana.PublicKey, amount uint64, signers []solana.PublicKey) (uint64, error) {
	mintData, err := transactionAccountData(execCtx, mint)
	if err != nil {
		return 0, err
	}

	mintState, err := unmarshalTokenMint(mintData)
	if err != nil {
		return 0, StakePoolErrInvalidTokenProgram
	}

	destDataBefore, err := transactionAccountData(execCtx, dest)
	if err != nil {
		return 0, err
	}

	balanceBefore, err := tokenAccountBalance(destDataBefore)
	if err != nil {
		return 0, err
	}

	instr := newTransferCheckedInstruction(tokenProgram, source, mint, dest, authority, amount, mintState.Decimals)

	err = execCtx.NativeInvoke(*instr, signers)
	if err != nil {
		return 0, err
	}

	destDataAfter, err := transactionAccountData(execCtx, dest)
	if err != nil {
		return 0, err
	}

	balanceAfter, err := tokenAccountBalance(destDataAfter)
	if err != nil {
		return 0, err
	}

	if balanceAfter < balanceBefore {
		return 0, StakePoolErrUnexpectedBalanceChange
	}

	received := balanceAfter - balanceBefore
	if received > amount || (amount > 0 && received == 0) {
		klog.Errorf("unexpected balance change: requested %d, destination received %d", amount, received)
		return 0, StakePoolErrUnexpectedBalanceChange
	}

	return received, nil
}

// unmarshalTransferFeeConfig extracts the transfer fee schedule from a
// Token-2022 mint, if present.
func unmarshalTransferFeeConfig(mintData []byte) (*TransferFeeConfig, error) {
	extensions, err := parseTokenExtensions(mintData)
	if err != nil {
		return nil, err
	}

	for _, ext := range extensions {
		if ext.ExtensionType == TokenExtensionTransferFeeConfig {
			var cfg TransferFeeConfig
			err = cfg.UnmarshalWithDecoder(bin.NewBinDecoder(ext.Data))
			if err != nil {
				return nil, err
			}
			return &cfg, nil
		}
	}

	return nil, nil
}
