package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.solstake.io/stakepool/pkg/accounts"
	"go.solstake.io/stakepool/pkg/safemath"
)

type BorrowedAccount struct {
	TxCtx              *TransactionCtx
	InstrCtx           *InstructionCtx
	IndexInTransaction uint64
	IndexInInstruction uint64
	Account            *accounts.Account
}

func (acct *BorrowedAccount) Drop() {
	// borrows are not tracked; kept for call-site symmetry with real
	// account locking
}

func (acct *BorrowedAccount) Key() solana.PublicKey {
	key, err := acct.TxCtx.KeyOfAccountAtIndex(acct.IndexInTransaction)
	if err != nil {
		panic("supposedly impossible failure")
	}
	return key
}

func (acct *BorrowedAccount) Owner() solana.PublicKey {
	return solana.PublicKeyFromBytes(acct.Account.Owner[:])
}

func (acct *BorrowedAccount) Lamports() uint64 {
	return acct.Account.Lamports
}

func (acct *BorrowedAccount) Data() []byte {
	return acct.Account.Data
}

func (acct *BorrowedAccount) Touch() error {
	return acct.TxCtx.Accounts.Touch(acct.IndexInTransaction)
}

func (acct *BorrowedAccount) IsSigner() bool {
	instrCtx := acct.InstrCtx
	if acct.IndexInInstruction < instrCtx.NumberOfProgramAccounts() {
		return false
	}

	instrAcctIdx := safemath.SaturatingSubU64(acct.IndexInInstruction, instrCtx.NumberOfProgramAccounts())
	isSigner, err := instrCtx.IsInstructionAccountSigner(instrAcctIdx)
	if err != nil {
		return false
	}
	return isSigner
}

func (acct *BorrowedAccount) IsWritable() bool {
	instrCtx := acct.InstrCtx
	if acct.IndexInInstruction < instrCtx.NumberOfProgramAccounts() {
		return false
	}

	instrAcctIdx := safemath.SaturatingSubU64(acct.IndexInInstruction, instrCtx.NumberOfProgramAccounts())
	writable, err := instrCtx.IsInstructionAccountWritable(instrAcctIdx)
	if err != nil {
		return false
	}

	return writable
}

func (acct *BorrowedAccount) IsExecutable() bool {
	return acct.Account.IsBuiltin() || acct.Account.Executable
}

func (acct *BorrowedAccount) IsOwnedByCurrentProgram() bool {
	lastProgramKey, err := acct.InstrCtx.LastProgramKey(acct.TxCtx)
	if err != nil {
		return false
	}
	return lastProgramKey == acct.Owner()
}

func (acct *BorrowedAccount) IsZeroed() bool {
	for _, b := range acct.Account.Data {
		if b != 0 {
			return false
		}
	}
	return true
}

func (acct *BorrowedAccount) DataCanBeChanged() error {
	if acct.IsExecutable() {
		return InstrErrExecutableDataModified
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyDataModified
	}
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrExternalAccountDataModified
	}
	return nil
}

func (acct *BorrowedAccount) SetData(data []byte) error {
	err := acct.DataCanBeChanged()
	if err != nil {
		return err
	}
	err = acct.Touch()
	if err != nil {
		return err
	}

	acct.Account.SetData(data)
	return nil
}

func (acct *BorrowedAccount) SetDataLength(length uint64) error {
	err := acct.DataCanBeChanged()
	if err != nil {
		return err
	}

	if uint64(len(acct.Account.Data)) != length {
		err = acct.Touch()
		if err != nil {
			return err
		}
		acct.Account.Resize(length, 0)
	}
	return nil
}

func (acct *BorrowedAccount) SetOwner(owner solana.PublicKey) error {
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrModifiedProgramId
	}
	if !acct.IsWritable() {
		return InstrErrModifiedProgramId
	}
	if acct.IsExecutable() {
		return InstrErrModifiedProgramId
	}
	if !acct.IsZeroed() {
		return InstrErrModifiedProgramId
	}

	err := acct.Touch()
	if err != nil {
		return err
	}

	copy(acct.Account.Owner[:], owner[:])
	return nil
}

func (acct *BorrowedAccount) canChangeLamports(isSpend bool) error {
	if isSpend && !acct.IsOwnedByCurrentProgram() {
		return InstrErrExternalAccountLamportSpend
	}
	if !acct.IsWritable() {
		return InstrErrReadonlyLamportChange
	}
	if acct.IsExecutable() {
		return InstrErrExecutableLamportChange
	}
	return nil
}

func (acct *BorrowedAccount) SetLamports(lamports uint64) error {
	err := acct.canChangeLamports(lamports < acct.Account.Lamports)
	if err != nil {
		return err
	}
	err = acct.Touch()
	if err != nil {
		return err
	}
	acct.Account.Lamports = lamports
	return nil
}

func (acct *BorrowedAccount) CheckedAddLamports(lamports uint64) error {
	newLamports, err := safemath.CheckedAddU64(acct.Account.Lamports, lamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}
	return acct.SetLamports(newLamports)
}

func (acct *BorrowedAccount) CheckedSubLamports(lamports uint64) error {
	newLamports, err := safemath.CheckedSubU64(acct.Account.Lamports, lamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}
	return acct.SetLamports(newLamports)
}
