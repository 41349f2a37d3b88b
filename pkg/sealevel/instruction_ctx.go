package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.solstake.io/stakepool/pkg/safemath"
)

type InstructionCtx struct {
	ProgramAccounts     []uint64
	InstructionAccounts []InstructionAccount
	Data                []byte
	nestingLevel        uint64
}

func (instrCtx *InstructionCtx) Configure(programAccounts []uint64, instructionAccounts []InstructionAccount, data []byte) {
	instrCtx.ProgramAccounts = programAccounts
	instrCtx.InstructionAccounts = instructionAccounts
	instrCtx.Data = data
}

func (instrCtx *InstructionCtx) StackHeight() uint64 {
	return instrCtx.nestingLevel + 1
}

func (instrCtx *InstructionCtx) NumberOfProgramAccounts() uint64 {
	return uint64(len(instrCtx.ProgramAccounts))
}

func (instrCtx *InstructionCtx) NumberOfInstructionAccounts() uint64 {
	return uint64(len(instrCtx.InstructionAccounts))
}

func (instrCtx *InstructionCtx) CheckNumOfInstructionAccounts(expected uint64) error {
	if instrCtx.NumberOfInstructionAccounts() < expected {
		return InstrErrNotEnoughAccountKeys
	}
	return nil
}

func (instrCtx *InstructionCtx) IndexOfProgramAccountInTransaction(programAccountIndex uint64) (uint64, error) {
	if len(instrCtx.ProgramAccounts) == 0 || programAccountIndex > uint64(len(instrCtx.ProgramAccounts)-1) {
		return 0, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.ProgramAccounts[programAccountIndex], nil
}

func (instrCtx *InstructionCtx) IndexOfInstructionAccountInTransaction(instrAcctIdx uint64) (uint64, error) {
	if instrAcctIdx >= uint64(len(instrCtx.InstructionAccounts)) {
		return 0, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.InstructionAccounts[instrAcctIdx].IndexInTransaction, nil
}

func (instrCtx *InstructionCtx) IndexOfInstructionAccount(txCtx *TransactionCtx, pubkey solana.PublicKey) (uint64, error) {
	for idx, instrAcct := range instrCtx.InstructionAccounts {
		key, err := txCtx.KeyOfAccountAtIndex(instrAcct.IndexInTransaction)
		if err != nil {
			return 0, err
		}
		if key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (instrCtx *InstructionCtx) IsInstructionAccountSigner(instrAcctIdx uint64) (bool, error) {
	if instrAcctIdx >= uint64(len(instrCtx.InstructionAccounts)) {
		return false, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.InstructionAccounts[instrAcctIdx].IsSigner, nil
}

func (instrCtx *InstructionCtx) IsInstructionAccountWritable(instrAcctIdx uint64) (bool, error) {
	if instrAcctIdx >= uint64(len(instrCtx.InstructionAccounts)) {
		return false, InstrErrNotEnoughAccountKeys
	}
	return instrCtx.InstructionAccounts[instrAcctIdx].IsWritable, nil
}

func (instrCtx *InstructionCtx) LastProgramKey(txCtx *TransactionCtx) (solana.PublicKey, error) {
	programAccountIndex := safemath.SaturatingSubU64(instrCtx.NumberOfProgramAccounts(), 1)

	index, err := instrCtx.IndexOfProgramAccountInTransaction(programAccountIndex)
	if err != nil {
		return solana.PublicKey{}, err
	}

	return txCtx.KeyOfAccountAtIndex(index)
}

func (instrCtx *InstructionCtx) BorrowInstructionAccount(txCtx *TransactionCtx, instrAcctIdx uint64) (*BorrowedAccount, error) {
	idxInTx, err := instrCtx.IndexOfInstructionAccountInTransaction(instrAcctIdx)
	if err != nil {
		return nil, err
	}

	acct, err := txCtx.Accounts.GetAccount(idxInTx)
	if err != nil {
		return nil, err
	}

	borrowedAcct := BorrowedAccount{TxCtx: txCtx, InstrCtx: instrCtx,
		IndexInTransaction: idxInTx,
		IndexInInstruction: instrAcctIdx + instrCtx.NumberOfProgramAccounts(),
		Account:            acct}
	return &borrowedAcct, nil
}

func (instrCtx *InstructionCtx) BorrowProgramAccount(txCtx *TransactionCtx, programAcctIdx uint64) (*BorrowedAccount, error) {
	idxInTx, err := instrCtx.IndexOfProgramAccountInTransaction(programAcctIdx)
	if err != nil {
		return nil, err
	}

	acct, err := txCtx.Accounts.GetAccount(idxInTx)
	if err != nil {
		return nil, err
	}

	borrowedAcct := BorrowedAccount{TxCtx: txCtx, InstrCtx: instrCtx,
		IndexInTransaction: idxInTx,
		IndexInInstruction: programAcctIdx,
		Account:            acct}
	return &borrowedAcct, nil
}

func (instrCtx *InstructionCtx) BorrowLastProgramAccount(txCtx *TransactionCtx) (*BorrowedAccount, error) {
	programAcctIdx := safemath.SaturatingSubU64(instrCtx.NumberOfProgramAccounts(), 1)
	return instrCtx.BorrowProgramAccount(txCtx, programAcctIdx)
}

func (instrCtx *InstructionCtx) Signers(txCtx *TransactionCtx) ([]solana.PublicKey, error) {
	var signers []solana.PublicKey
	for _, instrAcct := range instrCtx.InstructionAccounts {
		if instrAcct.IsSigner {
			key, err := txCtx.KeyOfAccountAtIndex(instrAcct.IndexInTransaction)
			if err != nil {
				return nil, err
			}
			signers = append(signers, key)
		}
	}
	return signers, nil
}
