package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.solstake.io/stakepool/pkg/accounts"
)

type TxReturnData struct {
	programId solana.PublicKey
	data      []byte
}

type TransactionAccounts struct {
	Accounts []*accounts.Account
	Touched  []bool
}

func NewTransactionAccounts(accts []accounts.Account) *TransactionAccounts {
	transactionAccts := new(TransactionAccounts)
	for idx := range accts {
		acct := accts[idx]
		transactionAccts.Accounts = append(transactionAccts.Accounts, &acct)
	}
	transactionAccts.Touched = make([]bool, len(accts))
	return transactionAccts
}

func (txAccts *TransactionAccounts) GetAccount(idx uint64) (*accounts.Account, error) {
	if idx >= uint64(len(txAccts.Accounts)) {
		return nil, InstrErrNotEnoughAccountKeys
	}
	return txAccts.Accounts[idx], nil
}

func (txAccts *TransactionAccounts) Touch(idx uint64) error {
	if idx >= uint64(len(txAccts.Touched)) {
		return InstrErrNotEnoughAccountKeys
	}
	txAccts.Touched[idx] = true
	return nil
}

func (txAccts *TransactionAccounts) Len() uint64 {
	return uint64(len(txAccts.Accounts))
}

type TransactionCtx struct {
	Accounts                  TransactionAccounts
	instructionTrace          []InstructionCtx
	instructionStack          []uint64
	returnData                TxReturnData
	maxInstructionStackHeight uint64
	maxInstructionTraceLength uint64
}

func NewTestTransactionCtx(txAccounts TransactionAccounts, maxStackHeight uint64, maxTraceLength uint64) *TransactionCtx {
	return &TransactionCtx{
		Accounts:                  txAccounts,
		maxInstructionStackHeight: maxStackHeight,
		maxInstructionTraceLength: maxTraceLength,
	}
}

func (txCtx *TransactionCtx) AccountAtIndex(idx uint64) (*accounts.Account, error) {
	return txCtx.Accounts.GetAccount(idx)
}

func (txCtx *TransactionCtx) KeyOfAccountAtIndex(idx uint64) (solana.PublicKey, error) {
	acct, err := txCtx.Accounts.GetAccount(idx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return acct.Key, nil
}

func (txCtx *TransactionCtx) IndexOfAccount(pubkey solana.PublicKey) (uint64, error) {
	for idx, acct := range txCtx.Accounts.Accounts {
		if acct.Key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (txCtx *TransactionCtx) InstructionCtxStackHeight() uint64 {
	return uint64(len(txCtx.instructionStack))
}

func (txCtx *TransactionCtx) InstructionTraceLength() uint64 {
	return uint64(len(txCtx.instructionTrace))
}

func (txCtx *TransactionCtx) InstructionCtxAtIndexInTrace(idx uint64) (*InstructionCtx, error) {
	if idx >= uint64(len(txCtx.instructionTrace)) {
		return nil, InstrErrCallDepth
	}
	return &txCtx.instructionTrace[idx], nil
}

func (txCtx *TransactionCtx) InstructionCtxAtNestingLevel(level uint64) (*InstructionCtx, error) {
	if level >= uint64(len(txCtx.instructionStack)) {
		return nil, InstrErrCallDepth
	}
	return txCtx.InstructionCtxAtIndexInTrace(txCtx.instructionStack[level])
}

func (txCtx *TransactionCtx) CurrentInstructionCtx() (*InstructionCtx, error) {
	height := txCtx.InstructionCtxStackHeight()
	if height == 0 {
		return nil, InstrErrCallDepth
	}
	return txCtx.InstructionCtxAtNestingLevel(height - 1)
}

// NextInstructionCtx appends a new, unconfigured instruction ctx to the trace
// and returns it. It becomes current once pushed onto the stack.
func (txCtx *TransactionCtx) NextInstructionCtx() (*InstructionCtx, error) {
	if uint64(len(txCtx.instructionTrace)) >= txCtx.maxInstructionTraceLength {
		return nil, InstrErrMaxInstructionTraceLength
	}
	txCtx.instructionTrace = append(txCtx.instructionTrace, InstructionCtx{})
	return &txCtx.instructionTrace[len(txCtx.instructionTrace)-1], nil
}

func (txCtx *TransactionCtx) Push() error {
	if len(txCtx.instructionTrace) == 0 {
		return InstrErrCallDepth
	}
	idx := uint64(len(txCtx.instructionTrace) - 1)

	if txCtx.InstructionCtxStackHeight() >= txCtx.maxInstructionStackHeight {
		return InstrErrCallDepth
	}

	txCtx.instructionTrace[idx].nestingLevel = txCtx.InstructionCtxStackHeight()
	txCtx.instructionStack = append(txCtx.instructionStack, idx)
	return nil
}

func (txCtx *TransactionCtx) Pop() error {
	if len(txCtx.instructionStack) == 0 {
		return InstrErrCallDepth
	}
	txCtx.instructionStack = txCtx.instructionStack[:len(txCtx.instructionStack)-1]
	return nil
}

func (txCtx *TransactionCtx) SetReturnData(programId solana.PublicKey, data []byte) {
	txCtx.returnData.programId = programId
	txCtx.returnData.data = data
}

func (txCtx *TransactionCtx) GetReturnData() (solana.PublicKey, []byte) {
	return txCtx.returnData.programId, txCtx.returnData.data
}
