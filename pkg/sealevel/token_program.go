package sealevel

import (
	"bytes"
	"errors"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

const (
	TokenProgramInstrTypeTransferChecked = 12
)

var (
	TokenErrMintMismatch         = errors.New("TokenErrMintMismatch")
	TokenErrOwnerMismatch        = errors.New("TokenErrOwnerMismatch")
	TokenErrInsufficientFunds    = errors.New("TokenErrInsufficientFunds")
	TokenErrAccountFrozen        = errors.New("TokenErrAccountFrozen")
	TokenErrDecimalsMismatch     = errors.New("TokenErrDecimalsMismatch")
	TokenErrInvalidInstruction   = errors.New("TokenErrInvalidInstruction")
)

type TokenInstrTransferChecked struct {
	Amount   uint64
	Decimals byte
}

func (instr *TokenInstrTransferChecked) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.Amount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return TokenErrInvalidInstruction
	}

	instr.Decimals, err = decoder.ReadByte()
	if err != nil {
		return TokenErrInvalidInstruction
	}

	return nil
}

func (instr *TokenInstrTransferChecked) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(TokenProgramInstrTypeTransferChecked)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.Amount, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteByte(instr.Decimals)
}

func newTransferCheckedInstruction(tokenProgram solana.PublicKey, source solana.PublicKey, mint solana.PublicKey, dest solana.PublicKey, authority solana.PublicKey, amount uint64, decimals byte) *Instruction {
	var accountMetas []AccountMeta
	accountMetas = append(accountMetas, AccountMeta{Pubkey: source, IsSigner: false, IsWritable: true})
	accountMetas = append(accountMetas, AccountMeta{Pubkey: mint, IsSigner: false, IsWritable: false})
	accountMetas = append(accountMetas, AccountMeta{Pubkey: dest, IsSigner: false, IsWritable: true})
	accountMetas = append(accountMetas, AccountMeta{Pubkey: authority, IsSigner: true, IsWritable: false})

	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)

	transferInstr := TokenInstrTransferChecked{Amount: amount, Decimals: decimals}
	err := transferInstr.MarshalWithEncoder(encoder)
	if err != nil {
		panic("shouldn't fail")
	}

	instr := &Instruction{Accounts: accountMetas, Data: buf.Bytes(), ProgramId: tokenProgram}
	return instr
}

func TokenProgramExecute(execCtx *ExecutionCtx) error {
	err := execCtx.ComputeMeter.Consume(CUTokenProgramDefaultComputeUnits)
	if err != nil {
		return err
	}

	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	if len(instrCtx.Data) == 0 {
		return TokenErrInvalidInstruction
	}

	decoder := bin.NewBinDecoder(instrCtx.Data)
	instructionType, err := decoder.ReadByte()
	if err != nil {
		return TokenErrInvalidInstruction
	}

	switch instructionType {

	case TokenProgramInstrTypeTransferChecked:
		{
			var transfer TokenInstrTransferChecked
			err = transfer.UnmarshalWithDecoder(decoder)
			if err != nil {
				return err
			}
			err = tokenProgramTransferChecked(execCtx, transfer.Amount, transfer.Decimals)
		}

	default:
		return TokenErrInvalidInstruction
	}

	return err
}

func tokenProgramTransferChecked(execCtx *ExecutionCtx, amount uint64, decimals byte) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(4)
	if err != nil {
		return err
	}

	programId, err := instrCtx.LastProgramKey(txCtx)
	if err != nil {
		return err
	}

	signers, err := instrCtx.Signers(txCtx)
	if err != nil {
		return err
	}

	sourceAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer sourceAcct.Drop()

	mintAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	defer mintAcct.Drop()

	destAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 2)
	if err != nil {
		return err
	}
	defer destAcct.Drop()

	authority, err := extractAddress(txCtx, instrCtx, 3)
	if err != nil {
		return err
	}

	if sourceAcct.Owner() != programId || destAcct.Owner() != programId || mintAcct.Owner() != programId {
		return InstrErrIncorrectProgramId
	}

	source, err := unmarshalTokenAccount(sourceAcct.Data())
	if err != nil {
		return err
	}

	dest, err := unmarshalTokenAccount(destAcct.Data())
	if err != nil {
		return err
	}

	mintKey := mintAcct.Key()
	if source.Mint != mintKey || dest.Mint != mintKey {
		return TokenErrMintMismatch
	}

	mint, err := unmarshalTokenMint(mintAcct.Data())
	if err != nil {
		return err
	}

	if mint.Decimals != decimals {
		return TokenErrDecimalsMismatch
	}

	if source.State == TokenAccountStateFrozen || dest.State == TokenAccountStateFrozen {
		return TokenErrAccountFrozen
	}

	err = verifySigner(source.Owner, signers)
	if err != nil {
		klog.Errorf("TransferChecked: authority %s is not the source owner", authority)
		return TokenErrOwnerMismatch
	}

	if amount > source.Amount {
		return TokenErrInsufficientFunds
	}

	// token-2022 withholds the transfer fee on the destination side
	var fee uint64
	if [32]byte(programId) == Token2022ProgramAddr {
		extensions, err := parseTokenExtensions(mintAcct.Data())
		if err != nil {
			return err
		}
		for _, ext := range extensions {
			if ext.ExtensionType == TokenExtensionTransferFeeConfig {
				var feeConfig TransferFeeConfig
				err = feeConfig.UnmarshalWithDecoder(bin.NewBinDecoder(ext.Data))
				if err != nil {
					return err
				}
				clock := ReadClockSysvar(&execCtx.Accounts)
				fee = feeConfig.CalculateFee(clock.Epoch, amount)
				break
			}
		}
	}

	if fee > amount {
		return TokenErrInsufficientFunds
	}

	source.Amount -= amount
	dest.Amount += amount - fee

	sourceData := make([]byte, len(sourceAcct.Data()))
	copy(sourceData, sourceAcct.Data())
	err = marshalTokenAccountInto(source, sourceData)
	if err != nil {
		return err
	}
	err = sourceAcct.SetData(sourceData)
	if err != nil {
		return err
	}

	destData := make([]byte, len(destAcct.Data()))
	copy(destData, destAcct.Data())
	err = marshalTokenAccountInto(dest, destData)
	if err != nil {
		return err
	}

	return destAcct.SetData(destData)
}
