package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.solstake.io/stakepool/pkg/base58"
)

const NativeLoaderAddrStr = "NativeLoader1111111111111111111111111111111"

var NativeLoaderAddr = base58.MustDecodeFromString(NativeLoaderAddrStr)

const SystemProgramAddrStr = "11111111111111111111111111111111"

var SystemProgramAddr = base58.MustDecodeFromString(SystemProgramAddrStr)

const TokenProgramAddrStr = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

var TokenProgramAddr = base58.MustDecodeFromString(TokenProgramAddrStr)

const Token2022ProgramAddrStr = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"

var Token2022ProgramAddr = base58.MustDecodeFromString(Token2022ProgramAddrStr)

const StakePoolProgramAddrStr = "SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy"

var StakePoolProgramAddr = base58.MustDecodeFromString(StakePoolProgramAddrStr)

func resolveNativeProgramById(programId solana.PublicKey) (func(ctx *ExecutionCtx) error, error) {

	switch [32]byte(programId) {
	case SystemProgramAddr:
		return SystemProgramExecute, nil
	case TokenProgramAddr:
		return TokenProgramExecute, nil
	case Token2022ProgramAddr:
		return TokenProgramExecute, nil
	case StakePoolProgramAddr:
		return StakePoolProgramExecute, nil
	}

	return nil, InstrErrUnsupportedProgramId
}

func verifySigner(authorized solana.PublicKey, signers []solana.PublicKey) error {
	for _, signer := range signers {
		if signer == authorized {
			return nil
		}
	}
	return InstrErrMissingRequiredSignature
}
