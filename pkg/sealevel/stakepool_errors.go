package sealevel

import "errors"

// Program errors surfaced as custom error codes. The numbering is part of
// the program's external contract and must stay stable.
var (
	StakePoolErrDeserializationError            = errors.New("StakePoolErrDeserializationError")
	StakePoolErrSerializationError              = errors.New("StakePoolErrSerializationError")
	StakePoolErrInvalidProgramOwner             = errors.New("StakePoolErrInvalidProgramOwner")
	StakePoolErrInvalidPda                      = errors.New("StakePoolErrInvalidPda")
	StakePoolErrExpectedEmptyAccount            = errors.New("StakePoolErrExpectedEmptyAccount")
	StakePoolErrExpectedNonEmptyAccount         = errors.New("StakePoolErrExpectedNonEmptyAccount")
	StakePoolErrExpectedSignerAccount           = errors.New("StakePoolErrExpectedSignerAccount")
	StakePoolErrExpectedWritableAccount         = errors.New("StakePoolErrExpectedWritableAccount")
	StakePoolErrAccountMismatch                 = errors.New("StakePoolErrAccountMismatch")
	StakePoolErrInvalidAccountKey               = errors.New("StakePoolErrInvalidAccountKey")
	StakePoolErrNumericalOverflow               = errors.New("StakePoolErrNumericalOverflow")
	StakePoolErrPoolPaused                      = errors.New("StakePoolErrPoolPaused")
	StakePoolErrAmountBelowMinimum              = errors.New("StakePoolErrAmountBelowMinimum")
	StakePoolErrInsufficientStakedBalance       = errors.New("StakePoolErrInsufficientStakedBalance")
	StakePoolErrLockupNotExpired                = errors.New("StakePoolErrLockupNotExpired")
	StakePoolErrInsufficientRewards             = errors.New("StakePoolErrInsufficientRewards")
	StakePoolErrUnauthorized                    = errors.New("StakePoolErrUnauthorized")
	StakePoolErrInvalidTokenProgram             = errors.New("StakePoolErrInvalidTokenProgram")
	StakePoolErrInvalidMint                     = errors.New("StakePoolErrInvalidMint")
	StakePoolErrInvalidAccountDiscriminator     = errors.New("StakePoolErrInvalidAccountDiscriminator")
	StakePoolErrPoolParametersChanged           = errors.New("StakePoolErrPoolParametersChanged")
	StakePoolErrNoPendingAuthority              = errors.New("StakePoolErrNoPendingAuthority")
	StakePoolErrInvalidPendingAuthority         = errors.New("StakePoolErrInvalidPendingAuthority")
	StakePoolErrPoolEnded                       = errors.New("StakePoolErrPoolEnded")
	StakePoolErrInvalidParameters               = errors.New("StakePoolErrInvalidParameters")
	StakePoolErrInvalidVaultOwner               = errors.New("StakePoolErrInvalidVaultOwner")
	StakePoolErrUnsafeTokenExtension            = errors.New("StakePoolErrUnsafeTokenExtension")
	StakePoolErrUnexpectedBalanceChange         = errors.New("StakePoolErrUnexpectedBalanceChange")
	StakePoolErrMintHasFreezeAuthority          = errors.New("StakePoolErrMintHasFreezeAuthority")
	StakePoolErrRewardRateChangeDelayNotElapsed = errors.New("StakePoolErrRewardRateChangeDelayNotElapsed")
	StakePoolErrNoPendingRewardRateChange       = errors.New("StakePoolErrNoPendingRewardRateChange")
	StakePoolErrPendingRewardRateChangeExists   = errors.New("StakePoolErrPendingRewardRateChangeExists")
	StakePoolErrInvalidTimestamp                = errors.New("StakePoolErrInvalidTimestamp")
	StakePoolErrDataCorruption                  = errors.New("StakePoolErrDataCorruption")
	StakePoolErrAccountSizeTooSmall             = errors.New("StakePoolErrAccountSizeTooSmall")
	StakePoolErrCreatorAlreadyAuthorized        = errors.New("StakePoolErrCreatorAlreadyAuthorized")
	StakePoolErrMaxAuthorizedCreatorsReached    = errors.New("StakePoolErrMaxAuthorizedCreatorsReached")
	StakePoolErrCannotRemoveMainAuthority       = errors.New("StakePoolErrCannotRemoveMainAuthority")
	StakePoolErrCreatorNotFound                 = errors.New("StakePoolErrCreatorNotFound")
	StakePoolErrUnauthorizedPoolCreator         = errors.New("StakePoolErrUnauthorizedPoolCreator")
	StakePoolErrInvalidLockupPeriod             = errors.New("StakePoolErrInvalidLockupPeriod")
)

var stakePoolErrCodes = map[error]uint32{
	StakePoolErrDeserializationError:            0,
	StakePoolErrSerializationError:              1,
	StakePoolErrInvalidProgramOwner:             2,
	StakePoolErrInvalidPda:                      3,
	StakePoolErrExpectedEmptyAccount:            4,
	StakePoolErrExpectedNonEmptyAccount:         5,
	StakePoolErrExpectedSignerAccount:           6,
	StakePoolErrExpectedWritableAccount:         7,
	StakePoolErrAccountMismatch:                 8,
	StakePoolErrInvalidAccountKey:               9,
	StakePoolErrNumericalOverflow:               10,
	StakePoolErrPoolPaused:                      11,
	StakePoolErrAmountBelowMinimum:              12,
	StakePoolErrInsufficientStakedBalance:       13,
	StakePoolErrLockupNotExpired:                14,
	StakePoolErrInsufficientRewards:             15,
	StakePoolErrUnauthorized:                    16,
	StakePoolErrInvalidTokenProgram:             17,
	StakePoolErrInvalidMint:                     18,
	StakePoolErrInvalidAccountDiscriminator:     19,
	StakePoolErrPoolParametersChanged:           20,
	StakePoolErrNoPendingAuthority:              21,
	StakePoolErrInvalidPendingAuthority:         22,
	StakePoolErrPoolEnded:                       23,
	StakePoolErrInvalidParameters:               24,
	StakePoolErrInvalidVaultOwner:               25,
	StakePoolErrUnsafeTokenExtension:            26,
	StakePoolErrUnexpectedBalanceChange:         27,
	StakePoolErrMintHasFreezeAuthority:          28,
	StakePoolErrRewardRateChangeDelayNotElapsed: 29,
	StakePoolErrNoPendingRewardRateChange:       30,
	StakePoolErrPendingRewardRateChangeExists:   31,
	StakePoolErrInvalidTimestamp:                32,
	StakePoolErrDataCorruption:                  33,
	StakePoolErrAccountSizeTooSmall:             34,
	StakePoolErrCreatorAlreadyAuthorized:        35,
	StakePoolErrMaxAuthorizedCreatorsReached:    36,
	StakePoolErrCannotRemoveMainAuthority:       37,
	StakePoolErrCreatorNotFound:                 38,
	StakePoolErrUnauthorizedPoolCreator:         39,
	StakePoolErrInvalidLockupPeriod:             40,
}

// StakePoolErrCode returns the custom error code for a program error, and
// whether the error is one of the program's own variants.
func StakePoolErrCode(err error) (uint32, bool) {
	code, ok := stakePoolErrCodes[err]
	return code, ok
}
