package sealevel

import (
	"bytes"
	"errors"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const TokenMintLen = 82
const TokenAccountLen = 165

// account type byte appended after the base layout by token-2022
const (
	TokenAccountTypeUninitialized = 0
	TokenAccountTypeMint          = 1
	TokenAccountTypeAccount       = 2
)

const (
	TokenAccountStateUninitialized = 0
	TokenAccountStateInitialized   = 1
	TokenAccountStateFrozen        = 2
)

// token-2022 extension type identifiers
const (
	TokenExtensionTransferFeeConfig       = 1
	TokenExtensionMintCloseAuthority      = 3
	TokenExtensionConfidentialTransfer    = 4
	TokenExtensionDefaultAccountState     = 6
	TokenExtensionPermanentDelegate       = 12
	TokenExtensionTransferHook            = 14
	TokenExtensionMetadataPointer         = 18
	TokenExtensionGroupPointer            = 20
	TokenExtensionGroupMemberPointer      = 22
)

var (
	TokenErrInvalidAccountData = errors.New("TokenErrInvalidAccountData")
	TokenErrUninitialized      = errors.New("TokenErrUninitialized")
)

type TokenMint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        byte
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

type TokenAccount struct {
	Mint            solana.PublicKey
	Owner           solana.PublicKey
	Amount          uint64
	Delegate        *solana.PublicKey
	State           byte
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  *solana.PublicKey
}

type TokenExtension struct {
	ExtensionType uint16
	Data          []byte
}

type TransferFeeConfig struct {
	TransferFeeConfigAuthority solana.PublicKey
	WithdrawWithheldAuthority  solana.PublicKey
	WithheldAmount             uint64
	OlderTransferFee           TransferFee
	NewerTransferFee           TransferFee
}

type TransferFee struct {
	Epoch                  uint64
	MaximumFee             uint64
	TransferFeeBasisPoints uint16
}

func decodeCOptionPubkey(decoder *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}

	pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, err
	}

	if tag == 0 {
		return nil, nil
	}

	var pk solana.PublicKey
	copy(pk[:], pkBytes)
	return &pk, nil
}

func encodeCOptionPubkey(encoder *bin.Encoder, pk *solana.PublicKey) error {
	if pk != nil {
		err := encoder.WriteUint32(1, bin.LE)
		if err != nil {
			return err
		}
		return encoder.WriteBytes(pk[:], false)
	}

	err := encoder.WriteUint32(0, bin.LE)
	if err != nil {
		return err
	}
	var zero solana.PublicKey
	return encoder.WriteBytes(zero[:], false)
}

func (mint *TokenMint) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	mint.MintAuthority, err = decodeCOptionPubkey(decoder)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	mint.Supply, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	mint.Decimals, err = decoder.ReadByte()
	if err != nil {
		return TokenErrInvalidAccountData
	}

	initByte, err := decoder.ReadByte()
	if err != nil {
		return TokenErrInvalidAccountData
	}
	mint.IsInitialized = initByte != 0

	mint.FreezeAuthority, err = decodeCOptionPubkey(decoder)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	return nil
}

func (mint *TokenMint) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encodeCOptionPubkey(encoder, mint.MintAuthority)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(mint.Supply, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteByte(mint.Decimals)
	if err != nil {
		return err
	}

	var initByte byte
	if mint.IsInitialized {
		initByte = 1
	}
	err = encoder.WriteByte(initByte)
	if err != nil {
		return err
	}

	return encodeCOptionPubkey(encoder, mint.FreezeAuthority)
}

func (acct *TokenAccount) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	mintBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return TokenErrInvalidAccountData
	}
	copy(acct.Mint[:], mintBytes)

	ownerBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return TokenErrInvalidAccountData
	}
	copy(acct.Owner[:], ownerBytes)

	acct.Amount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	acct.Delegate, err = decodeCOptionPubkey(decoder)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	acct.State, err = decoder.ReadByte()
	if err != nil {
		return TokenErrInvalidAccountData
	}

	isNativeTag, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return TokenErrInvalidAccountData
	}
	isNativeVal, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return TokenErrInvalidAccountData
	}
	if isNativeTag != 0 {
		acct.IsNative = &isNativeVal
	}

	acct.DelegatedAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	acct.CloseAuthority, err = decodeCOptionPubkey(decoder)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	return nil
}

func (acct *TokenAccount) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(acct.Mint[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(acct.Owner[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(acct.Amount, bin.LE)
	if err != nil {
		return err
	}

	err = encodeCOptionPubkey(encoder, acct.Delegate)
	if err != nil {
		return err
	}

	err = encoder.WriteByte(acct.State)
	if err != nil {
		return err
	}

	var isNativeTag uint32
	var isNativeVal uint64
	if acct.IsNative != nil {
		isNativeTag = 1
		isNativeVal = *acct.IsNative
	}
	err = encoder.WriteUint32(isNativeTag, bin.LE)
	if err != nil {
		return err
	}
	err = encoder.WriteUint64(isNativeVal, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(acct.DelegatedAmount, bin.LE)
	if err != nil {
		return err
	}

	return encodeCOptionPubkey(encoder, acct.CloseAuthority)
}

func unmarshalTokenMint(data []byte) (*TokenMint, error) {
	if len(data) < TokenMintLen {
		return nil, TokenErrInvalidAccountData
	}

	decoder := bin.NewBinDecoder(data[:TokenMintLen])

	var mint TokenMint
	err := mint.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, err
	}

	if !mint.IsInitialized {
		return nil, TokenErrUninitialized
	}

	return &mint, nil
}

func unmarshalTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) < TokenAccountLen {
		return nil, TokenErrInvalidAccountData
	}

	decoder := bin.NewBinDecoder(data[:TokenAccountLen])

	var acct TokenAccount
	err := acct.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, err
	}

	if acct.State == TokenAccountStateUninitialized {
		return nil, TokenErrUninitialized
	}

	return &acct, nil
}

func marshalTokenAccountInto(acct *TokenAccount, data []byte) error {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)

	err := acct.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}

	if len(data) < TokenAccountLen {
		return TokenErrInvalidAccountData
	}

	copy(data[:TokenAccountLen], buf.Bytes())
	return nil
}

// parseTokenExtensions walks the TLV records following the base mint or
// account layout. Mints are padded up to TokenAccountLen, then both kinds
// carry an account type byte followed by the TLV records.
func parseTokenExtensions(data []byte) ([]TokenExtension, error) {
	if uint64(len(data)) <= TokenAccountLen {
		return nil, nil
	}

	acctType := data[TokenAccountLen]
	if acctType != TokenAccountTypeMint && acctType != TokenAccountTypeAccount {
		return nil, TokenErrInvalidAccountData
	}

	var extensions []TokenExtension
	pos := uint64(TokenAccountLen + 1)

	for pos+4 <= uint64(len(data)) {
		extType := uint16(data[pos]) | uint16(data[pos+1])<<8
		extLen := uint64(data[pos+2]) | uint64(data[pos+3])<<8
		pos += 4

		if pos+extLen > uint64(len(data)) {
			return nil, TokenErrInvalidAccountData
		}

		if extType != 0 {
			extensions = append(extensions, TokenExtension{ExtensionType: extType, Data: data[pos : pos+extLen]})
		}
		pos += extLen
	}

	return extensions, nil
}

func (cfg *TransferFeeConfig) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	authBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return TokenErrInvalidAccountData
	}
	copy(cfg.TransferFeeConfigAuthority[:], authBytes)

	withdrawBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return TokenErrInvalidAccountData
	}
	copy(cfg.WithdrawWithheldAuthority[:], withdrawBytes)

	cfg.WithheldAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	err = cfg.OlderTransferFee.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}

	return cfg.NewerTransferFee.UnmarshalWithDecoder(decoder)
}

func (fee *TransferFee) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	fee.Epoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	fee.MaximumFee, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	fee.TransferFeeBasisPoints, err = decoder.ReadUint16(bin.LE)
	if err != nil {
		return TokenErrInvalidAccountData
	}

	return nil
}

// CalculateFee computes the fee withheld on a transfer of amount, using the
// fee schedule active at the given epoch.
func (cfg *TransferFeeConfig) CalculateFee(epoch uint64, amount uint64) uint64 {
	fee := &cfg.OlderTransferFee
	if epoch >= cfg.NewerTransferFee.Epoch {
		fee = &cfg.NewerTransferFee
	}

	if fee.TransferFeeBasisPoints == 0 || amount == 0 {
		return 0
	}

	raw := mulDiv10000(amount, uint64(fee.TransferFeeBasisPoints))
	if raw > fee.MaximumFee {
		return fee.MaximumFee
	}
	return raw
}

// mulDiv10000 computes ceil(amount * basisPoints / 10000) without overflow.
func mulDiv10000(amount uint64, basisPoints uint64) uint64 {
	hiAmount := amount / 10000
	loAmount := amount % 10000

	fee := hiAmount * basisPoints
	rem := loAmount * basisPoints
	fee += rem / 10000
	if rem%10000 != 0 {
		fee++
	}
	return fee
}
