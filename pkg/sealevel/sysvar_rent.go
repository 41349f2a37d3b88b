package sealevel

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"go.solstake.io/stakepool/pkg/accounts"
	"go.solstake.io/stakepool/pkg/base58"
)

const SysvarRentAddrStr = "SysvarRent111111111111111111111111111111111"

var SysvarRentAddr = base58.MustDecodeFromString(SysvarRentAddrStr)

const SysvarRentStructLen = 17

const rentAcctStorageOverhead = 128

type SysvarRent struct {
	LamportsPerUint8Year uint64
	ExemptionThreshold   float64
	BurnPercent          byte
}

func (sr *SysvarRent) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	lamportsPerUint8Year, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read LamportsPerUint8Year when decoding SysvarRent: %w", err)
	}
	sr.LamportsPerUint8Year = lamportsPerUint8Year

	exemptionThreshold, err := decoder.ReadFloat64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read ExemptionThreshold when decoding SysvarRent: %w", err)
	}
	sr.ExemptionThreshold = exemptionThreshold

	burnPercent, err := decoder.ReadByte()
	if err != nil {
		return fmt.Errorf("failed to read BurnPercent when decoding SysvarRent: %w", err)
	}
	sr.BurnPercent = burnPercent

	return
}

func (sr *SysvarRent) MarshalWithEncoder(encoder *bin.Encoder) error {
	_ = encoder.WriteUint64(sr.LamportsPerUint8Year, bin.LE)
	_ = encoder.WriteFloat64(sr.ExemptionThreshold, bin.LE)
	return encoder.WriteByte(sr.BurnPercent)
}

func (sr *SysvarRent) MustUnmarshalWithDecoder(decoder *bin.Decoder) {
	err := sr.UnmarshalWithDecoder(decoder)
	if err != nil {
		panic(err.Error())
	}
}

func (sr *SysvarRent) MinimumBalance(dataLen uint64) uint64 {
	lamportsPerYear := sr.LamportsPerUint8Year * (dataLen + rentAcctStorageOverhead)
	return uint64(float64(lamportsPerYear) * sr.ExemptionThreshold)
}

func (sr *SysvarRent) IsExempt(lamports uint64, dataLen uint64) bool {
	return lamports >= sr.MinimumBalance(dataLen)
}

func ReadRentSysvar(accts *accounts.Accounts) SysvarRent {
	rentAcct, err := (*accts).GetAccount(&SysvarRentAddr)
	if err != nil || rentAcct == nil {
		panic("failed to read rent sysvar account")
	}

	dec := bin.NewBinDecoder(rentAcct.Data)

	var rent SysvarRent
	rent.MustUnmarshalWithDecoder(dec)

	return rent
}

func WriteRentSysvar(accts *accounts.Accounts, rent SysvarRent) {
	rentAcct, err := (*accts).GetAccount(&SysvarRentAddr)
	if err != nil || rentAcct == nil {
		panic("failed to read rent sysvar account")
	}

	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)

	err = rent.MarshalWithEncoder(encoder)
	if err != nil {
		panic("failed to marshal rent sysvar")
	}

	rentAcct.Data = buf.Bytes()
}
