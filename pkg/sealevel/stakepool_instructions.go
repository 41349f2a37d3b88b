package sealevel

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	StakePoolInstrTypeInitializeProgramAuthority = iota
	StakePoolInstrTypeManageAuthorizedCreators
	StakePoolInstrTypeTransferProgramAuthority
	StakePoolInstrTypeAcceptProgramAuthority
	StakePoolInstrTypeCancelAuthorityTransfer
	StakePoolInstrTypeGetAuthorizedCreators
	StakePoolInstrTypeCheckAuthorization
	StakePoolInstrTypeInitializePool
	StakePoolInstrTypeUpdatePool
	StakePoolInstrTypeFinalizeRewardRateChange
	StakePoolInstrTypeFundRewards
	StakePoolInstrTypeStake
	StakePoolInstrTypeUnstake
	StakePoolInstrTypeClaimRewards
	StakePoolInstrTypeCloseStakeAccount
)

type StakePoolInstrManageAuthorizedCreators struct {
	Add    []solana.PublicKey
	Remove []solana.PublicKey
}

type StakePoolInstrCheckAuthorization struct {
	Address solana.PublicKey
}

type StakePoolInstrInitializePool struct {
	PoolId         uint64
	RewardRate     uint64
	MinStakeAmount uint64
	LockupPeriod   int64
	EnforceLockup  bool
	PoolEndDate    *int64
}

// OptionalEndDateUpdate distinguishes "leave the end date alone" from
// "set it to this value" from "clear it".
type OptionalEndDateUpdate struct {
	Set   bool
	Value *int64
}

type StakePoolInstrUpdatePool struct {
	RewardRate     *uint64
	MinStakeAmount *uint64
	LockupPeriod   *int64
	IsPaused       *bool
	EnforceLockup  *bool
	PoolEndDate    OptionalEndDateUpdate
}

type StakePoolInstrFundRewards struct {
	Amount uint64
}

type StakePoolInstrStake struct {
	Amount               uint64
	Index                uint64
	ExpectedRewardRate   *uint64
	ExpectedLockupPeriod *int64
}

type StakePoolInstrUnstake struct {
	Amount             uint64
	ExpectedRewardRate *uint64
}

func decodePubkeyVec(decoder *bin.Decoder, maxLen uint32) ([]solana.PublicKey, error) {
	count, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}

	if count > maxLen {
		return nil, StakePoolErrInvalidParameters
	}

	keys := make([]solana.PublicKey, 0, count)
	for i := uint32(0); i < count; i++ {
		pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return nil, err
		}
		var pk solana.PublicKey
		copy(pk[:], pkBytes)
		keys = append(keys, pk)
	}

	return keys, nil
}

func encodePubkeyVec(encoder *bin.Encoder, keys []solana.PublicKey) error {
	err := encoder.WriteUint32(uint32(len(keys)), bin.LE)
	if err != nil {
		return err
	}
	for _, pk := range keys {
		err = encoder.WriteBytes(pk[:], false)
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeOptionBool(decoder *bin.Decoder) (*bool, error) {
	tag, err := decoder.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	val, err := decodeBool(decoder)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

func encodeOptionBool(encoder *bin.Encoder, val *bool) error {
	if val == nil {
		return encoder.WriteByte(0)
	}
	err := encoder.WriteByte(1)
	if err != nil {
		return err
	}
	return encodeBool(encoder, *val)
}

func (instr *StakePoolInstrManageAuthorizedCreators) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	// DoS defense: batch sizes are capped at the list capacity
	instr.Add, err = decodePubkeyVec(decoder, MaxAuthorizedCreators)
	if err != nil {
		return err
	}

	instr.Remove, err = decodePubkeyVec(decoder, MaxAuthorizedCreators)
	return err
}

func (instr *StakePoolInstrManageAuthorizedCreators) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(StakePoolInstrTypeManageAuthorizedCreators)
	if err != nil {
		return err
	}

	err = encodePubkeyVec(encoder, instr.Add)
	if err != nil {
		return err
	}

	return encodePubkeyVec(encoder, instr.Remove)
}

func (instr *StakePoolInstrCheckAuthorization) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(instr.Address[:], pkBytes)
	return nil
}

func (instr *StakePoolInstrCheckAuthorization) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(StakePoolInstrTypeCheckAuthorization)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(instr.Address[:], false)
}

func (instr *StakePoolInstrInitializePool) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.PoolId, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	instr.RewardRate, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	instr.MinStakeAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	instr.LockupPeriod, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return err
	}

	instr.EnforceLockup, err = decodeBool(decoder)
	if err != nil {
		return err
	}

	instr.PoolEndDate, err = decodeOptionI64(decoder)
	return err
}

func (instr *StakePoolInstrInitializePool) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(StakePoolInstrTypeInitializePool)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.PoolId, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.RewardRate, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.MinStakeAmount, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteInt64(instr.LockupPeriod, bin.LE)
	if err != nil {
		return err
	}

	err = encodeBool(encoder, instr.EnforceLockup)
	if err != nil {
		return err
	}

	return encodeOptionI64(encoder, instr.PoolEndDate)
}

func (instr *StakePoolInstrUpdatePool) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.RewardRate, err = decodeOptionU64(decoder)
	if err != nil {
		return err
	}

	instr.MinStakeAmount, err = decodeOptionU64(decoder)
	if err != nil {
		return err
	}

	instr.LockupPeriod, err = decodeOptionI64(decoder)
	if err != nil {
		return err
	}

	instr.IsPaused, err = decodeOptionBool(decoder)
	if err != nil {
		return err
	}

	instr.EnforceLockup, err = decodeOptionBool(decoder)
	if err != nil {
		return err
	}

	outerTag, err := decoder.ReadByte()
	if err != nil {
		return err
	}
	if outerTag != 0 {
		instr.PoolEndDate.Set = true
		instr.PoolEndDate.Value, err = decodeOptionI64(decoder)
		if err != nil {
			return err
		}
	}

	return nil
}

func (instr *StakePoolInstrUpdatePool) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(StakePoolInstrTypeUpdatePool)
	if err != nil {
		return err
	}

	err = encodeOptionU64(encoder, instr.RewardRate)
	if err != nil {
		return err
	}

	err = encodeOptionU64(encoder, instr.MinStakeAmount)
	if err != nil {
		return err
	}

	err = encodeOptionI64(encoder, instr.LockupPeriod)
	if err != nil {
		return err
	}

	err = encodeOptionBool(encoder, instr.IsPaused)
	if err != nil {
		return err
	}

	err = encodeOptionBool(encoder, instr.EnforceLockup)
	if err != nil {
		return err
	}

	if !instr.PoolEndDate.Set {
		return encoder.WriteByte(0)
	}
	err = encoder.WriteByte(1)
	if err != nil {
		return err
	}
	return encodeOptionI64(encoder, instr.PoolEndDate.Value)
}

func (instr *StakePoolInstrFundRewards) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	instr.Amount, err = decoder.ReadUint64(bin.LE)
	return err
}

func (instr *StakePoolInstrFundRewards) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(StakePoolInstrTypeFundRewards)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(instr.Amount, bin.LE)
}

func (instr *StakePoolInstrStake) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.Amount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	instr.Index, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	instr.ExpectedRewardRate, err = decodeOptionU64(decoder)
	if err != nil {
		return err
	}

	instr.ExpectedLockupPeriod, err = decodeOptionI64(decoder)
	return err
}

func (instr *StakePoolInstrStake) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(StakePoolInstrTypeStake)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.Amount, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.Index, bin.LE)
	if err != nil {
		return err
	}

	err = encodeOptionU64(encoder, instr.ExpectedRewardRate)
	if err != nil {
		return err
	}

	return encodeOptionI64(encoder, instr.ExpectedLockupPeriod)
}

func (instr *StakePoolInstrUnstake) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	instr.Amount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	instr.ExpectedRewardRate, err = decodeOptionU64(decoder)
	return err
}

func (instr *StakePoolInstrUnstake) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(StakePoolInstrTypeUnstake)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(instr.Amount, bin.LE)
	if err != nil {
		return err
	}

	return encodeOptionU64(encoder, instr.ExpectedRewardRate)
}
