package sealevel

import (
	"bytes"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.solstake.io/stakepool/pkg/safemath"
	solanapda "go.solstake.io/stakepool/pkg/solana"
	"k8s.io/klog/v2"
)

// account type discriminators
const (
	StakePoolAccountKeyUninitialized    = 0
	StakePoolAccountKeyStakePool        = 1
	StakePoolAccountKeyStakeAccount     = 2
	StakePoolAccountKeyProgramAuthority = 3
)

const (
	// reward rates are scaled by 1e9, e.g. 100_000_000 = 10%
	RewardScale = 1_000_000_000

	// 1000% in scaled units
	MaxRewardRate = 1_000_000_000_000

	// delay before a proposed rate change can be finalized, also the
	// cooldown between finalized changes (7 days)
	RewardRateChangeDelay = 604800

	// Jan 1, 2021. Timestamps before this indicate a corrupted clock.
	MinValidTimestamp = 1609459200

	MaxAuthorizedCreators = 10
)

const (
	ProgramAuthorityAccountSize = 1 + 32 + MaxAuthorizedCreators*33 + 1 + 33 + 1 // 398
	StakePoolAccountSize        = 1 + 32 + 32 + 8 + 32 + 32 + 8 + 8 + 8 + 8 + 8 + 1 + 1 + 1 + 9 + 9 + 9 + 9 + 7 // 223
	StakeAccountSize            = 1 + 32 + 32 + 8 + 8 + 8 + 8 + 1 // 98
)

var (
	programAuthoritySeed = []byte("program_authority")
	stakePoolSeed        = []byte("stake_pool")
	stakeAccountSeed     = []byte("stake_account")
)

type ProgramAuthorityState struct {
	Key                byte
	Authority          solana.PublicKey
	AuthorizedCreators [MaxAuthorizedCreators]*solana.PublicKey
	CreatorCount       byte
	PendingAuthority   *solana.PublicKey
	Bump               byte
}

type StakePoolState struct {
	Key                       byte
	StakeMint                 solana.PublicKey
	RewardMint                solana.PublicKey
	PoolId                    uint64
	StakeVault                solana.PublicKey
	RewardVault               solana.PublicKey
	TotalStaked               uint64
	TotalRewardsOwed          uint64
	RewardRate                uint64
	MinStakeAmount            uint64
	LockupPeriod              int64
	IsPaused                  bool
	EnforceLockup             bool
	Bump                      byte
	PoolEndDate               *int64
	PendingRewardRate         *uint64
	RewardRateChangeTimestamp *int64
	LastRateChange            *int64
	Reserved                  [7]byte
}

type StakeAccountState struct {
	Key            byte
	Pool           solana.PublicKey
	Owner          solana.PublicKey
	Index          uint64
	AmountStaked   uint64
	StakeTimestamp int64
	ClaimedRewards uint64
	Bump           byte
}

func decodeOptionPubkey(decoder *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := decoder.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}

	pkBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, err
	}

	var pk solana.PublicKey
	copy(pk[:], pkBytes)
	return &pk, nil
}

func encodeOptionPubkey(encoder *bin.Encoder, pk *solana.PublicKey) error {
	if pk == nil {
		return encoder.WriteByte(0)
	}
	err := encoder.WriteByte(1)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(pk[:], false)
}

func decodeOptionU64(decoder *bin.Decoder) (*uint64, error) {
	tag, err := decoder.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	val, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

func encodeOptionU64(encoder *bin.Encoder, val *uint64) error {
	if val == nil {
		return encoder.WriteByte(0)
	}
	err := encoder.WriteByte(1)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(*val, bin.LE)
}

func decodeOptionI64(decoder *bin.Decoder) (*int64, error) {
	tag, err := decoder.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	val, err := decoder.ReadInt64(bin.LE)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

func encodeOptionI64(encoder *bin.Encoder, val *int64) error {
	if val == nil {
		return encoder.WriteByte(0)
	}
	err := encoder.WriteByte(1)
	if err != nil {
		return err
	}
	return encoder.WriteInt64(*val, bin.LE)
}

func decodeBool(decoder *bin.Decoder) (bool, error) {
	b, err := decoder.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func encodeBool(encoder *bin.Encoder, b bool) error {
	if b {
		return encoder.WriteByte(1)
	}
	return encoder.WriteByte(0)
}

func (authority *ProgramAuthorityState) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	authority.Key, err = decoder.ReadByte()
	if err != nil {
		return StakePoolErrDeserializationError
	}

	authBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return StakePoolErrDeserializationError
	}
	copy(authority.Authority[:], authBytes)

	for i := 0; i < MaxAuthorizedCreators; i++ {
		authority.AuthorizedCreators[i], err = decodeOptionPubkey(decoder)
		if err != nil {
			return StakePoolErrDeserializationError
		}
	}

	authority.CreatorCount, err = decoder.ReadByte()
	if err != nil {
		return StakePoolErrDeserializationError
	}

	authority.PendingAuthority, err = decodeOptionPubkey(decoder)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	authority.Bump, err = decoder.ReadByte()
	if err != nil {
		return StakePoolErrDeserializationError
	}

	return nil
}

func (authority *ProgramAuthorityState) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(authority.Key)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(authority.Authority[:], false)
	if err != nil {
		return err
	}

	for i := 0; i < MaxAuthorizedCreators; i++ {
		err = encodeOptionPubkey(encoder, authority.AuthorizedCreators[i])
		if err != nil {
			return err
		}
	}

	err = encoder.WriteByte(authority.CreatorCount)
	if err != nil {
		return err
	}

	err = encodeOptionPubkey(encoder, authority.PendingAuthority)
	if err != nil {
		return err
	}

	return encoder.WriteByte(authority.Bump)
}

func (pool *StakePoolState) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	pool.Key, err = decoder.ReadByte()
	if err != nil {
		return StakePoolErrDeserializationError
	}

	stakeMintBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return StakePoolErrDeserializationError
	}
	copy(pool.StakeMint[:], stakeMintBytes)

	rewardMintBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return StakePoolErrDeserializationError
	}
	copy(pool.RewardMint[:], rewardMintBytes)

	pool.PoolId, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	stakeVaultBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return StakePoolErrDeserializationError
	}
	copy(pool.StakeVault[:], stakeVaultBytes)

	rewardVaultBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return StakePoolErrDeserializationError
	}
	copy(pool.RewardVault[:], rewardVaultBytes)

	pool.TotalStaked, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.TotalRewardsOwed, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.RewardRate, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.MinStakeAmount, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.LockupPeriod, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.IsPaused, err = decodeBool(decoder)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.EnforceLockup, err = decodeBool(decoder)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.Bump, err = decoder.ReadByte()
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.PoolEndDate, err = decodeOptionI64(decoder)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.PendingRewardRate, err = decodeOptionU64(decoder)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.RewardRateChangeTimestamp, err = decodeOptionI64(decoder)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	pool.LastRateChange, err = decodeOptionI64(decoder)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	reserved, err := decoder.ReadBytes(len(pool.Reserved))
	if err != nil {
		return StakePoolErrDeserializationError
	}
	copy(pool.Reserved[:], reserved)

	return nil
}

func (pool *StakePoolState) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(pool.Key)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(pool.StakeMint[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(pool.RewardMint[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(pool.PoolId, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(pool.StakeVault[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(pool.RewardVault[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(pool.TotalStaked, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(pool.TotalRewardsOwed, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(pool.RewardRate, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(pool.MinStakeAmount, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteInt64(pool.LockupPeriod, bin.LE)
	if err != nil {
		return err
	}

	err = encodeBool(encoder, pool.IsPaused)
	if err != nil {
		return err
	}

	err = encodeBool(encoder, pool.EnforceLockup)
	if err != nil {
		return err
	}

	err = encoder.WriteByte(pool.Bump)
	if err != nil {
		return err
	}

	err = encodeOptionI64(encoder, pool.PoolEndDate)
	if err != nil {
		return err
	}

	err = encodeOptionU64(encoder, pool.PendingRewardRate)
	if err != nil {
		return err
	}

	err = encodeOptionI64(encoder, pool.RewardRateChangeTimestamp)
	if err != nil {
		return err
	}

	err = encodeOptionI64(encoder, pool.LastRateChange)
	if err != nil {
		return err
	}

	return encoder.WriteBytes(pool.Reserved[:], false)
}

func (stakeAcct *StakeAccountState) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error

	stakeAcct.Key, err = decoder.ReadByte()
	if err != nil {
		return StakePoolErrDeserializationError
	}

	poolBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return StakePoolErrDeserializationError
	}
	copy(stakeAcct.Pool[:], poolBytes)

	ownerBytes, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return StakePoolErrDeserializationError
	}
	copy(stakeAcct.Owner[:], ownerBytes)

	stakeAcct.Index, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	stakeAcct.AmountStaked, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	stakeAcct.StakeTimestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	stakeAcct.ClaimedRewards, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return StakePoolErrDeserializationError
	}

	stakeAcct.Bump, err = decoder.ReadByte()
	if err != nil {
		return StakePoolErrDeserializationError
	}

	return nil
}

func (stakeAcct *StakeAccountState) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteByte(stakeAcct.Key)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(stakeAcct.Pool[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteBytes(stakeAcct.Owner[:], false)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(stakeAcct.Index, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(stakeAcct.AmountStaked, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteInt64(stakeAcct.StakeTimestamp, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(stakeAcct.ClaimedRewards, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteByte(stakeAcct.Bump)
}

// saveAccountData serializes state into acct, zero-filling the account first
// so that stale trailing bytes never survive a re-serialization that shrinks
// the encoded form (optional fields going from present to absent).
func saveAccountData(acct *BorrowedAccount, state interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}) error {
	buf := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(buf)

	err := state.MarshalWithEncoder(encoder)
	if err != nil {
		return StakePoolErrSerializationError
	}

	serialized := buf.Bytes()
	accountSize := len(acct.Data())
	if len(serialized) > accountSize {
		klog.Errorf("account size too small: need %d bytes, have %d bytes", len(serialized), accountSize)
		return StakePoolErrAccountSizeTooSmall
	}

	newData := make([]byte, accountSize)
	copy(newData, serialized)

	return acct.SetData(newData)
}

// validateAccountForLoad runs the mandatory checks before any typed
// interpretation of account bytes: program ownership, non-empty data, and
// the leading discriminator byte.
func validateAccountForLoad(acct *BorrowedAccount, expectedKey byte) error {
	if acct.Owner() != StakePoolProgramAddr {
		klog.Errorf("account %s not owned by the stake pool program", acct.Key())
		return StakePoolErrInvalidProgramOwner
	}

	data := acct.Data()
	if len(data) == 0 {
		return StakePoolErrExpectedNonEmptyAccount
	}

	if data[0] != expectedKey {
		klog.Errorf("account %s has discriminator %d, expected %d", acct.Key(), data[0], expectedKey)
		return StakePoolErrInvalidAccountDiscriminator
	}

	return nil
}

func loadProgramAuthority(acct *BorrowedAccount) (*ProgramAuthorityState, error) {
	err := validateAccountForLoad(acct, StakePoolAccountKeyProgramAuthority)
	if err != nil {
		return nil, err
	}

	var authority ProgramAuthorityState
	err = authority.UnmarshalWithDecoder(bin.NewBinDecoder(acct.Data()))
	if err != nil {
		return nil, err
	}

	err = authority.ValidateCreatorCount()
	if err != nil {
		return nil, err
	}

	return &authority, nil
}

func loadStakePool(execCtx *ExecutionCtx, acct *BorrowedAccount) (*StakePoolState, error) {
	err := validateAccountForLoad(acct, StakePoolAccountKeyStakePool)
	if err != nil {
		return nil, err
	}

	var pool StakePoolState
	err = pool.UnmarshalWithDecoder(bin.NewBinDecoder(acct.Data()))
	if err != nil {
		return nil, err
	}

	// validate stored timestamps to detect corruption early
	clock := ReadClockSysvar(&execCtx.Accounts)
	currentTime := clock.UnixTimestamp

	err = validateCurrentTimestamp(currentTime)
	if err != nil {
		return nil, err
	}

	if pool.PoolEndDate != nil {
		err = validateFutureAllowedTimestamp(*pool.PoolEndDate)
		if err != nil {
			return nil, err
		}
	}

	if pool.RewardRateChangeTimestamp != nil {
		err = validateStoredTimestamp(*pool.RewardRateChangeTimestamp, currentTime)
		if err != nil {
			return nil, err
		}
	}

	if pool.LastRateChange != nil {
		err = validateStoredTimestamp(*pool.LastRateChange, currentTime)
		if err != nil {
			return nil, err
		}
	}

	return &pool, nil
}

func loadStakeAccount(acct *BorrowedAccount) (*StakeAccountState, error) {
	err := validateAccountForLoad(acct, StakePoolAccountKeyStakeAccount)
	if err != nil {
		return nil, err
	}

	var stakeAcct StakeAccountState
	err = stakeAcct.UnmarshalWithDecoder(bin.NewBinDecoder(acct.Data()))
	if err != nil {
		return nil, err
	}

	return &stakeAcct, nil
}

func validateCurrentTimestamp(timestamp int64) error {
	if timestamp < MinValidTimestamp {
		klog.Errorf("invalid system time (before 2021-01-01): %d", timestamp)
		return StakePoolErrInvalidTimestamp
	}
	return nil
}

func validateStoredTimestamp(stored int64, current int64) error {
	if stored < MinValidTimestamp {
		klog.Errorf("stored timestamp predates 2021-01-01: %d", stored)
		return StakePoolErrInvalidTimestamp
	}
	if stored > current {
		klog.Errorf("stored timestamp %d is in the future (current: %d)", stored, current)
		return StakePoolErrInvalidTimestamp
	}
	return nil
}

// validateFutureAllowedTimestamp validates deadline fields, which may
// legitimately be in the future.
func validateFutureAllowedTimestamp(timestamp int64) error {
	if timestamp < MinValidTimestamp {
		klog.Errorf("stored timestamp predates 2021-01-01: %d", timestamp)
		return StakePoolErrInvalidTimestamp
	}
	return nil
}

// IsAuthorized reports whether the given address may create or manage pools.
// The main authority is always authorized and never appears in the list.
func (authority *ProgramAuthorityState) IsAuthorized(addr solana.PublicKey) bool {
	if addr == authority.Authority {
		return true
	}

	for _, creator := range authority.AuthorizedCreators {
		if creator != nil && *creator == addr {
			return true
		}
	}

	return false
}

// ValidateCreatorCount checks that the stored count matches the occupied
// slots, catching corruption where the two drift apart.
func (authority *ProgramAuthorityState) ValidateCreatorCount() error {
	var actual byte
	for _, creator := range authority.AuthorizedCreators {
		if creator != nil {
			actual++
		}
	}

	if actual != authority.CreatorCount {
		klog.Errorf("creator count mismatch: stored=%d, actual=%d", authority.CreatorCount, actual)
		return StakePoolErrDataCorruption
	}

	return nil
}

// compactCreators moves all occupied slots to the front of the array.
func (authority *ProgramAuthorityState) compactCreators() {
	writeIdx := 0
	for readIdx := 0; readIdx < len(authority.AuthorizedCreators); readIdx++ {
		if authority.AuthorizedCreators[readIdx] != nil {
			if writeIdx != readIdx {
				authority.AuthorizedCreators[writeIdx] = authority.AuthorizedCreators[readIdx]
				authority.AuthorizedCreators[readIdx] = nil
			}
			writeIdx++
		}
	}
}

func (authority *ProgramAuthorityState) AddCreator(creator solana.PublicKey) error {
	if creator == authority.Authority {
		klog.Errorf("main authority is always authorized, cannot add explicitly")
		return StakePoolErrInvalidParameters
	}

	for _, existing := range authority.AuthorizedCreators {
		if existing != nil && *existing == creator {
			klog.Errorf("creator already authorized: %s", creator)
			return StakePoolErrCreatorAlreadyAuthorized
		}
	}

	for i := range authority.AuthorizedCreators {
		if authority.AuthorizedCreators[i] == nil {
			c := creator
			authority.AuthorizedCreators[i] = &c
			authority.CreatorCount++
			return nil
		}
	}

	klog.Errorf("maximum number of authorized creators reached")
	return StakePoolErrMaxAuthorizedCreatorsReached
}

func (authority *ProgramAuthorityState) RemoveCreator(creator solana.PublicKey) error {
	if creator == authority.Authority {
		klog.Errorf("cannot remove main authority from authorized creators")
		return StakePoolErrCannotRemoveMainAuthority
	}

	for i := range authority.AuthorizedCreators {
		if authority.AuthorizedCreators[i] != nil && *authority.AuthorizedCreators[i] == creator {
			authority.AuthorizedCreators[i] = nil
			authority.CreatorCount--
			authority.compactCreators()
			return nil
		}
	}

	klog.Errorf("creator not found in authorized list: %s", creator)
	return StakePoolErrCreatorNotFound
}

// CalculateRewards returns the reward owed for a stake position as of
// currentTime. The distribution is binary: nothing before the lockup period
// completes, the full amount*rate/scale after.
func (pool *StakePoolState) CalculateRewards(amountStaked uint64, stakeTimestamp int64, currentTime int64) (uint64, error) {
	timeStaked, err := safemath.CheckedSubI64(currentTime, stakeTimestamp)
	if err != nil {
		return 0, StakePoolErrNumericalOverflow
	}

	if timeStaked < pool.LockupPeriod {
		return 0, nil
	}

	rewards, err := safemath.MulDivU64(amountStaked, pool.RewardRate, RewardScale)
	if err != nil {
		return 0, StakePoolErrNumericalOverflow
	}

	return rewards, nil
}

// VerifySolvency checks that the reward vault can cover every reward the
// pool has committed to.
func (pool *StakePoolState) VerifySolvency(rewardVaultBalance uint64) error {
	if rewardVaultBalance < pool.TotalRewardsOwed {
		deficit := safemath.SaturatingSubU64(pool.TotalRewardsOwed, rewardVaultBalance)
		klog.Errorf("pool insolvency detected: owed %d, available %d, deficit %d",
			pool.TotalRewardsOwed, rewardVaultBalance, deficit)
		return StakePoolErrInsufficientRewards
	}
	return nil
}

func deriveAddress(seeds [][]byte) (solana.PublicKey, byte, error) {
	derived, bump, err := solanapda.FindProgramAddressBytes(seeds, StakePoolProgramAddr[:])
	if err != nil {
		return solana.PublicKey{}, 0, err
	}
	var pk solana.PublicKey
	copy(pk[:], derived)
	return pk, bump, nil
}

// DeriveProgramAuthorityAddress returns the canonical program authority PDA.
func DeriveProgramAuthorityAddress() (solana.PublicKey, byte, error) {
	return deriveAddress(programAuthoritySeeds())
}

// DeriveStakePoolAddress returns the canonical pool PDA for a stake mint and
// pool id.
func DeriveStakePoolAddress(stakeMint solana.PublicKey, poolId uint64) (solana.PublicKey, byte, error) {
	return deriveAddress(stakePoolSeeds(stakeMint, poolId))
}

// DeriveStakeAccountAddress returns the canonical stake account PDA for a
// pool, owner and position index.
func DeriveStakeAccountAddress(pool solana.PublicKey, owner solana.PublicKey, index uint64) (solana.PublicKey, byte, error) {
	return deriveAddress(stakeAccountSeeds(pool, owner, index))
}

func programAuthoritySeeds() [][]byte {
	return [][]byte{programAuthoritySeed}
}

func stakePoolSeeds(stakeMint solana.PublicKey, poolId uint64) [][]byte {
	var poolIdBytes [8]byte
	binary.LittleEndian.PutUint64(poolIdBytes[:], poolId)
	return [][]byte{stakePoolSeed, stakeMint[:], poolIdBytes[:]}
}

func stakeAccountSeeds(pool solana.PublicKey, owner solana.PublicKey, index uint64) [][]byte {
	var indexBytes [8]byte
	binary.LittleEndian.PutUint64(indexBytes[:], index)
	return [][]byte{stakeAccountSeed, pool[:], owner[:], indexBytes[:]}
}
