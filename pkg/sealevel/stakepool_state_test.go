package sealevel

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramAuthorityState_Roundtrip(t *testing.T) {
	pending := testKey(0x05)
	creatorA := testKey(0x06)
	creatorB := testKey(0x07)

	state := ProgramAuthorityState{
		Key:              StakePoolAccountKeyProgramAuthority,
		Authority:        testKey(0x01),
		CreatorCount:     2,
		PendingAuthority: &pending,
		Bump:             254,
	}
	state.AuthorizedCreators[0] = &creatorA
	state.AuthorizedCreators[1] = &creatorB

	buf := new(bytes.Buffer)
	err := state.MarshalWithEncoder(bin.NewBinEncoder(buf))
	require.NoError(t, err)
	require.LessOrEqual(t, buf.Len(), ProgramAuthorityAccountSize)

	var decoded ProgramAuthorityState
	err = decoded.UnmarshalWithDecoder(bin.NewBinDecoder(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestStakePoolState_Roundtrip(t *testing.T) {
	endDate := testTimestamp + 86400
	pendingRate := uint64(250_000_000)
	changeTs := testTimestamp - 100
	lastChange := testTimestamp - RewardRateChangeDelay

	state := StakePoolState{
		Key:                       StakePoolAccountKeyStakePool,
		StakeMint:                 testKey(0x10),
		RewardMint:                testKey(0x11),
		PoolId:                    42,
		StakeVault:                testKey(0x12),
		RewardVault:               testKey(0x13),
		TotalStaked:               123456,
		TotalRewardsOwed:          12345,
		RewardRate:                testRewardRate,
		MinStakeAmount:            100,
		LockupPeriod:              testLockupPeriod,
		IsPaused:                  true,
		EnforceLockup:             true,
		Bump:                      253,
		PoolEndDate:               &endDate,
		PendingRewardRate:         &pendingRate,
		RewardRateChangeTimestamp: &changeTs,
		LastRateChange:            &lastChange,
	}

	buf := new(bytes.Buffer)
	err := state.MarshalWithEncoder(bin.NewBinEncoder(buf))
	require.NoError(t, err)
	require.LessOrEqual(t, buf.Len(), StakePoolAccountSize)

	var decoded StakePoolState
	err = decoded.UnmarshalWithDecoder(bin.NewBinDecoder(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestStakeAccountState_Roundtrip(t *testing.T) {
	state := StakeAccountState{
		Key:            StakePoolAccountKeyStakeAccount,
		Pool:           testKey(0x10),
		Owner:          testKey(0x14),
		Index:          3,
		AmountStaked:   1000,
		StakeTimestamp: testTimestamp,
		ClaimedRewards: 50,
		Bump:           252,
	}

	buf := new(bytes.Buffer)
	err := state.MarshalWithEncoder(bin.NewBinEncoder(buf))
	require.NoError(t, err)
	require.LessOrEqual(t, buf.Len(), StakeAccountSize)

	var decoded StakeAccountState
	err = decoded.UnmarshalWithDecoder(bin.NewBinDecoder(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestStakePool_DiscriminatorRejection(t *testing.T) {
	env := newPoolTestEnv(t, poolTestOpts{})
	env.initPool(t)

	pool := env.poolState(t)
	pool.Key = StakePoolAccountKeyStakeAccount
	env.setPoolState(t, pool)

	finalizeData := []byte{StakePoolInstrTypeFinalizeRewardRateChange}
	err := runInstr(t, env.execCtx, finalizeData, env.finalizeMetas())
	assert.ErrorIs(t, err, StakePoolErrInvalidAccountDiscriminator)
}

func TestProgramAuthorityState_ValidateCreatorCount(t *testing.T) {
	creator := testKey(0x06)
	state := ProgramAuthorityState{Key: StakePoolAccountKeyProgramAuthority, Authority: testKey(0x01)}
	state.AuthorizedCreators[0] = &creator
	state.CreatorCount = 2

	err := state.ValidateCreatorCount()
	assert.ErrorIs(t, err, StakePoolErrDataCorruption)

	state.CreatorCount = 1
	assert.NoError(t, state.ValidateCreatorCount())
}

func TestCalculateRewards(t *testing.T) {
	pool := StakePoolState{RewardRate: testRewardRate, LockupPeriod: testLockupPeriod}

	tests := []struct {
		name        string
		amount      uint64
		stakeTime   int64
		currentTime int64
		want        uint64
	}{
		{"before lockup", 1000, testTimestamp, testTimestamp + testLockupPeriod - 1, 0},
		{"at lockup boundary", 1000, testTimestamp, testTimestamp + testLockupPeriod, 100},
		{"after lockup", 1000, testTimestamp, testTimestamp + 10*testLockupPeriod, 100},
		{"zero stake", 0, testTimestamp, testTimestamp + testLockupPeriod, 0},
		{"just staked", 1000, testTimestamp, testTimestamp, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pool.CalculateRewards(tc.amount, tc.stakeTime, tc.currentTime)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	// rewards round down
	pool.RewardRate = 1
	got, err := pool.CalculateRewards(999_999_999, testTimestamp, testTimestamp+testLockupPeriod)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestVerifySolvency(t *testing.T) {
	pool := StakePoolState{TotalRewardsOwed: 100}
	assert.NoError(t, pool.VerifySolvency(100))
	assert.ErrorIs(t, pool.VerifySolvency(99), StakePoolErrInsufficientRewards)
}

func TestDeriveAddresses_Deterministic(t *testing.T) {
	addrA, bumpA, err := DeriveProgramAuthorityAddress()
	require.NoError(t, err)
	addrB, bumpB, err := DeriveProgramAuthorityAddress()
	require.NoError(t, err)
	assert.Equal(t, addrA, addrB)
	assert.Equal(t, bumpA, bumpB)

	mint := testKey(0x10)
	poolA, _, err := DeriveStakePoolAddress(mint, 1)
	require.NoError(t, err)
	poolB, _, err := DeriveStakePoolAddress(mint, 2)
	require.NoError(t, err)
	assert.NotEqual(t, poolA, poolB)

	owner := testKey(0x14)
	stakeA, _, err := DeriveStakeAccountAddress(poolA, owner, 0)
	require.NoError(t, err)
	stakeB, _, err := DeriveStakeAccountAddress(poolA, owner, 1)
	require.NoError(t, err)
	assert.NotEqual(t, stakeA, stakeB)
}

func TestTransferFeeConfig_CalculateFee(t *testing.T) {
	cfg := TransferFeeConfig{
		OlderTransferFee: TransferFee{Epoch: 0, MaximumFee: 1000, TransferFeeBasisPoints: 50},
		NewerTransferFee: TransferFee{Epoch: 10, MaximumFee: 500, TransferFeeBasisPoints: 100},
	}

	// older schedule applies before the newer epoch activates
	assert.Equal(t, uint64(50), cfg.CalculateFee(5, 10000))
	// fee rounds up
	assert.Equal(t, uint64(1), cfg.CalculateFee(5, 1))
	// newer schedule at and after its epoch
	assert.Equal(t, uint64(100), cfg.CalculateFee(10, 10000))
	// capped at the maximum fee
	assert.Equal(t, uint64(500), cfg.CalculateFee(10, 10_000_000))
	// zero basis points charges nothing
	cfg.NewerTransferFee.TransferFeeBasisPoints = 0
	assert.Equal(t, uint64(0), cfg.CalculateFee(10, 10000))
}

func TestParseTokenExtensions(t *testing.T) {
	data := testMintDataWithTransferFee(t, 9, 100, 1_000_000)

	extensions, err := parseTokenExtensions(data)
	require.NoError(t, err)
	require.Len(t, extensions, 1)
	assert.Equal(t, uint16(TokenExtensionTransferFeeConfig), extensions[0].ExtensionType)
	assert.Len(t, extensions[0].Data, 108)

	// a bare token program mint has no extensions
	extensions, err = parseTokenExtensions(testMintData(t, 9, nil))
	require.NoError(t, err)
	assert.Empty(t, extensions)
}

func TestSaveAccountDataZeroFills(t *testing.T) {
	state := StakeAccountState{
		Key:   StakePoolAccountKeyStakeAccount,
		Pool:  testKey(0x10),
		Owner: testKey(0x14),
	}

	data := serializeState(t, &state, StakeAccountSize)
	assert.Equal(t, StakeAccountSize, len(data))

	var decoded StakeAccountState
	err := decoded.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	require.NoError(t, err)
	assert.Equal(t, testKey(0x10), decoded.Pool)
}
