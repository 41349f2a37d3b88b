package sealevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakePool_StakeClaimUnstake(t *testing.T) {
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              defaultPoolState(),
		rewardVaultAmount: 1000,
		userStakeAmount:   5000,
	})

	stake := StakePoolInstrStake{Amount: 1000, Index: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	require.NoError(t, err)

	stakeState := env.stakeAcctState(t)
	assert.Equal(t, byte(StakePoolAccountKeyStakeAccount), stakeState.Key)
	assert.Equal(t, env.poolKey, stakeState.Pool)
	assert.Equal(t, env.owner, stakeState.Owner)
	assert.Equal(t, uint64(1000), stakeState.AmountStaked)
	assert.Equal(t, testTimestamp, stakeState.StakeTimestamp)
	assert.Equal(t, uint64(0), stakeState.ClaimedRewards)

	pool := env.poolState(t)
	assert.Equal(t, uint64(1000), pool.TotalStaked)
	assert.Equal(t, uint64(100), pool.TotalRewardsOwed)

	assert.Equal(t, uint64(4000), testTokenAcctBalance(t, env.txCtx, env.userStake))
	assert.Equal(t, uint64(1000), testTokenAcctBalance(t, env.txCtx, env.stakeVault))

	// claiming before the lockup completes pays nothing and is a no-op
	claimData := []byte{StakePoolInstrTypeClaimRewards}
	setTestClock(env.execCtx, testTimestamp+testLockupPeriod-1)
	err = runInstr(t, env.execCtx, claimData, env.claimMetas())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), testTokenAcctBalance(t, env.txCtx, env.userReward))
	assert.Equal(t, uint64(0), env.stakeAcctState(t).ClaimedRewards)

	// at the lockup boundary the full reward vests
	setTestClock(env.execCtx, testTimestamp+testLockupPeriod)
	err = runInstr(t, env.execCtx, claimData, env.claimMetas())
	require.NoError(t, err)

	assert.Equal(t, uint64(100), testTokenAcctBalance(t, env.txCtx, env.userReward))
	assert.Equal(t, uint64(900), testTokenAcctBalance(t, env.txCtx, env.rewardVault))
	assert.Equal(t, uint64(100), env.stakeAcctState(t).ClaimedRewards)
	assert.Equal(t, uint64(0), env.poolState(t).TotalRewardsOwed)

	// claiming twice pays nothing more
	err = runInstr(t, env.execCtx, claimData, env.claimMetas())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), testTokenAcctBalance(t, env.txCtx, env.userReward))

	// full unstake returns the principal and resets the position
	unstake := StakePoolInstrUnstake{Amount: 1000}
	err = runInstr(t, env.execCtx, marshalInstr(t, &unstake), env.unstakeMetas())
	require.NoError(t, err)

	stakeState = env.stakeAcctState(t)
	assert.Equal(t, uint64(0), stakeState.AmountStaked)
	assert.Equal(t, int64(0), stakeState.StakeTimestamp)
	assert.Equal(t, uint64(0), stakeState.ClaimedRewards)

	pool = env.poolState(t)
	assert.Equal(t, uint64(0), pool.TotalStaked)
	assert.Equal(t, uint64(0), pool.TotalRewardsOwed)

	assert.Equal(t, uint64(5000), testTokenAcctBalance(t, env.txCtx, env.userStake))
	assert.Equal(t, uint64(0), testTokenAcctBalance(t, env.txCtx, env.stakeVault))
}

func TestStakePool_Stake_SolvencyGate(t *testing.T) {
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              defaultPoolState(),
		rewardVaultAmount: 99,
		userStakeAmount:   5000,
	})

	// staking 1000 at 10% would owe 100, the vault only holds 99
	stake := StakePoolInstrStake{Amount: 1000, Index: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	assert.ErrorIs(t, err, StakePoolErrInsufficientRewards)

	// nothing moved
	assert.Equal(t, uint64(5000), testTokenAcctBalance(t, env.txCtx, env.userStake))
	assert.Equal(t, uint64(0), testTokenAcctBalance(t, env.txCtx, env.stakeVault))
}

func TestStakePool_Stake_Validation(t *testing.T) {
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              defaultPoolState(),
		rewardVaultAmount: 1000,
		userStakeAmount:   5000,
	})

	stake := StakePoolInstrStake{Amount: 0, Index: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	assert.ErrorIs(t, err, StakePoolErrInvalidParameters)

	stake = StakePoolInstrStake{Amount: 99, Index: 0}
	err = runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	assert.ErrorIs(t, err, StakePoolErrAmountBelowMinimum)
}

func TestStakePool_Stake_PausedPool(t *testing.T) {
	pool := defaultPoolState()
	pool.IsPaused = true
	env := newStakeTestEnv(t, stakeTestOpts{pool: pool, rewardVaultAmount: 1000, userStakeAmount: 5000})

	stake := StakePoolInstrStake{Amount: 1000, Index: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	assert.ErrorIs(t, err, StakePoolErrPoolPaused)
}

func TestStakePool_Stake_EndedPool(t *testing.T) {
	pool := defaultPoolState()
	endDate := testTimestamp
	pool.PoolEndDate = &endDate
	env := newStakeTestEnv(t, stakeTestOpts{pool: pool, rewardVaultAmount: 1000, userStakeAmount: 5000})

	// now == end date counts as ended
	stake := StakePoolInstrStake{Amount: 1000, Index: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	assert.ErrorIs(t, err, StakePoolErrPoolEnded)
}

func TestStakePool_Stake_ParameterPins(t *testing.T) {
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              defaultPoolState(),
		rewardVaultAmount: 1000,
		userStakeAmount:   5000,
	})

	staleRate := testRewardRate + 1
	stake := StakePoolInstrStake{Amount: 1000, Index: 0, ExpectedRewardRate: &staleRate}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	assert.ErrorIs(t, err, StakePoolErrPoolParametersChanged)

	staleLockup := testLockupPeriod + 1
	stake = StakePoolInstrStake{Amount: 1000, Index: 0, ExpectedLockupPeriod: &staleLockup}
	err = runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	assert.ErrorIs(t, err, StakePoolErrPoolParametersChanged)

	// pins matching the pool pass
	currentRate := testRewardRate
	currentLockup := testLockupPeriod
	stake = StakePoolInstrStake{Amount: 1000, Index: 0,
		ExpectedRewardRate: &currentRate, ExpectedLockupPeriod: &currentLockup}
	err = runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	require.NoError(t, err)
}

func TestStakePool_Stake_RestakeRestartsLockup(t *testing.T) {
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              defaultPoolState(),
		rewardVaultAmount: 1000,
		userStakeAmount:   5000,
	})

	stake := StakePoolInstrStake{Amount: 1000, Index: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	require.NoError(t, err)

	// top up halfway through the lockup
	restakeTime := testTimestamp + testLockupPeriod/2
	setTestClock(env.execCtx, restakeTime)
	err = runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	require.NoError(t, err)

	stakeState := env.stakeAcctState(t)
	assert.Equal(t, uint64(2000), stakeState.AmountStaked)
	assert.Equal(t, restakeTime, stakeState.StakeTimestamp)

	pool := env.poolState(t)
	assert.Equal(t, uint64(2000), pool.TotalStaked)
	assert.Equal(t, uint64(200), pool.TotalRewardsOwed)

	// the original lockup end no longer vests anything
	claimData := []byte{StakePoolInstrTypeClaimRewards}
	setTestClock(env.execCtx, testTimestamp+testLockupPeriod)
	err = runInstr(t, env.execCtx, claimData, env.claimMetas())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), testTokenAcctBalance(t, env.txCtx, env.userReward))

	// the restarted lockup vests the whole position
	setTestClock(env.execCtx, restakeTime+testLockupPeriod)
	err = runInstr(t, env.execCtx, claimData, env.claimMetas())
	require.NoError(t, err)
	assert.Equal(t, uint64(200), testTokenAcctBalance(t, env.txCtx, env.userReward))
}

func TestStakePool_Stake_ExistingAccountMismatch(t *testing.T) {
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              defaultPoolState(),
		rewardVaultAmount: 1000,
		userStakeAmount:   5000,
		stakeAcctState:    &StakeAccountState{Index: 5, AmountStaked: 100, StakeTimestamp: testTimestamp},
	})

	// the stored position was created for a different index
	stake := StakePoolInstrStake{Amount: 1000, Index: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	assert.ErrorIs(t, err, StakePoolErrAccountMismatch)
}

func TestStakePool_Unstake_Validation(t *testing.T) {
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              defaultPoolState(),
		rewardVaultAmount: 1000,
		userStakeAmount:   5000,
		stakeAcctState:    &StakeAccountState{AmountStaked: 1000, StakeTimestamp: testTimestamp},
	})

	unstake := StakePoolInstrUnstake{Amount: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &unstake), env.unstakeMetas())
	assert.ErrorIs(t, err, StakePoolErrInvalidParameters)

	unstake = StakePoolInstrUnstake{Amount: 1001}
	err = runInstr(t, env.execCtx, marshalInstr(t, &unstake), env.unstakeMetas())
	assert.ErrorIs(t, err, StakePoolErrInsufficientStakedBalance)

	// only the position owner may unstake
	metas := env.unstakeMetas()
	metas[2] = AccountMeta{Pubkey: env.payer, IsSigner: true}
	unstake = StakePoolInstrUnstake{Amount: 500}
	err = runInstr(t, env.execCtx, marshalInstr(t, &unstake), metas)
	assert.ErrorIs(t, err, StakePoolErrUnauthorized)

	// stale reward rate pin
	staleRate := testRewardRate + 1
	unstake = StakePoolInstrUnstake{Amount: 500, ExpectedRewardRate: &staleRate}
	err = runInstr(t, env.execCtx, marshalInstr(t, &unstake), env.unstakeMetas())
	assert.ErrorIs(t, err, StakePoolErrPoolParametersChanged)
}

func TestStakePool_Unstake_EnforcedLockup(t *testing.T) {
	pool := defaultPoolState()
	pool.EnforceLockup = true
	pool.TotalStaked = 1000
	pool.TotalRewardsOwed = 100
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              pool,
		rewardVaultAmount: 1000,
		userStakeAmount:   0,
		stakeAcctState:    &StakeAccountState{AmountStaked: 1000, StakeTimestamp: testTimestamp},
	})

	setTestClock(env.execCtx, testTimestamp+testLockupPeriod-1)
	unstake := StakePoolInstrUnstake{Amount: 1000}
	err := runInstr(t, env.execCtx, marshalInstr(t, &unstake), env.unstakeMetas())
	assert.ErrorIs(t, err, StakePoolErrLockupNotExpired)

	setTestClock(env.execCtx, testTimestamp+testLockupPeriod)
	err = runInstr(t, env.execCtx, marshalInstr(t, &unstake), env.unstakeMetas())
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), testTokenAcctBalance(t, env.txCtx, env.userStake))
}

func TestStakePool_Unstake_PartialForfeiture(t *testing.T) {
	pool := defaultPoolState()
	pool.TotalStaked = 1000
	pool.TotalRewardsOwed = 100
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              pool,
		rewardVaultAmount: 1000,
		userStakeAmount:   0,
		stakeAcctState:    &StakeAccountState{AmountStaked: 1000, StakeTimestamp: testTimestamp},
	})

	// withdrawing 40% forfeits 40% of the unclaimed rewards
	unstake := StakePoolInstrUnstake{Amount: 400}
	err := runInstr(t, env.execCtx, marshalInstr(t, &unstake), env.unstakeMetas())
	require.NoError(t, err)

	stakeState := env.stakeAcctState(t)
	assert.Equal(t, uint64(600), stakeState.AmountStaked)
	// a partial unstake does not restart the lockup
	assert.Equal(t, testTimestamp, stakeState.StakeTimestamp)

	poolState := env.poolState(t)
	assert.Equal(t, uint64(600), poolState.TotalStaked)
	assert.Equal(t, uint64(60), poolState.TotalRewardsOwed)

	assert.Equal(t, uint64(400), testTokenAcctBalance(t, env.txCtx, env.userStake))

	// the remainder vests at the original lockup end
	claimData := []byte{StakePoolInstrTypeClaimRewards}
	setTestClock(env.execCtx, testTimestamp+testLockupPeriod)
	err = runInstr(t, env.execCtx, claimData, env.claimMetas())
	require.NoError(t, err)
	assert.Equal(t, uint64(60), testTokenAcctBalance(t, env.txCtx, env.userReward))
	assert.Equal(t, uint64(0), env.poolState(t).TotalRewardsOwed)
}

func TestStakePool_ClaimRewards_InsufficientVault(t *testing.T) {
	pool := defaultPoolState()
	pool.TotalStaked = 1000
	pool.TotalRewardsOwed = 100
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              pool,
		rewardVaultAmount: 50,
		userStakeAmount:   0,
		stakeAcctState:    &StakeAccountState{AmountStaked: 1000, StakeTimestamp: testTimestamp},
	})

	claimData := []byte{StakePoolInstrTypeClaimRewards}
	setTestClock(env.execCtx, testTimestamp+testLockupPeriod)
	err := runInstr(t, env.execCtx, claimData, env.claimMetas())
	assert.ErrorIs(t, err, StakePoolErrInsufficientRewards)
}

func TestStakePool_CloseStakeAccount(t *testing.T) {
	pool := defaultPoolState()
	pool.TotalStaked = 1000
	pool.TotalRewardsOwed = 100
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              pool,
		rewardVaultAmount: 1000,
		userStakeAmount:   5000,
		stakeAcctState:    &StakeAccountState{AmountStaked: 1000, StakeTimestamp: testTimestamp},
	})

	closeMetas := []AccountMeta{
		{Pubkey: env.stakeAcct, IsWritable: true},
		{Pubkey: env.owner, IsSigner: true},
		{Pubkey: env.payer, IsWritable: true},
	}
	closeData := []byte{StakePoolInstrTypeCloseStakeAccount}

	// cannot close while tokens are staked
	err := runInstr(t, env.execCtx, closeData, closeMetas)
	assert.ErrorIs(t, err, StakePoolErrInvalidParameters)

	// only the owner may close
	badMetas := append([]AccountMeta{}, closeMetas...)
	badMetas[1] = AccountMeta{Pubkey: env.payer, IsSigner: true}
	err = runInstr(t, env.execCtx, closeData, badMetas)
	assert.ErrorIs(t, err, StakePoolErrUnauthorized)

	unstake := StakePoolInstrUnstake{Amount: 1000}
	err = runInstr(t, env.execCtx, marshalInstr(t, &unstake), env.unstakeMetas())
	require.NoError(t, err)

	payerIdx, err := env.txCtx.IndexOfAccount(env.payer)
	require.NoError(t, err)
	payerAcct, err := env.txCtx.Accounts.GetAccount(payerIdx)
	require.NoError(t, err)
	payerBefore := payerAcct.Lamports

	err = runInstr(t, env.execCtx, closeData, closeMetas)
	require.NoError(t, err)

	stakeIdx, err := env.txCtx.IndexOfAccount(env.stakeAcct)
	require.NoError(t, err)
	stakeAcct, err := env.txCtx.Accounts.GetAccount(stakeIdx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stakeAcct.Lamports)
	assert.Empty(t, stakeAcct.Data)
	assert.Equal(t, SystemProgramAddr, stakeAcct.Owner)

	payerAcct, err = env.txCtx.Accounts.GetAccount(payerIdx)
	require.NoError(t, err)
	assert.Equal(t, payerBefore+2000000, payerAcct.Lamports)
}

func TestStakePool_Stake_TransferFeeAccounting(t *testing.T) {
	// token-2022 stake mint charging a 1% transfer fee
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              defaultPoolState(),
		rewardVaultAmount: 1000,
		userStakeAmount:   5000,
		token2022MintData: testMintDataWithTransferFee(t, 9, 100, 1_000_000),
	})

	stake := StakePoolInstrStake{Amount: 1000, Index: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), env.stakeMetas())
	require.NoError(t, err)

	// the ledger reflects the post-fee amount the vault received
	stakeState := env.stakeAcctState(t)
	assert.Equal(t, uint64(990), stakeState.AmountStaked)

	pool := env.poolState(t)
	assert.Equal(t, uint64(990), pool.TotalStaked)
	assert.Equal(t, uint64(99), pool.TotalRewardsOwed)

	assert.Equal(t, uint64(4000), testTokenAcctBalance(t, env.txCtx, env.userStake))
	assert.Equal(t, uint64(990), testTokenAcctBalance(t, env.txCtx, env.stakeVault))
}

func TestStakePool_Stake_WrongVaultKeys(t *testing.T) {
	env := newStakeTestEnv(t, stakeTestOpts{
		pool:              defaultPoolState(),
		rewardVaultAmount: 1000,
		userStakeAmount:   5000,
	})

	metas := env.stakeMetas()
	metas[4].Pubkey = env.userStake
	stake := StakePoolInstrStake{Amount: 1000, Index: 0}
	err := runInstr(t, env.execCtx, marshalInstr(t, &stake), metas)
	assert.ErrorIs(t, err, StakePoolErrInvalidAccountKey)

	metas = env.stakeMetas()
	metas[6].Pubkey = env.rewardMint
	err = runInstr(t, env.execCtx, marshalInstr(t, &stake), metas)
	assert.ErrorIs(t, err, StakePoolErrInvalidMint)
}
