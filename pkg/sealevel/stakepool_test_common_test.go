package sealevel

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.solstake.io/stakepool/pkg/accounts"
	"go.solstake.io/stakepool/pkg/cu"
)

// Jun 2025, comfortably past the minimum valid timestamp
const testTimestamp = int64(1750000000)

const testLockupPeriod = int64(86400)

// 10% in scaled units
const testRewardRate = uint64(100_000_000)

func testKey(fill byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = fill
	}
	return pk
}

func instructionAcctsFromAccountMetas(t *testing.T, txCtx *TransactionCtx, acctMetas []AccountMeta) []InstructionAccount {
	var instrAccts []InstructionAccount
	for idx, meta := range acctMetas {
		idxInTx, err := txCtx.IndexOfAccount(meta.Pubkey)
		require.NoError(t, err)
		instrAccts = append(instrAccts, InstructionAccount{
			IndexInTransaction: idxInTx,
			IndexInCaller:      idxInTx,
			IndexInCallee:      uint64(idx),
			IsSigner:           meta.IsSigner,
			IsWritable:         meta.IsWritable,
		})
	}
	return instrAccts
}

func newTestExecCtx(t *testing.T, accts []accounts.Account, unixTimestamp int64) *ExecutionCtx {
	txCtx := NewTestTransactionCtx(*NewTransactionAccounts(accts), 5, 64)

	mem := accounts.NewMemAccounts()

	clockAcct := accounts.Account{Key: solana.PublicKey(SysvarClockAddr)}
	err := mem.SetAccount(&SysvarClockAddr, &clockAcct)
	require.NoError(t, err)

	rentAcct := accounts.Account{Key: solana.PublicKey(SysvarRentAddr)}
	err = mem.SetAccount(&SysvarRentAddr, &rentAcct)
	require.NoError(t, err)

	execCtx := &ExecutionCtx{
		Accounts:           mem,
		TransactionContext: txCtx,
		ComputeMeter:       cu.NewComputeMeter(10000000000),
	}

	setTestClock(execCtx, unixTimestamp)
	WriteRentSysvar(&execCtx.Accounts, SysvarRent{LamportsPerUint8Year: 3480, ExemptionThreshold: 2.0, BurnPercent: 50})

	return execCtx
}

func setTestClock(execCtx *ExecutionCtx, unixTimestamp int64) {
	WriteClockSysvar(&execCtx.Accounts, SysvarClock{Slot: 1, Epoch: 10, UnixTimestamp: unixTimestamp})
}

func runInstr(t *testing.T, execCtx *ExecutionCtx, instrData []byte, acctMetas []AccountMeta) error {
	txCtx := execCtx.TransactionContext
	instrAccts := instructionAcctsFromAccountMetas(t, txCtx, acctMetas)

	programIdx, err := txCtx.IndexOfAccount(solana.PublicKey(StakePoolProgramAddr))
	require.NoError(t, err)

	return execCtx.ProcessInstruction(instrData, instrAccts, []uint64{programIdx})
}

func marshalInstr(t *testing.T, instr interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}) []byte {
	buf := new(bytes.Buffer)
	err := instr.MarshalWithEncoder(bin.NewBinEncoder(buf))
	require.NoError(t, err)
	return buf.Bytes()
}

func serializeState(t *testing.T, state interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}, size int) []byte {
	buf := new(bytes.Buffer)
	err := state.MarshalWithEncoder(bin.NewBinEncoder(buf))
	require.NoError(t, err)
	require.LessOrEqual(t, buf.Len(), size)

	data := make([]byte, size)
	copy(data, buf.Bytes())
	return data
}

func stakePoolProgramAcct() accounts.Account {
	return accounts.Account{Key: solana.PublicKey(StakePoolProgramAddr), Owner: NativeLoaderAddr, Data: make([]byte, 100), Executable: true}
}

func systemProgramAcct() accounts.Account {
	return accounts.Account{Key: solana.PublicKey(SystemProgramAddr), Owner: NativeLoaderAddr, Executable: true}
}

func tokenProgramAcct(programId [32]byte) accounts.Account {
	return accounts.Account{Key: solana.PublicKey(programId), Owner: NativeLoaderAddr, Executable: true}
}

func testMintData(t *testing.T, decimals byte, freezeAuthority *solana.PublicKey) []byte {
	mint := TokenMint{Supply: 1_000_000_000_000, Decimals: decimals, IsInitialized: true, FreezeAuthority: freezeAuthority}

	buf := new(bytes.Buffer)
	err := mint.MarshalWithEncoder(bin.NewBinEncoder(buf))
	require.NoError(t, err)
	require.Equal(t, TokenMintLen, buf.Len())

	return buf.Bytes()
}

// testMintDataWithTransferFee builds a token-2022 mint carrying a
// TransferFeeConfig extension: base layout padded to the account length, the
// mint account type byte, then the TLV record.
func testMintDataWithTransferFee(t *testing.T, decimals byte, basisPoints uint16, maximumFee uint64) []byte {
	base := testMintData(t, decimals, nil)

	data := make([]byte, TokenAccountLen)
	copy(data, base)
	data = append(data, TokenAccountTypeMint)

	feeData := make([]byte, 0, 108)
	feeData = append(feeData, make([]byte, 64)...) // config + withdraw authorities
	feeData = append(feeData, make([]byte, 8)...)  // withheld amount
	for i := 0; i < 2; i++ {
		var epoch, maxFee [8]byte
		var bp [2]byte
		putU64le(maxFee[:], maximumFee)
		putU16le(bp[:], basisPoints)
		feeData = append(feeData, epoch[:]...)
		feeData = append(feeData, maxFee[:]...)
		feeData = append(feeData, bp[:]...)
	}

	var extType, extLen [2]byte
	putU16le(extType[:], TokenExtensionTransferFeeConfig)
	putU16le(extLen[:], uint16(len(feeData)))
	data = append(data, extType[:]...)
	data = append(data, extLen[:]...)
	data = append(data, feeData...)

	return data
}

// testMintDataWithExtension builds a token-2022 mint carrying an arbitrary
// zero-length extension record.
func testMintDataWithExtension(t *testing.T, extensionType uint16) []byte {
	base := testMintData(t, 9, nil)

	data := make([]byte, TokenAccountLen)
	copy(data, base)
	data = append(data, TokenAccountTypeMint)

	var extType, extLen [2]byte
	putU16le(extType[:], extensionType)
	data = append(data, extType[:]...)
	data = append(data, extLen[:]...)

	return data
}

func putU16le(dst []byte, val uint16) {
	dst[0] = byte(val)
	dst[1] = byte(val >> 8)
}

func putU64le(dst []byte, val uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(val >> (8 * i))
	}
}

func testTokenAcctData(t *testing.T, mint solana.PublicKey, owner solana.PublicKey, amount uint64) []byte {
	acct := TokenAccount{Mint: mint, Owner: owner, Amount: amount, State: TokenAccountStateInitialized}

	data := make([]byte, TokenAccountLen)
	err := marshalTokenAccountInto(&acct, data)
	require.NoError(t, err)

	return data
}

func testTokenAcctBalance(t *testing.T, txCtx *TransactionCtx, pubkey solana.PublicKey) uint64 {
	idx, err := txCtx.IndexOfAccount(pubkey)
	require.NoError(t, err)

	acct, err := txCtx.Accounts.GetAccount(idx)
	require.NoError(t, err)

	balance, err := tokenAccountBalance(acct.Data)
	require.NoError(t, err)
	return balance
}

func testProgramAuthorityData(t *testing.T, authority solana.PublicKey, creators ...solana.PublicKey) []byte {
	_, bump, err := DeriveProgramAuthorityAddress()
	require.NoError(t, err)

	state := ProgramAuthorityState{Key: StakePoolAccountKeyProgramAuthority, Authority: authority, Bump: bump}
	for i := range creators {
		creator := creators[i]
		state.AuthorizedCreators[i] = &creator
		state.CreatorCount++
	}

	return serializeState(t, &state, ProgramAuthorityAccountSize)
}

func decodeProgramAuthority(t *testing.T, data []byte) *ProgramAuthorityState {
	var state ProgramAuthorityState
	err := state.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	require.NoError(t, err)
	return &state
}

func decodeStakePool(t *testing.T, data []byte) *StakePoolState {
	var state StakePoolState
	err := state.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	require.NoError(t, err)
	return &state
}

func decodeStakeAcct(t *testing.T, data []byte) *StakeAccountState {
	var state StakeAccountState
	err := state.UnmarshalWithDecoder(bin.NewBinDecoder(data))
	require.NoError(t, err)
	return &state
}

func txAcctData(t *testing.T, txCtx *TransactionCtx, pubkey solana.PublicKey) []byte {
	idx, err := txCtx.IndexOfAccount(pubkey)
	require.NoError(t, err)

	acct, err := txCtx.Accounts.GetAccount(idx)
	require.NoError(t, err)
	return acct.Data
}

// stakeTestEnv wires a complete staking scenario: a pool with both vaults,
// a user holding stake tokens, and an empty slot for the stake account PDA.
type stakeTestEnv struct {
	execCtx *ExecutionCtx
	txCtx   *TransactionCtx

	tokenProgram solana.PublicKey
	poolKey      solana.PublicKey
	stakeMint    solana.PublicKey
	rewardMint   solana.PublicKey
	stakeVault   solana.PublicKey
	rewardVault  solana.PublicKey
	owner        solana.PublicKey
	payer        solana.PublicKey
	userStake    solana.PublicKey
	userReward   solana.PublicKey
	stakeAcct    solana.PublicKey
}

type stakeTestOpts struct {
	pool              StakePoolState
	rewardVaultAmount uint64
	userStakeAmount   uint64
	stakeAcctState    *StakeAccountState
	token2022MintData []byte
}

func defaultPoolState() StakePoolState {
	return StakePoolState{
		Key:            StakePoolAccountKeyStakePool,
		PoolId:         1,
		RewardRate:     testRewardRate,
		MinStakeAmount: 100,
		LockupPeriod:   testLockupPeriod,
	}
}

func newStakeTestEnv(t *testing.T, opts stakeTestOpts) *stakeTestEnv {
	env := &stakeTestEnv{
		tokenProgram: solana.PublicKey(TokenProgramAddr),
		stakeMint:    testKey(0x10),
		rewardMint:   testKey(0x11),
		stakeVault:   testKey(0x12),
		rewardVault:  testKey(0x13),
		owner:        testKey(0x14),
		payer:        testKey(0x15),
		userStake:    testKey(0x16),
		userReward:   testKey(0x17),
	}

	if opts.token2022MintData != nil {
		env.tokenProgram = solana.PublicKey(Token2022ProgramAddr)
	}

	poolKey, poolBump, err := DeriveStakePoolAddress(env.stakeMint, opts.pool.PoolId)
	require.NoError(t, err)
	env.poolKey = poolKey

	stakeAcctKey, _, err := DeriveStakeAccountAddress(poolKey, env.owner, 0)
	require.NoError(t, err)
	env.stakeAcct = stakeAcctKey

	pool := opts.pool
	pool.StakeMint = env.stakeMint
	pool.RewardMint = env.rewardMint
	pool.StakeVault = env.stakeVault
	pool.RewardVault = env.rewardVault
	pool.Bump = poolBump

	stakeMintData := testMintData(t, 9, nil)
	if opts.token2022MintData != nil {
		stakeMintData = opts.token2022MintData
	}

	tokenOwner := [32]byte(env.tokenProgram)

	accts := []accounts.Account{
		stakePoolProgramAcct(),
		systemProgramAcct(),
		tokenProgramAcct([32]byte(env.tokenProgram)),
		{Key: poolKey, Lamports: 10000000, Data: serializeState(t, &pool, StakePoolAccountSize), Owner: StakePoolProgramAddr},
		{Key: env.stakeMint, Lamports: 1000000, Data: stakeMintData, Owner: tokenOwner},
		{Key: env.rewardMint, Lamports: 1000000, Data: testMintData(t, 9, nil), Owner: tokenOwner},
		{Key: env.stakeVault, Lamports: 1000000, Data: testTokenAcctData(t, env.stakeMint, poolKey, pool.TotalStaked), Owner: tokenOwner},
		{Key: env.rewardVault, Lamports: 1000000, Data: testTokenAcctData(t, env.rewardMint, poolKey, opts.rewardVaultAmount), Owner: tokenOwner},
		{Key: env.owner, Lamports: 1000000, Owner: SystemProgramAddr},
		{Key: env.payer, Lamports: 1000000000, Owner: SystemProgramAddr},
		{Key: env.userStake, Lamports: 1000000, Data: testTokenAcctData(t, env.stakeMint, env.owner, opts.userStakeAmount), Owner: tokenOwner},
		{Key: env.userReward, Lamports: 1000000, Data: testTokenAcctData(t, env.rewardMint, env.owner, 0), Owner: tokenOwner},
	}

	if opts.stakeAcctState != nil {
		stakeAcctState := *opts.stakeAcctState
		stakeAcctState.Key = StakePoolAccountKeyStakeAccount
		stakeAcctState.Pool = poolKey
		stakeAcctState.Owner = env.owner
		accts = append(accts, accounts.Account{Key: stakeAcctKey, Lamports: 2000000,
			Data: serializeState(t, &stakeAcctState, StakeAccountSize), Owner: StakePoolProgramAddr})
	} else {
		accts = append(accts, accounts.Account{Key: stakeAcctKey, Owner: SystemProgramAddr})
	}

	env.execCtx = newTestExecCtx(t, accts, testTimestamp)
	env.txCtx = env.execCtx.TransactionContext

	return env
}

func (env *stakeTestEnv) stakeMetas() []AccountMeta {
	return []AccountMeta{
		{Pubkey: env.poolKey, IsWritable: true},
		{Pubkey: env.stakeAcct, IsWritable: true},
		{Pubkey: env.owner, IsSigner: true},
		{Pubkey: env.userStake, IsWritable: true},
		{Pubkey: env.stakeVault, IsWritable: true},
		{Pubkey: env.rewardVault},
		{Pubkey: env.stakeMint},
		{Pubkey: env.payer, IsSigner: true, IsWritable: true},
		{Pubkey: env.tokenProgram},
		{Pubkey: solana.PublicKey(SystemProgramAddr)},
	}
}

func (env *stakeTestEnv) unstakeMetas() []AccountMeta {
	return []AccountMeta{
		{Pubkey: env.poolKey, IsWritable: true},
		{Pubkey: env.stakeAcct, IsWritable: true},
		{Pubkey: env.owner, IsSigner: true},
		{Pubkey: env.userStake, IsWritable: true},
		{Pubkey: env.stakeVault, IsWritable: true},
		{Pubkey: env.stakeMint},
		{Pubkey: env.tokenProgram},
	}
}

func (env *stakeTestEnv) claimMetas() []AccountMeta {
	return []AccountMeta{
		{Pubkey: env.poolKey, IsWritable: true},
		{Pubkey: env.stakeAcct, IsWritable: true},
		{Pubkey: env.owner, IsSigner: true},
		{Pubkey: env.userReward, IsWritable: true},
		{Pubkey: env.rewardVault, IsWritable: true},
		{Pubkey: env.rewardMint},
		{Pubkey: env.tokenProgram},
	}
}

func (env *stakeTestEnv) poolState(t *testing.T) *StakePoolState {
	return decodeStakePool(t, txAcctData(t, env.txCtx, env.poolKey))
}

func (env *stakeTestEnv) stakeAcctState(t *testing.T) *StakeAccountState {
	return decodeStakeAcct(t, txAcctData(t, env.txCtx, env.stakeAcct))
}
