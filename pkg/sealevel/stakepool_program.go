package sealevel

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.solstake.io/stakepool/pkg/safemath"
	"k8s.io/klog/v2"
)

func assertAcctSigner(instrCtx *InstructionCtx, instrAcctIdx uint64) error {
	isSigner, err := instrCtx.IsInstructionAccountSigner(instrAcctIdx)
	if err != nil {
		return err
	}
	if !isSigner {
		return StakePoolErrExpectedSignerAccount
	}
	return nil
}

func assertAcctWritable(instrCtx *InstructionCtx, instrAcctIdx uint64) error {
	isWritable, err := instrCtx.IsInstructionAccountWritable(instrAcctIdx)
	if err != nil {
		return err
	}
	if !isWritable {
		return StakePoolErrExpectedWritableAccount
	}
	return nil
}

func assertAcctEmpty(acct *BorrowedAccount) error {
	if len(acct.Data()) != 0 || acct.Owner() != SystemProgramAddr {
		klog.Errorf("account %s is already initialized", acct.Key())
		return StakePoolErrExpectedEmptyAccount
	}
	return nil
}

// verifyProgramDerivedAddr derives the canonical PDA for seeds and checks it
// against the account key the caller supplied. Returns the canonical bump.
func verifyProgramDerivedAddr(seeds [][]byte, expected solana.PublicKey) (byte, error) {
	derivedKey, bump, err := deriveAddress(seeds)
	if err != nil {
		return 0, StakePoolErrInvalidPda
	}

	if derivedKey != expected {
		klog.Errorf("PDA mismatch: derived %s, got %s", derivedKey, expected)
		return 0, StakePoolErrInvalidPda
	}

	return bump, nil
}

func checkTokenProgramKey(key solana.PublicKey) error {
	if key != TokenProgramAddr && key != Token2022ProgramAddr {
		klog.Errorf("invalid token program: %s", key)
		return StakePoolErrInvalidTokenProgram
	}
	return nil
}

// createStateAccount funds and allocates a program-owned account at a PDA
// through a system program CPI. The PDA appears in the signer list, standing
// in for seed-derived signing authority.
func createStateAccount(execCtx *ExecutionCtx, payer solana.PublicKey, newAcct solana.PublicKey, size uint64) error {
	rent := ReadRentSysvar(&execCtx.Accounts)
	lamports := rent.MinimumBalance(size)

	createInstr := newCreateAccountInstruction(payer, newAcct, lamports, size, StakePoolProgramAddr)
	return execCtx.NativeInvoke(*createInstr, []solana.PublicKey{newAcct})
}

func StakePoolProgramExecute(execCtx *ExecutionCtx) error {
	err := execCtx.ComputeMeter.Consume(CUStakePoolProgramDefaultComputeUnit)
	if err != nil {
		return err
	}

	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	if len(instrCtx.Data) == 0 {
		return InstrErrInvalidInstructionData
	}

	decoder := bin.NewBinDecoder(instrCtx.Data)
	instructionType, err := decoder.ReadByte()
	if err != nil {
		return InstrErrInvalidInstructionData
	}

	switch instructionType {

	case StakePoolInstrTypeInitializeProgramAuthority:
		err = StakePoolInitializeProgramAuthority(execCtx)

	case StakePoolInstrTypeManageAuthorizedCreators:
		{
			var manage StakePoolInstrManageAuthorizedCreators
			err = manage.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = StakePoolManageAuthorizedCreators(execCtx, &manage)
		}

	case StakePoolInstrTypeTransferProgramAuthority:
		err = StakePoolTransferProgramAuthority(execCtx)

	case StakePoolInstrTypeAcceptProgramAuthority:
		err = StakePoolAcceptProgramAuthority(execCtx)

	case StakePoolInstrTypeCancelAuthorityTransfer:
		err = StakePoolCancelAuthorityTransfer(execCtx)

	case StakePoolInstrTypeGetAuthorizedCreators:
		err = StakePoolGetAuthorizedCreators(execCtx)

	case StakePoolInstrTypeCheckAuthorization:
		{
			var check StakePoolInstrCheckAuthorization
			err = check.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = StakePoolCheckAuthorization(execCtx, &check)
		}

	case StakePoolInstrTypeInitializePool:
		{
			var initialize StakePoolInstrInitializePool
			err = initialize.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = StakePoolInitializePool(execCtx, &initialize)
		}

	case StakePoolInstrTypeUpdatePool:
		{
			var update StakePoolInstrUpdatePool
			err = update.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = StakePoolUpdatePool(execCtx, &update)
		}

	case StakePoolInstrTypeFinalizeRewardRateChange:
		err = StakePoolFinalizeRewardRateChange(execCtx)

	case StakePoolInstrTypeFundRewards:
		{
			var fund StakePoolInstrFundRewards
			err = fund.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = StakePoolFundRewards(execCtx, &fund)
		}

	case StakePoolInstrTypeStake:
		{
			var stake StakePoolInstrStake
			err = stake.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = StakePoolStake(execCtx, &stake)
		}

	case StakePoolInstrTypeUnstake:
		{
			var unstake StakePoolInstrUnstake
			err = unstake.UnmarshalWithDecoder(decoder)
			if err != nil {
				return InstrErrInvalidInstructionData
			}
			err = StakePoolUnstake(execCtx, &unstake)
		}

	case StakePoolInstrTypeClaimRewards:
		err = StakePoolClaimRewards(execCtx)

	case StakePoolInstrTypeCloseStakeAccount:
		err = StakePoolCloseStakeAccount(execCtx)

	default:
		err = InstrErrInvalidInstructionData
	}

	return err
}

func StakePoolInitializeProgramAuthority(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(4)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 1)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 2)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 2)
	if err != nil {
		return err
	}

	initialAuthority, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}

	payer, err := extractAddress(txCtx, instrCtx, 2)
	if err != nil {
		return err
	}

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	authorityKey := authorityAcct.Key()

	err = assertAcctEmpty(authorityAcct)
	if err != nil {
		return err
	}
	authorityAcct.Drop()

	bump, err := verifyProgramDerivedAddr(programAuthoritySeeds(), authorityKey)
	if err != nil {
		return err
	}

	err = createStateAccount(execCtx, payer, authorityKey, ProgramAuthorityAccountSize)
	if err != nil {
		return err
	}

	authorityAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	state := ProgramAuthorityState{
		Key:       StakePoolAccountKeyProgramAuthority,
		Authority: initialAuthority,
		Bump:      bump,
	}

	err = saveAccountData(authorityAcct, &state)
	if err != nil {
		return err
	}

	emitAuthorityEvent(execCtx, EventProgramAuthorityInitialized, initialAuthority, authorityKey)
	return nil
}

func StakePoolManageAuthorizedCreators(execCtx *ExecutionCtx, manage *StakePoolInstrManageAuthorizedCreators) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(2)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 1)
	if err != nil {
		return err
	}

	if len(manage.Add) > MaxAuthorizedCreators || len(manage.Remove) > MaxAuthorizedCreators {
		return StakePoolErrInvalidParameters
	}

	signer, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	state, err := loadProgramAuthority(authorityAcct)
	if err != nil {
		return err
	}

	// only the main authority manages the list
	if signer != state.Authority {
		return StakePoolErrUnauthorized
	}

	// removals first so that a remove+add of the same key in one batch
	// behaves as a replace rather than a duplicate error
	for _, creator := range manage.Remove {
		err = state.RemoveCreator(creator)
		if err != nil {
			return err
		}
	}

	for _, creator := range manage.Add {
		err = state.AddCreator(creator)
		if err != nil {
			return err
		}
	}

	err = saveAccountData(authorityAcct, state)
	if err != nil {
		return err
	}

	for _, creator := range manage.Remove {
		emitAuthorityEvent(execCtx, EventAuthorizedCreatorRemoved, state.Authority, creator)
	}
	for _, creator := range manage.Add {
		emitAuthorityEvent(execCtx, EventAuthorizedCreatorAdded, state.Authority, creator)
	}

	return nil
}

func StakePoolTransferProgramAuthority(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(3)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 1)
	if err != nil {
		return err
	}

	signer, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}

	newAuthority, err := extractAddress(txCtx, instrCtx, 2)
	if err != nil {
		return err
	}

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	state, err := loadProgramAuthority(authorityAcct)
	if err != nil {
		return err
	}

	if signer != state.Authority {
		return StakePoolErrUnauthorized
	}

	if newAuthority == state.Authority {
		klog.Errorf("new authority is the same as the current authority")
		return StakePoolErrInvalidParameters
	}

	state.PendingAuthority = &newAuthority

	err = saveAccountData(authorityAcct, state)
	if err != nil {
		return err
	}

	emitAuthorityEvent(execCtx, EventProgramAuthorityNominated, state.Authority, newAuthority)
	return nil
}

func StakePoolAcceptProgramAuthority(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(2)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 1)
	if err != nil {
		return err
	}

	signer, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	state, err := loadProgramAuthority(authorityAcct)
	if err != nil {
		return err
	}

	if state.PendingAuthority == nil {
		return StakePoolErrNoPendingAuthority
	}

	if signer != *state.PendingAuthority {
		return StakePoolErrInvalidPendingAuthority
	}

	previousAuthority := state.Authority
	state.Authority = signer
	state.PendingAuthority = nil

	// the main authority is implicitly authorized; drop a stale list entry
	for i := range state.AuthorizedCreators {
		if state.AuthorizedCreators[i] != nil && *state.AuthorizedCreators[i] == signer {
			state.AuthorizedCreators[i] = nil
			state.CreatorCount--
			state.compactCreators()
			break
		}
	}

	err = saveAccountData(authorityAcct, state)
	if err != nil {
		return err
	}

	emitAuthorityEvent(execCtx, EventProgramAuthorityTransferred, previousAuthority, signer)
	return nil
}

func StakePoolCancelAuthorityTransfer(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(2)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 1)
	if err != nil {
		return err
	}

	signer, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	state, err := loadProgramAuthority(authorityAcct)
	if err != nil {
		return err
	}

	if signer != state.Authority {
		return StakePoolErrUnauthorized
	}

	if state.PendingAuthority == nil {
		return StakePoolErrNoPendingAuthority
	}

	cancelled := *state.PendingAuthority
	state.PendingAuthority = nil

	err = saveAccountData(authorityAcct, state)
	if err != nil {
		return err
	}

	emitAuthorityEvent(execCtx, EventAuthorityTransferCancelled, state.Authority, cancelled)
	return nil
}

func StakePoolGetAuthorizedCreators(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(1)
	if err != nil {
		return err
	}

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	state, err := loadProgramAuthority(authorityAcct)
	if err != nil {
		return err
	}

	execCtx.ProgramLog("Main authority: " + state.Authority.String())

	returnData := []byte{state.CreatorCount}
	for _, creator := range state.AuthorizedCreators {
		if creator != nil {
			execCtx.ProgramLog("Authorized creator: " + creator.String())
			returnData = append(returnData, creator[:]...)
		}
	}

	programId, err := instrCtx.LastProgramKey(txCtx)
	if err != nil {
		return err
	}
	txCtx.SetReturnData(programId, returnData)

	return nil
}

func StakePoolCheckAuthorization(execCtx *ExecutionCtx, check *StakePoolInstrCheckAuthorization) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(1)
	if err != nil {
		return err
	}

	authorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer authorityAcct.Drop()

	state, err := loadProgramAuthority(authorityAcct)
	if err != nil {
		return err
	}

	authorized := byte(0)
	if state.IsAuthorized(check.Address) {
		authorized = 1
		execCtx.ProgramLog("Address " + check.Address.String() + " is authorized")
	} else {
		execCtx.ProgramLog("Address " + check.Address.String() + " is not authorized")
	}

	programId, err := instrCtx.LastProgramKey(txCtx)
	if err != nil {
		return err
	}
	txCtx.SetReturnData(programId, []byte{authorized})

	return nil
}

func StakePoolInitializePool(execCtx *ExecutionCtx, initialize *StakePoolInstrInitializePool) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(10)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 1)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 7)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 7)
	if err != nil {
		return err
	}

	clock := ReadClockSysvar(&execCtx.Accounts)
	err = validateCurrentTimestamp(clock.UnixTimestamp)
	if err != nil {
		return err
	}

	if initialize.RewardRate > MaxRewardRate {
		klog.Errorf("reward rate %d exceeds maximum %d", initialize.RewardRate, uint64(MaxRewardRate))
		return StakePoolErrInvalidParameters
	}

	if initialize.LockupPeriod < 1 {
		klog.Errorf("lockup period must be at least 1 second, got %d", initialize.LockupPeriod)
		return StakePoolErrInvalidLockupPeriod
	}

	if initialize.MinStakeAmount == 0 {
		klog.Errorf("minimum stake amount must be nonzero")
		return StakePoolErrInvalidParameters
	}

	if initialize.PoolEndDate != nil {
		if *initialize.PoolEndDate <= clock.UnixTimestamp {
			klog.Errorf("pool end date %d is not in the future", *initialize.PoolEndDate)
			return StakePoolErrInvalidParameters
		}
	}

	creator, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}

	payer, err := extractAddress(txCtx, instrCtx, 7)
	if err != nil {
		return err
	}

	tokenProgramKey, err := extractAddress(txCtx, instrCtx, 8)
	if err != nil {
		return err
	}
	err = checkTokenProgramKey(tokenProgramKey)
	if err != nil {
		return err
	}

	programAuthorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 2)
	if err != nil {
		return err
	}
	authorityState, err := loadProgramAuthority(programAuthorityAcct)
	programAuthorityAcct.Drop()
	if err != nil {
		return err
	}

	if !authorityState.IsAuthorized(creator) {
		klog.Errorf("signer %s is not an authorized pool creator", creator)
		return StakePoolErrUnauthorizedPoolCreator
	}

	stakeMintAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 3)
	if err != nil {
		return err
	}
	stakeMint := stakeMintAcct.Key()
	if stakeMintAcct.Owner() != tokenProgramKey {
		stakeMintAcct.Drop()
		return StakePoolErrInvalidTokenProgram
	}
	err = validateMintSafety(stakeMintAcct.Data(), "stake mint")
	stakeMintAcct.Drop()
	if err != nil {
		return err
	}

	rewardMintAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 4)
	if err != nil {
		return err
	}
	rewardMint := rewardMintAcct.Key()
	if rewardMintAcct.Owner() != tokenProgramKey {
		rewardMintAcct.Drop()
		return StakePoolErrInvalidTokenProgram
	}
	err = validateMintSafety(rewardMintAcct.Data(), "reward mint")
	rewardMintAcct.Drop()
	if err != nil {
		return err
	}

	poolAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	poolKey := poolAcct.Key()
	err = assertAcctEmpty(poolAcct)
	poolAcct.Drop()
	if err != nil {
		return err
	}

	bump, err := verifyProgramDerivedAddr(stakePoolSeeds(stakeMint, initialize.PoolId), poolKey)
	if err != nil {
		return err
	}

	stakeVaultAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 5)
	if err != nil {
		return err
	}
	stakeVault := stakeVaultAcct.Key()
	err = verifyTokenAccountMint(stakeVaultAcct.Data(), stakeMint)
	if err != nil {
		stakeVaultAcct.Drop()
		return err
	}
	err = verifyVaultOwnership(stakeVaultAcct.Data(), poolKey, "stake vault")
	stakeVaultAcct.Drop()
	if err != nil {
		return err
	}

	rewardVaultAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 6)
	if err != nil {
		return err
	}
	rewardVault := rewardVaultAcct.Key()
	err = verifyTokenAccountMint(rewardVaultAcct.Data(), rewardMint)
	if err != nil {
		rewardVaultAcct.Drop()
		return err
	}
	err = verifyVaultOwnership(rewardVaultAcct.Data(), poolKey, "reward vault")
	rewardVaultAcct.Drop()
	if err != nil {
		return err
	}

	err = createStateAccount(execCtx, payer, poolKey, StakePoolAccountSize)
	if err != nil {
		return err
	}

	poolAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer poolAcct.Drop()

	pool := StakePoolState{
		Key:            StakePoolAccountKeyStakePool,
		StakeMint:      stakeMint,
		RewardMint:     rewardMint,
		PoolId:         initialize.PoolId,
		StakeVault:     stakeVault,
		RewardVault:    rewardVault,
		RewardRate:     initialize.RewardRate,
		MinStakeAmount: initialize.MinStakeAmount,
		LockupPeriod:   initialize.LockupPeriod,
		EnforceLockup:  initialize.EnforceLockup,
		Bump:           bump,
		PoolEndDate:    initialize.PoolEndDate,
	}

	err = saveAccountData(poolAcct, &pool)
	if err != nil {
		return err
	}

	emitPoolInitialized(execCtx, poolKey, creator, initialize.PoolId, initialize.RewardRate, initialize.LockupPeriod)
	return nil
}

func StakePoolUpdatePool(execCtx *ExecutionCtx, update *StakePoolInstrUpdatePool) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(3)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 1)
	if err != nil {
		return err
	}

	admin, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}

	programAuthorityAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 2)
	if err != nil {
		return err
	}
	authorityState, err := loadProgramAuthority(programAuthorityAcct)
	programAuthorityAcct.Drop()
	if err != nil {
		return err
	}

	if !authorityState.IsAuthorized(admin) {
		return StakePoolErrUnauthorized
	}

	poolAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer poolAcct.Drop()

	pool, err := loadStakePool(execCtx, poolAcct)
	if err != nil {
		return err
	}
	poolKey := poolAcct.Key()

	clock := ReadClockSysvar(&execCtx.Accounts)
	now := clock.UnixTimestamp

	if update.MinStakeAmount != nil {
		if *update.MinStakeAmount == 0 {
			klog.Errorf("minimum stake amount must be nonzero")
			return StakePoolErrInvalidParameters
		}
		pool.MinStakeAmount = *update.MinStakeAmount
		emitPoolParameterUpdated(execCtx, poolKey, "min_stake_amount")
	}

	if update.LockupPeriod != nil {
		if *update.LockupPeriod < 1 {
			klog.Errorf("lockup period must be at least 1 second, got %d", *update.LockupPeriod)
			return StakePoolErrInvalidLockupPeriod
		}
		pool.LockupPeriod = *update.LockupPeriod
		emitPoolParameterUpdated(execCtx, poolKey, "lockup_period")
	}

	if update.EnforceLockup != nil {
		pool.EnforceLockup = *update.EnforceLockup
		emitPoolParameterUpdated(execCtx, poolKey, "enforce_lockup")
	}

	if update.IsPaused != nil {
		pool.IsPaused = *update.IsPaused
		if pool.IsPaused {
			emitEvent(execCtx, EventPoolPaused, poolKey[:])
		} else {
			emitEvent(execCtx, EventPoolUnpaused, poolKey[:])
		}
	}

	if update.PoolEndDate.Set {
		if update.PoolEndDate.Value != nil {
			err = validateFutureAllowedTimestamp(*update.PoolEndDate.Value)
			if err != nil {
				return err
			}
		}
		// A past end date is allowed (ends the pool immediately), but once
		// the end date has passed the pool cannot be extended beyond it.
		if pool.PoolEndDate != nil && now >= *pool.PoolEndDate &&
			update.PoolEndDate.Value != nil && *update.PoolEndDate.Value > *pool.PoolEndDate {
			klog.Errorf("cannot extend pool: end date %d has passed (current time %d)", *pool.PoolEndDate, now)
			return StakePoolErrPoolEnded
		}
		pool.PoolEndDate = update.PoolEndDate.Value
		emitPoolParameterUpdated(execCtx, poolKey, "pool_end_date")
	}

	if update.RewardRate != nil {
		err = applyRewardRateUpdate(execCtx, pool, poolKey, *update.RewardRate, now)
		if err != nil {
			return err
		}
	}

	return saveAccountData(poolAcct, pool)
}

// applyRewardRateUpdate implements the two-phase rate change: proposing the
// current rate cancels any pending proposal, proposing a different rate
// starts the time lock. Changes only take effect through finalization.
func applyRewardRateUpdate(execCtx *ExecutionCtx, pool *StakePoolState, poolKey solana.PublicKey, newRate uint64, now int64) error {
	if newRate > MaxRewardRate {
		klog.Errorf("reward rate %d exceeds maximum %d", newRate, uint64(MaxRewardRate))
		return StakePoolErrInvalidParameters
	}

	if newRate == pool.RewardRate {
		if pool.PendingRewardRate != nil {
			cancelled := *pool.PendingRewardRate
			pool.PendingRewardRate = nil
			pool.RewardRateChangeTimestamp = nil
			emitRewardRateProposalCancelled(execCtx, poolKey, cancelled)
		}
		return nil
	}

	if pool.PendingRewardRate != nil {
		klog.Errorf("a reward rate change is already pending")
		return StakePoolErrPendingRewardRateChangeExists
	}

	if pool.LastRateChange != nil {
		elapsed, err := safemath.CheckedSubI64(now, *pool.LastRateChange)
		if err != nil {
			return StakePoolErrNumericalOverflow
		}
		if elapsed < RewardRateChangeDelay {
			klog.Errorf("rate change cooldown not elapsed: %d of %d seconds", elapsed, int64(RewardRateChangeDelay))
			return StakePoolErrRewardRateChangeDelayNotElapsed
		}
	}

	pool.PendingRewardRate = &newRate
	timestamp := now
	pool.RewardRateChangeTimestamp = &timestamp

	emitRewardRateProposed(execCtx, poolKey, pool.RewardRate, newRate, now+RewardRateChangeDelay)
	return nil
}

func StakePoolFinalizeRewardRateChange(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(1)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}

	poolAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer poolAcct.Drop()

	pool, err := loadStakePool(execCtx, poolAcct)
	if err != nil {
		return err
	}
	poolKey := poolAcct.Key()

	// the pending rate and its timestamp live or die together
	if (pool.PendingRewardRate == nil) != (pool.RewardRateChangeTimestamp == nil) {
		klog.Errorf("pending reward rate and change timestamp are inconsistent")
		return StakePoolErrDataCorruption
	}

	if pool.PendingRewardRate == nil {
		return StakePoolErrNoPendingRewardRateChange
	}

	clock := ReadClockSysvar(&execCtx.Accounts)
	now := clock.UnixTimestamp

	elapsed, err := safemath.CheckedSubI64(now, *pool.RewardRateChangeTimestamp)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}
	if elapsed < RewardRateChangeDelay {
		klog.Errorf("rate change delay not elapsed: %d of %d seconds", elapsed, int64(RewardRateChangeDelay))
		return StakePoolErrRewardRateChangeDelayNotElapsed
	}

	newRate := *pool.PendingRewardRate
	if newRate > MaxRewardRate {
		return StakePoolErrInvalidParameters
	}

	oldRate := pool.RewardRate
	pool.RewardRate = newRate
	pool.PendingRewardRate = nil
	pool.RewardRateChangeTimestamp = nil
	lastChange := now
	pool.LastRateChange = &lastChange

	err = saveAccountData(poolAcct, pool)
	if err != nil {
		return err
	}

	emitRewardRateFinalized(execCtx, poolKey, oldRate, newRate)
	return nil
}

func StakePoolFundRewards(execCtx *ExecutionCtx, fund *StakePoolInstrFundRewards) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(6)
	if err != nil {
		return err
	}

	err = assertAcctSigner(instrCtx, 1)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 2)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 3)
	if err != nil {
		return err
	}

	if fund.Amount == 0 {
		return StakePoolErrInvalidParameters
	}

	funder, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}

	tokenProgramKey, err := extractAddress(txCtx, instrCtx, 5)
	if err != nil {
		return err
	}
	err = checkTokenProgramKey(tokenProgramKey)
	if err != nil {
		return err
	}

	poolAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	pool, err := loadStakePool(execCtx, poolAcct)
	poolKey := poolAcct.Key()
	poolAcct.Drop()
	if err != nil {
		return err
	}

	rewardVault, err := extractAddress(txCtx, instrCtx, 3)
	if err != nil {
		return err
	}
	if rewardVault != pool.RewardVault {
		return StakePoolErrInvalidAccountKey
	}

	rewardMint, err := extractAddress(txCtx, instrCtx, 4)
	if err != nil {
		return err
	}
	if rewardMint != pool.RewardMint {
		return StakePoolErrInvalidMint
	}

	funderTokenAcct, err := extractAddress(txCtx, instrCtx, 2)
	if err != nil {
		return err
	}
	funderTokenData, err := transactionAccountData(execCtx, funderTokenAcct)
	if err != nil {
		return err
	}
	err = verifyTokenAccountMint(funderTokenData, pool.RewardMint)
	if err != nil {
		return err
	}

	received, err := transferTokensWithFee(execCtx, tokenProgramKey, funderTokenAcct, rewardMint, rewardVault, funder, fund.Amount, nil)
	if err != nil {
		return err
	}

	emitStakeEvent(execCtx, EventRewardsFunded, poolKey, funder, received, pool.TotalRewardsOwed)
	return nil
}

func StakePoolStake(execCtx *ExecutionCtx, stake *StakePoolInstrStake) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(10)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 1)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 2)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 3)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 4)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 7)
	if err != nil {
		return err
	}

	owner, err := extractAddress(txCtx, instrCtx, 2)
	if err != nil {
		return err
	}

	payer, err := extractAddress(txCtx, instrCtx, 7)
	if err != nil {
		return err
	}

	tokenProgramKey, err := extractAddress(txCtx, instrCtx, 8)
	if err != nil {
		return err
	}
	err = checkTokenProgramKey(tokenProgramKey)
	if err != nil {
		return err
	}

	poolAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	pool, err := loadStakePool(execCtx, poolAcct)
	poolKey := poolAcct.Key()
	poolAcct.Drop()
	if err != nil {
		return err
	}

	clock := ReadClockSysvar(&execCtx.Accounts)
	now := clock.UnixTimestamp

	if pool.IsPaused {
		return StakePoolErrPoolPaused
	}

	if pool.PoolEndDate != nil && now >= *pool.PoolEndDate {
		return StakePoolErrPoolEnded
	}

	// frontrunning protection: the staker pins the parameters they saw
	if stake.ExpectedRewardRate != nil && *stake.ExpectedRewardRate != pool.RewardRate {
		klog.Errorf("reward rate changed: expected %d, current %d", *stake.ExpectedRewardRate, pool.RewardRate)
		return StakePoolErrPoolParametersChanged
	}
	if stake.ExpectedLockupPeriod != nil && *stake.ExpectedLockupPeriod != pool.LockupPeriod {
		klog.Errorf("lockup period changed: expected %d, current %d", *stake.ExpectedLockupPeriod, pool.LockupPeriod)
		return StakePoolErrPoolParametersChanged
	}

	if stake.Amount == 0 {
		return StakePoolErrInvalidParameters
	}
	if stake.Amount < pool.MinStakeAmount {
		klog.Errorf("stake amount %d below pool minimum %d", stake.Amount, pool.MinStakeAmount)
		return StakePoolErrAmountBelowMinimum
	}

	stakeVault, err := extractAddress(txCtx, instrCtx, 4)
	if err != nil {
		return err
	}
	if stakeVault != pool.StakeVault {
		return StakePoolErrInvalidAccountKey
	}

	rewardVault, err := extractAddress(txCtx, instrCtx, 5)
	if err != nil {
		return err
	}
	if rewardVault != pool.RewardVault {
		return StakePoolErrInvalidAccountKey
	}

	stakeMint, err := extractAddress(txCtx, instrCtx, 6)
	if err != nil {
		return err
	}
	if stakeMint != pool.StakeMint {
		return StakePoolErrInvalidMint
	}

	userTokenAcct, err := extractAddress(txCtx, instrCtx, 3)
	if err != nil {
		return err
	}
	userTokenData, err := transactionAccountData(execCtx, userTokenAcct)
	if err != nil {
		return err
	}
	err = verifyTokenAccountMint(userTokenData, pool.StakeMint)
	if err != nil {
		return err
	}

	stakeAcctBorrowed, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	stakeAcctKey := stakeAcctBorrowed.Key()

	bump, err := verifyProgramDerivedAddr(stakeAccountSeeds(poolKey, owner, stake.Index), stakeAcctKey)
	if err != nil {
		stakeAcctBorrowed.Drop()
		return err
	}

	var stakeState *StakeAccountState
	needsCreation := len(stakeAcctBorrowed.Data()) == 0
	if needsCreation {
		err = assertAcctEmpty(stakeAcctBorrowed)
		stakeAcctBorrowed.Drop()
		if err != nil {
			return err
		}

		err = createStateAccount(execCtx, payer, stakeAcctKey, StakeAccountSize)
		if err != nil {
			return err
		}

		stakeState = &StakeAccountState{
			Key:   StakePoolAccountKeyStakeAccount,
			Pool:  poolKey,
			Owner: owner,
			Index: stake.Index,
			Bump:  bump,
		}
	} else {
		stakeState, err = loadStakeAccount(stakeAcctBorrowed)
		stakeAcctBorrowed.Drop()
		if err != nil {
			return err
		}

		if stakeState.Pool != poolKey || stakeState.Owner != owner || stakeState.Index != stake.Index {
			return StakePoolErrAccountMismatch
		}
	}

	// solvency gate before any token movement: the reward vault must be able
	// to cover every reward already owed plus the one this stake creates
	expectedRewards, err := safemath.MulDivU64(stake.Amount, pool.RewardRate, RewardScale)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}

	projectedOwed, err := safemath.CheckedAddU64(pool.TotalRewardsOwed, expectedRewards)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}

	rewardVaultData, err := transactionAccountData(execCtx, rewardVault)
	if err != nil {
		return err
	}
	rewardVaultBalance, err := tokenAccountBalance(rewardVaultData)
	if err != nil {
		return err
	}
	if rewardVaultBalance < projectedOwed {
		deficit := safemath.SaturatingSubU64(projectedOwed, rewardVaultBalance)
		klog.Errorf("stake would make the pool insolvent: need %d, have %d, deficit %d",
			projectedOwed, rewardVaultBalance, deficit)
		return StakePoolErrInsufficientRewards
	}

	received, err := transferTokensWithFee(execCtx, tokenProgramKey, userTokenAcct, stakeMint, stakeVault, owner, stake.Amount, nil)
	if err != nil {
		return err
	}

	// all accounting uses the post-fee amount the vault actually received
	newAmount, err := safemath.CheckedAddU64(stakeState.AmountStaked, received)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}
	receivedRewards, err := safemath.MulDivU64(received, pool.RewardRate, RewardScale)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}

	stakeState.AmountStaked = newAmount
	// adding to a position restarts the lockup for the whole position
	stakeState.StakeTimestamp = now

	pool.TotalStaked, err = safemath.CheckedAddU64(pool.TotalStaked, received)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}
	pool.TotalRewardsOwed, err = safemath.CheckedAddU64(pool.TotalRewardsOwed, receivedRewards)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}

	stakeAcctBorrowed, err = instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	err = saveAccountData(stakeAcctBorrowed, stakeState)
	stakeAcctBorrowed.Drop()
	if err != nil {
		return err
	}

	poolAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	err = saveAccountData(poolAcct, pool)
	poolAcct.Drop()
	if err != nil {
		return err
	}

	emitStakeEvent(execCtx, EventTokensStaked, poolKey, owner, received, stakeState.AmountStaked)
	return nil
}

func StakePoolUnstake(execCtx *ExecutionCtx, unstake *StakePoolInstrUnstake) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(7)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 1)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 2)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 3)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 4)
	if err != nil {
		return err
	}

	owner, err := extractAddress(txCtx, instrCtx, 2)
	if err != nil {
		return err
	}

	tokenProgramKey, err := extractAddress(txCtx, instrCtx, 6)
	if err != nil {
		return err
	}
	err = checkTokenProgramKey(tokenProgramKey)
	if err != nil {
		return err
	}

	poolAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	pool, err := loadStakePool(execCtx, poolAcct)
	poolKey := poolAcct.Key()
	poolAcct.Drop()
	if err != nil {
		return err
	}

	stakeAcctBorrowed, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	stakeState, err := loadStakeAccount(stakeAcctBorrowed)
	stakeAcctBorrowed.Drop()
	if err != nil {
		return err
	}

	if stakeState.Pool != poolKey {
		return StakePoolErrAccountMismatch
	}
	if stakeState.Owner != owner {
		return StakePoolErrUnauthorized
	}

	if unstake.ExpectedRewardRate != nil && *unstake.ExpectedRewardRate != pool.RewardRate {
		klog.Errorf("reward rate changed: expected %d, current %d", *unstake.ExpectedRewardRate, pool.RewardRate)
		return StakePoolErrPoolParametersChanged
	}

	if unstake.Amount == 0 {
		return StakePoolErrInvalidParameters
	}
	if unstake.Amount > stakeState.AmountStaked {
		klog.Errorf("unstake amount %d exceeds staked balance %d", unstake.Amount, stakeState.AmountStaked)
		return StakePoolErrInsufficientStakedBalance
	}

	clock := ReadClockSysvar(&execCtx.Accounts)
	now := clock.UnixTimestamp

	timeStaked, err := safemath.CheckedSubI64(now, stakeState.StakeTimestamp)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}
	lockupComplete := timeStaked >= pool.LockupPeriod

	if pool.EnforceLockup && !lockupComplete {
		klog.Errorf("lockup not expired: %d of %d seconds", timeStaked, pool.LockupPeriod)
		return StakePoolErrLockupNotExpired
	}

	stakeVault, err := extractAddress(txCtx, instrCtx, 4)
	if err != nil {
		return err
	}
	if stakeVault != pool.StakeVault {
		return StakePoolErrInvalidAccountKey
	}

	stakeMint, err := extractAddress(txCtx, instrCtx, 5)
	if err != nil {
		return err
	}
	if stakeMint != pool.StakeMint {
		return StakePoolErrInvalidMint
	}

	userTokenAcct, err := extractAddress(txCtx, instrCtx, 3)
	if err != nil {
		return err
	}
	userTokenData, err := transactionAccountData(execCtx, userTokenAcct)
	if err != nil {
		return err
	}
	err = verifyTokenAccountMint(userTokenData, pool.StakeMint)
	if err != nil {
		return err
	}

	// unstaking forfeits the unclaimed rewards attached to the withdrawn
	// amount, releasing the pool's obligation proportionally
	totalEntitlement, err := safemath.MulDivU64(stakeState.AmountStaked, pool.RewardRate, RewardScale)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}
	unclaimed := safemath.SaturatingSubU64(totalEntitlement, stakeState.ClaimedRewards)

	var forfeited uint64
	fullUnstake := unstake.Amount == stakeState.AmountStaked
	if fullUnstake {
		forfeited = unclaimed
	} else {
		fraction, err := safemath.MulDivU64(unstake.Amount, RewardScale, stakeState.AmountStaked)
		if err != nil {
			return StakePoolErrNumericalOverflow
		}
		forfeited, err = safemath.MulDivU64(unclaimed, fraction, RewardScale)
		if err != nil {
			return StakePoolErrNumericalOverflow
		}
	}

	// pool PDA authorizes the vault-outbound transfer
	_, err = transferTokensWithFee(execCtx, tokenProgramKey, stakeVault, stakeMint, userTokenAcct, poolKey, unstake.Amount, []solana.PublicKey{poolKey})
	if err != nil {
		return err
	}

	if fullUnstake {
		stakeState.AmountStaked = 0
		stakeState.StakeTimestamp = 0
		stakeState.ClaimedRewards = 0
	} else {
		stakeState.AmountStaked -= unstake.Amount
	}

	pool.TotalStaked = safemath.SaturatingSubU64(pool.TotalStaked, unstake.Amount)
	pool.TotalRewardsOwed = safemath.SaturatingSubU64(pool.TotalRewardsOwed, forfeited)

	stakeAcctBorrowed, err = instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	err = saveAccountData(stakeAcctBorrowed, stakeState)
	stakeAcctBorrowed.Drop()
	if err != nil {
		return err
	}

	poolAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	err = saveAccountData(poolAcct, pool)
	poolAcct.Drop()
	if err != nil {
		return err
	}

	emitStakeEvent(execCtx, EventTokensUnstaked, poolKey, owner, unstake.Amount, stakeState.AmountStaked)
	return nil
}

func StakePoolClaimRewards(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(7)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 1)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 2)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 3)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 4)
	if err != nil {
		return err
	}

	owner, err := extractAddress(txCtx, instrCtx, 2)
	if err != nil {
		return err
	}

	tokenProgramKey, err := extractAddress(txCtx, instrCtx, 6)
	if err != nil {
		return err
	}
	err = checkTokenProgramKey(tokenProgramKey)
	if err != nil {
		return err
	}

	poolAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	pool, err := loadStakePool(execCtx, poolAcct)
	poolKey := poolAcct.Key()
	poolAcct.Drop()
	if err != nil {
		return err
	}

	stakeAcctBorrowed, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	stakeState, err := loadStakeAccount(stakeAcctBorrowed)
	stakeAcctBorrowed.Drop()
	if err != nil {
		return err
	}

	if stakeState.Pool != poolKey {
		return StakePoolErrAccountMismatch
	}
	if stakeState.Owner != owner {
		return StakePoolErrUnauthorized
	}

	clock := ReadClockSysvar(&execCtx.Accounts)
	now := clock.UnixTimestamp

	rewards, err := pool.CalculateRewards(stakeState.AmountStaked, stakeState.StakeTimestamp, now)
	if err != nil {
		return err
	}
	unclaimed := safemath.SaturatingSubU64(rewards, stakeState.ClaimedRewards)

	if unclaimed == 0 {
		execCtx.ProgramLog("no rewards to claim")
		return nil
	}

	rewardVault, err := extractAddress(txCtx, instrCtx, 4)
	if err != nil {
		return err
	}
	if rewardVault != pool.RewardVault {
		return StakePoolErrInvalidAccountKey
	}

	rewardMint, err := extractAddress(txCtx, instrCtx, 5)
	if err != nil {
		return err
	}
	if rewardMint != pool.RewardMint {
		return StakePoolErrInvalidMint
	}

	userRewardAcct, err := extractAddress(txCtx, instrCtx, 3)
	if err != nil {
		return err
	}
	userRewardData, err := transactionAccountData(execCtx, userRewardAcct)
	if err != nil {
		return err
	}
	err = verifyTokenAccountMint(userRewardData, pool.RewardMint)
	if err != nil {
		return err
	}

	rewardVaultData, err := transactionAccountData(execCtx, rewardVault)
	if err != nil {
		return err
	}
	rewardVaultBalance, err := tokenAccountBalance(rewardVaultData)
	if err != nil {
		return err
	}
	if rewardVaultBalance < unclaimed {
		klog.Errorf("reward vault cannot cover claim: need %d, have %d", unclaimed, rewardVaultBalance)
		return StakePoolErrInsufficientRewards
	}

	// pool PDA authorizes the vault-outbound transfer; the ledger tracks the
	// nominal amount, transfer fees are borne by the recipient
	_, err = transferTokensWithFee(execCtx, tokenProgramKey, rewardVault, rewardMint, userRewardAcct, poolKey, unclaimed, []solana.PublicKey{poolKey})
	if err != nil {
		return err
	}

	stakeState.ClaimedRewards, err = safemath.CheckedAddU64(stakeState.ClaimedRewards, unclaimed)
	if err != nil {
		return StakePoolErrNumericalOverflow
	}
	pool.TotalRewardsOwed = safemath.SaturatingSubU64(pool.TotalRewardsOwed, unclaimed)

	stakeAcctBorrowed, err = instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	err = saveAccountData(stakeAcctBorrowed, stakeState)
	stakeAcctBorrowed.Drop()
	if err != nil {
		return err
	}

	poolAcct, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	err = saveAccountData(poolAcct, pool)
	poolAcct.Drop()
	if err != nil {
		return err
	}

	emitStakeEvent(execCtx, EventRewardsClaimed, poolKey, owner, unclaimed, stakeState.ClaimedRewards)
	return nil
}

func StakePoolCloseStakeAccount(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	err = instrCtx.CheckNumOfInstructionAccounts(3)
	if err != nil {
		return err
	}

	err = assertAcctWritable(instrCtx, 0)
	if err != nil {
		return err
	}
	err = assertAcctSigner(instrCtx, 1)
	if err != nil {
		return err
	}
	err = assertAcctWritable(instrCtx, 2)
	if err != nil {
		return err
	}

	owner, err := extractAddress(txCtx, instrCtx, 1)
	if err != nil {
		return err
	}

	stakeAcctBorrowed, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer stakeAcctBorrowed.Drop()

	stakeState, err := loadStakeAccount(stakeAcctBorrowed)
	if err != nil {
		return err
	}

	if stakeState.Owner != owner {
		return StakePoolErrUnauthorized
	}

	if stakeState.AmountStaked != 0 {
		klog.Errorf("cannot close stake account with %d tokens still staked", stakeState.AmountStaked)
		return StakePoolErrInvalidParameters
	}

	lamports := stakeAcctBorrowed.Lamports()

	receiverAcct, err := instrCtx.BorrowInstructionAccount(txCtx, 2)
	if err != nil {
		return err
	}
	err = receiverAcct.CheckedAddLamports(lamports)
	receiverAcct.Drop()
	if err != nil {
		return err
	}

	err = stakeAcctBorrowed.SetLamports(0)
	if err != nil {
		return err
	}

	err = stakeAcctBorrowed.SetDataLength(0)
	if err != nil {
		return err
	}

	err = stakeAcctBorrowed.SetOwner(SystemProgramAddr)
	if err != nil {
		return err
	}

	emitStakeEvent(execCtx, EventStakeAccountClosed, stakeState.Pool, owner, lamports, 0)
	return nil
}
