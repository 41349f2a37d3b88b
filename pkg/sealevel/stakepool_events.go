package sealevel

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Event names logged through the program data channel. Indexers match on the
// first field and decode the rest positionally.
const (
	EventProgramAuthorityInitialized      = "ProgramAuthorityInitialized"
	EventAuthorizedCreatorAdded           = "AuthorizedCreatorAdded"
	EventAuthorizedCreatorRemoved         = "AuthorizedCreatorRemoved"
	EventProgramAuthorityNominated        = "ProgramAuthorityNominated"
	EventProgramAuthorityTransferred      = "ProgramAuthorityTransferred"
	EventAuthorityTransferCancelled       = "AuthorityTransferCancelled"
	EventPoolInitialized                  = "PoolInitialized"
	EventRewardRateProposed               = "RewardRateProposed"
	EventRewardRateProposalCancelled      = "RewardRateProposalCancelled"
	EventRewardRateFinalized              = "RewardRateFinalized"
	EventPoolParameterUpdated             = "PoolParameterUpdated"
	EventPoolPaused                       = "PoolPaused"
	EventPoolUnpaused                     = "PoolUnpaused"
	EventRewardsFunded                    = "RewardsFunded"
	EventTokensStaked                     = "TokensStaked"
	EventTokensUnstaked                   = "TokensUnstaked"
	EventRewardsClaimed                   = "RewardsClaimed"
	EventStakeAccountClosed               = "StakeAccountClosed"
)

func u64EventField(val uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	return buf[:]
}

func i64EventField(val int64) []byte {
	return u64EventField(uint64(val))
}

func emitEvent(execCtx *ExecutionCtx, name string, fields ...[]byte) {
	data := make([][]byte, 0, len(fields)+1)
	data = append(data, []byte(name))
	data = append(data, fields...)
	execCtx.ProgramLogData(data)
}

func emitAuthorityEvent(execCtx *ExecutionCtx, name string, authority solana.PublicKey, subject solana.PublicKey) {
	emitEvent(execCtx, name, authority[:], subject[:])
}

func emitPoolInitialized(execCtx *ExecutionCtx, pool solana.PublicKey, creator solana.PublicKey, poolId uint64, rewardRate uint64, lockupPeriod int64) {
	emitEvent(execCtx, EventPoolInitialized, pool[:], creator[:],
		u64EventField(poolId), u64EventField(rewardRate), i64EventField(lockupPeriod))
}

func emitRewardRateProposed(execCtx *ExecutionCtx, pool solana.PublicKey, currentRate uint64, proposedRate uint64, effectiveAt int64) {
	emitEvent(execCtx, EventRewardRateProposed, pool[:],
		u64EventField(currentRate), u64EventField(proposedRate), i64EventField(effectiveAt))
}

func emitRewardRateProposalCancelled(execCtx *ExecutionCtx, pool solana.PublicKey, cancelledRate uint64) {
	emitEvent(execCtx, EventRewardRateProposalCancelled, pool[:], u64EventField(cancelledRate))
}

func emitRewardRateFinalized(execCtx *ExecutionCtx, pool solana.PublicKey, oldRate uint64, newRate uint64) {
	emitEvent(execCtx, EventRewardRateFinalized, pool[:], u64EventField(oldRate), u64EventField(newRate))
}

func emitPoolParameterUpdated(execCtx *ExecutionCtx, pool solana.PublicKey, parameter string) {
	emitEvent(execCtx, EventPoolParameterUpdated, pool[:], []byte(parameter))
}

func emitStakeEvent(execCtx *ExecutionCtx, name string, pool solana.PublicKey, owner solana.PublicKey, amount uint64, total uint64) {
	emitEvent(execCtx, name, pool[:], owner[:], u64EventField(amount), u64EventField(total))
}
