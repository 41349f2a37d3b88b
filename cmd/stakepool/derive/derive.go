package derive

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.solstake.io/stakepool/pkg/sealevel"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "derive",
		Short: "Derive program addresses for pools and stake accounts",
		Run:   run,
	}

	stakeMint string
	poolId    uint64
	owner     string
	index     uint64
)

func init() {
	Cmd.Flags().StringVarP(&stakeMint, "stake-mint", "m", "", "Stake mint address")
	Cmd.Flags().Uint64VarP(&poolId, "pool-id", "i", 0, "Pool id")
	Cmd.Flags().StringVarP(&owner, "owner", "o", "", "Stake account owner address")
	Cmd.Flags().Uint64VarP(&index, "index", "n", 0, "Stake account position index")
}

func run(c *cobra.Command, args []string) {
	authorityAddr, authorityBump, err := sealevel.DeriveProgramAuthorityAddress()
	if err != nil {
		klog.Exitf("failed to derive program authority address: %v", err)
	}
	fmt.Printf("program authority: %s (bump %d)\n", authorityAddr, authorityBump)

	if stakeMint == "" {
		return
	}

	mint, err := solana.PublicKeyFromBase58(stakeMint)
	if err != nil {
		klog.Exitf("invalid stake mint address: %v", err)
	}

	poolAddr, poolBump, err := sealevel.DeriveStakePoolAddress(mint, poolId)
	if err != nil {
		klog.Exitf("failed to derive pool address: %v", err)
	}
	fmt.Printf("pool %d: %s (bump %d)\n", poolId, poolAddr, poolBump)

	if owner == "" {
		return
	}

	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		klog.Exitf("invalid owner address: %v", err)
	}

	stakeAcctAddr, stakeAcctBump, err := sealevel.DeriveStakeAccountAddress(poolAddr, ownerKey, index)
	if err != nil {
		klog.Exitf("failed to derive stake account address: %v", err)
	}
	fmt.Printf("stake account %d: %s (bump %d)\n", index, stakeAcctAddr, stakeAcctBump)
}
