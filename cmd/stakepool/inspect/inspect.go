package inspect

import (
	"encoding/hex"
	"fmt"
	"os"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.solstake.io/stakepool/pkg/accounts"
	"go.solstake.io/stakepool/pkg/sealevel"
	"go.solstake.io/stakepool/pkg/util"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "inspect",
		Short: "Decode and print stake pool program accounts",
		Run:   run,
	}

	dataPath string
	key      string
	cacheDir string
)

func init() {
	Cmd.Flags().StringVarP(&dataPath, "file", "f", "", "Path to raw account data")
	Cmd.Flags().StringVarP(&key, "key", "k", "", "Account address")
	Cmd.Flags().StringVarP(&cacheDir, "cache-dir", "c", "", "Account cache directory")
}

func run(c *cobra.Command, args []string) {
	if key == "" {
		klog.Exitf("must specify an account address")
	}

	pubkey, err := solana.PublicKeyFromBase58(key)
	if err != nil {
		klog.Exitf("invalid account address: %v", err)
	}

	var cache *accounts.PersistentAccounts
	if cacheDir != "" {
		cache, err = accounts.OpenPersistentAccounts(cacheDir)
		if err != nil {
			klog.Exitf("failed to open account cache: %v", err)
		}
		defer cache.Close()
	}

	var data []byte
	if dataPath != "" {
		data, err = os.ReadFile(dataPath)
		if err != nil {
			klog.Exitf("failed to read account data: %v", err)
		}
	} else if cache != nil {
		pk := [32]byte(pubkey)
		acct, err := cache.GetAccount(&pk)
		if err != nil {
			klog.Exitf("account not found in cache: %v", err)
		}
		data = acct.Data
	} else {
		klog.Exitf("must specify an account data file or a cache directory")
	}

	if len(data) == 0 {
		klog.Exitf("account has no data")
	}

	err = printAccount(pubkey, data)
	if err != nil {
		klog.Exitf("failed to decode account: %v", err)
	}

	acct := accounts.Account{Key: pubkey, Data: data, Owner: sealevel.StakePoolProgramAddr}
	fmt.Printf("fingerprint: %s\n", hex.EncodeToString(util.CalculateAcctHash(acct)))

	if cache != nil && dataPath != "" {
		pk := [32]byte(pubkey)
		err = cache.SetAccount(&pk, &acct)
		if err != nil {
			klog.Exitf("failed to cache account: %v", err)
		}
	}
}

func printAccount(pubkey solana.PublicKey, data []byte) error {
	decoder := bin.NewBinDecoder(data)

	switch data[0] {

	case sealevel.StakePoolAccountKeyProgramAuthority:
		var authority sealevel.ProgramAuthorityState
		err := authority.UnmarshalWithDecoder(decoder)
		if err != nil {
			return err
		}
		fmt.Printf("program authority %s\n", pubkey)
		fmt.Printf("  authority: %s\n", authority.Authority)
		if authority.PendingAuthority != nil {
			fmt.Printf("  pending authority: %s\n", *authority.PendingAuthority)
		}
		fmt.Printf("  authorized creators (%d):\n", authority.CreatorCount)
		for _, creator := range authority.AuthorizedCreators {
			if creator != nil {
				fmt.Printf("    %s\n", *creator)
			}
		}

	case sealevel.StakePoolAccountKeyStakePool:
		var pool sealevel.StakePoolState
		err := pool.UnmarshalWithDecoder(decoder)
		if err != nil {
			return err
		}
		fmt.Printf("stake pool %s (id %d)\n", pubkey, pool.PoolId)
		fmt.Printf("  stake mint: %s\n", pool.StakeMint)
		fmt.Printf("  reward mint: %s\n", pool.RewardMint)
		fmt.Printf("  stake vault: %s\n", pool.StakeVault)
		fmt.Printf("  reward vault: %s\n", pool.RewardVault)
		fmt.Printf("  total staked: %d\n", pool.TotalStaked)
		fmt.Printf("  total rewards owed: %d\n", pool.TotalRewardsOwed)
		fmt.Printf("  reward rate: %d\n", pool.RewardRate)
		fmt.Printf("  min stake amount: %d\n", pool.MinStakeAmount)
		fmt.Printf("  lockup period: %d seconds (enforced: %t)\n", pool.LockupPeriod, pool.EnforceLockup)
		fmt.Printf("  paused: %t\n", pool.IsPaused)
		if pool.PoolEndDate != nil {
			fmt.Printf("  pool end date: %d\n", *pool.PoolEndDate)
		}
		if pool.PendingRewardRate != nil {
			fmt.Printf("  pending reward rate: %d\n", *pool.PendingRewardRate)
		}
		if pool.RewardRateChangeTimestamp != nil {
			fmt.Printf("  rate change proposed at: %d\n", *pool.RewardRateChangeTimestamp)
		}
		if pool.LastRateChange != nil {
			fmt.Printf("  last rate change: %d\n", *pool.LastRateChange)
		}

	case sealevel.StakePoolAccountKeyStakeAccount:
		var stakeAcct sealevel.StakeAccountState
		err := stakeAcct.UnmarshalWithDecoder(decoder)
		if err != nil {
			return err
		}
		fmt.Printf("stake account %s (index %d)\n", pubkey, stakeAcct.Index)
		fmt.Printf("  pool: %s\n", stakeAcct.Pool)
		fmt.Printf("  owner: %s\n", stakeAcct.Owner)
		fmt.Printf("  amount staked: %d\n", stakeAcct.AmountStaked)
		fmt.Printf("  stake timestamp: %d\n", stakeAcct.StakeTimestamp)
		fmt.Printf("  claimed rewards: %d\n", stakeAcct.ClaimedRewards)

	default:
		return fmt.Errorf("unknown account discriminator %d", data[0])
	}

	return nil
}
