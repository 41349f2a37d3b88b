package rewards

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.solstake.io/stakepool/pkg/sealevel"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

var (
	Cmd = cobra.Command{
		Use:   "rewards",
		Short: "Project rewards for stake positions from a pool config",
		Run:   run,
	}

	configPath  string
	currentTime int64
)

func init() {
	Cmd.Flags().StringVarP(&configPath, "config", "c", "", "Pool config file")
	Cmd.Flags().Int64VarP(&currentTime, "time", "t", 0, "Evaluation time (unix seconds)")
}

type poolConfig struct {
	RewardRate   uint64     `yaml:"reward_rate"`
	LockupPeriod int64      `yaml:"lockup_period"`
	Positions    []position `yaml:"positions"`
}

type position struct {
	Name           string `yaml:"name"`
	AmountStaked   uint64 `yaml:"amount_staked"`
	StakeTimestamp int64  `yaml:"stake_timestamp"`
	ClaimedRewards uint64 `yaml:"claimed_rewards"`
}

func run(c *cobra.Command, args []string) {
	if configPath == "" {
		klog.Exitf("must specify a pool config file")
	}

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		klog.Exitf("failed to read config: %v", err)
	}

	var config poolConfig
	err = yaml.Unmarshal(configBytes, &config)
	if err != nil {
		klog.Exitf("failed to parse config: %v", err)
	}

	if config.RewardRate > sealevel.MaxRewardRate {
		klog.Exitf("reward rate %d exceeds maximum %d", config.RewardRate, uint64(sealevel.MaxRewardRate))
	}
	if config.LockupPeriod < 1 {
		klog.Exitf("lockup period must be at least 1 second")
	}

	pool := sealevel.StakePoolState{
		RewardRate:   config.RewardRate,
		LockupPeriod: config.LockupPeriod,
	}

	var totalOwed uint64
	for _, pos := range config.Positions {
		rewards, err := pool.CalculateRewards(pos.AmountStaked, pos.StakeTimestamp, currentTime)
		if err != nil {
			klog.Exitf("reward calculation failed for %q: %v", pos.Name, err)
		}

		var unclaimed uint64
		if rewards > pos.ClaimedRewards {
			unclaimed = rewards - pos.ClaimedRewards
		}

		lockupEnds := pos.StakeTimestamp + config.LockupPeriod
		fmt.Printf("%s: staked %d, lockup ends %d, rewards %d, unclaimed %d\n",
			pos.Name, pos.AmountStaked, lockupEnds, rewards, unclaimed)

		totalOwed += unclaimed
	}

	fmt.Printf("total unclaimed rewards: %d\n", totalOwed)
}
