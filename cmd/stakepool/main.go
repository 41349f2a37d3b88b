package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.solstake.io/stakepool/cmd/stakepool/derive"
	"go.solstake.io/stakepool/cmd/stakepool/inspect"
	"go.solstake.io/stakepool/cmd/stakepool/rewards"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:   "stakepool",
	Short: "Token staking pool tooling",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(
		&derive.Cmd,
		&inspect.Cmd,
		&rewards.Cmd,
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}
