// article-analyzer analyzes articles with two language-model providers
// and reconciles their feedback into one improvement plan.
//
// Usage:
//
//	article-analyzer serve [--addr :8000]
//	article-analyzer analyze [--file article.txt] [--topic "search term"] [--format json|yaml]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "article-analyzer",
		Short: "Two-provider article analysis with a synthesized improvement plan",
		Long: "article-analyzer sends an article to two language-model providers for\n" +
			"independent analysis, then asks a third call to reconcile both into one\n" +
			"prioritized improvement plan.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment from this file instead of ./.env")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newAnalyzeCmd(opts))
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
