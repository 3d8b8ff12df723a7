package cmd

import (
	"fmt"
	"net/url"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vanducng/emojiwatch/internal/config"
	"github.com/vanducng/emojiwatch/internal/emoji"
	"github.com/vanducng/emojiwatch/internal/watch"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("emojiwatch doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, defaults apply)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  OneBot:")
	if u, urlErr := url.Parse(cfg.OneBot.WSURL); urlErr != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		fmt.Printf("    %-12s %s (NOT a ws:// or wss:// URL)\n", "Endpoint:", cfg.OneBot.WSURL)
	} else {
		fmt.Printf("    %-12s %s\n", "Endpoint:", cfg.OneBot.WSURL)
	}
	if cfg.OneBot.AccessToken != "" {
		fmt.Printf("    %-12s set (EMOJIWATCH_ONEBOT_TOKEN)\n", "Token:")
	} else {
		fmt.Printf("    %-12s not set\n", "Token:")
	}

	pool := emoji.NewPool(cfg.Reaction.EmojiRangeStart, cfg.Reaction.EmojiRangeEnd)
	mapping := emoji.ParseMapping(cfg.Reaction.EmotionsMapping)
	fmt.Println()
	fmt.Println("  Reaction:")
	fmt.Printf("    %-12s %s\n", "Strategy:", cfg.Reaction.EmojiSelectStrategy)
	fmt.Printf("    %-12s [%d, %d) = %d ids\n", "Pool:",
		cfg.Reaction.EmojiRangeStart, cfg.Reaction.EmojiRangeEnd, pool.Size())
	fmt.Printf("    %-12s %d of %d entries parsed\n", "Emotions:",
		mapping.Len(), len(cfg.Reaction.EmotionsMapping))
	if cfg.Reaction.EmojiSelectStrategy == emoji.StrategyEmotionLLM {
		fmt.Printf("    %-12s %s / %s\n", "Judge:", cfg.Classifier.JudgeProviderID, cfg.Classifier.Model)
		if cfg.Classifier.APIKey == "" {
			fmt.Printf("    %-12s NOT SET (EMOJIWATCH_CLASSIFIER_API_KEY)\n", "API key:")
		} else {
			fmt.Printf("    %-12s set\n", "API key:")
		}
	}

	fmt.Println()
	fmt.Println("  Monitor:")
	fmt.Printf("    %-12s %s\n", "On removal:", cfg.Monitor.UnmonitorStrategy)
	fmt.Printf("    %-12s %d entries\n", "Push rules:", len(cfg.Monitor.PushList))
	for _, entry := range cfg.Monitor.PushList {
		if rule, ok := watch.ParseRule(entry); ok {
			fmt.Printf("      OK      %s (%d sources)\n", rule.Destination, len(rule.Sources))
		} else {
			fmt.Printf("      BROKEN  %q\n", entry)
		}
	}
}
