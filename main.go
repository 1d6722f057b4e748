package main

import (
	"context"
	"fmt"
	"os"

	"originality-bot/bot"
	"originality-bot/config"
	"originality-bot/database"
	"originality-bot/handlers"
	"originality-bot/utils"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "originality-bot",
	Short: "Discord bot that removes repeated text and reposted images",
	Long: `Deletes messages whose text was already said in the originality channels,
and points out images that were posted before anywhere in the server.

Configuration is read from .env, config.yaml and the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置并初始化日志
		if err := config.LoadConfig(); err != nil {
			return err
		}
		cfg := config.Bot()
		return utils.InitLogger(utils.LoggerConfig{
			Debug:     cfg.Debug,
			SentryDSN: cfg.SentryDSN,
			Tags:      map[string]string{"service": "originality-bot"},
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return bot.Run(handlers.Register)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and start policing messages (default)",
	RunE:  rootCmd.RunE,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := database.Open(config.Bot().DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.CountImageHashes(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema ready at %s (%d images recorded)\n", config.Bot().DatabasePath, n)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget recorded text and/or images",
	Long: `Clear the duplicate records so everything may be posted again.

Eventually every short string will have been said; this starts over.

Examples:
  originality-bot reset --text           # forget all text
  originality-bot reset --images         # forget all images
  originality-bot reset --text --images  # forget everything`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetBool("text")
		images, _ := cmd.Flags().GetBool("images")
		if !text && !images {
			return fmt.Errorf("nothing to reset: pass --text and/or --images")
		}

		store, err := database.Open(config.Bot().DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		return reset(cmd.Context(), store, text, images, func(format string, a ...any) {
			fmt.Fprintf(cmd.OutOrStdout(), format, a...)
		})
	},
}

func reset(ctx context.Context, store *database.Store, text, images bool, printf func(string, ...any)) error {
	if text {
		n, err := store.ResetTextHashes(ctx)
		if err != nil {
			return err
		}
		printf("Removed %d text records\n", n)
	}
	if images {
		n, err := store.ResetImageHashes(ctx)
		if err != nil {
			return err
		}
		printf("Removed %d image records\n", n)
	}
	return nil
}

func init() {
	resetCmd.Flags().Bool("text", false, "forget recorded text digests")
	resetCmd.Flags().Bool("images", false, "forget recorded image fingerprints")

	rootCmd.AddCommand(runCmd, schemaCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
