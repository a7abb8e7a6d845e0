package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/tweetsmith/backend/internal/config"
	tweetmodel "github.com/zhouzirui/tweetsmith/backend/internal/model/tweet"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/ai"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/publish"
)

var (
	timeoutFlag time.Duration
	toneFlag    string
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relayctl",
		Short: "手动调试 tweetsmith 上游服务",
		Long: `relayctl 绕过 HTTP 层，直接用当前环境变量调用模型与发布服务。

Examples:
  relayctl chat "hello there"
  relayctl tweet "golang generics" --tone witty
  relayctl post "shipping today"
  relayctl config`,
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 45*time.Second, "请求超时时间")

	tweetCmd := &cobra.Command{
		Use:   "tweet <topic>",
		Short: "生成一条不超过 280 字符的推文",
		Args:  cobra.ExactArgs(1),
		RunE:  runTweet,
	}
	tweetCmd.Flags().StringVar(&toneFlag, "tone", tweetmodel.DefaultTone, "推文语气")

	root.AddCommand(
		&cobra.Command{
			Use:   "chat <message>",
			Short: "发送一条聊天消息并打印回复",
			Args:  cobra.ExactArgs(1),
			RunE:  runChat,
		},
		tweetCmd,
		&cobra.Command{
			Use:   "post <text>",
			Short: "把文本发布到推文服务",
			Args:  cobra.ExactArgs(1),
			RunE:  runPost,
		},
		&cobra.Command{
			Use:   "config",
			Short: "打印生效配置（密钥已打码）",
			Args:  cobra.NoArgs,
			RunE:  runConfig,
		},
	)
	return root
}

func newAIService(ctx context.Context) (*ai.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("配置加载失败: %w", err)
	}
	if !cfg.AI.Enabled() {
		log.Printf("[WARN] %s 凭证缺失，请求可能被上游拒绝", cfg.AI.Provider)
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("创建模型失败: %w", err)
	}
	return ai.NewService(ctx, chatModel)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	svc, err := newAIService(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	reply, err := svc.Reply(ctx, args[0])
	if err != nil {
		return fmt.Errorf("chat 调用失败: %w", err)
	}
	log.Printf("[chat] 完成，耗时 %s", time.Since(start).Round(time.Millisecond))
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

func runTweet(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	svc, err := newAIService(ctx)
	if err != nil {
		return err
	}

	text, err := svc.Tweet(ctx, args[0], toneFlag)
	if err != nil {
		return fmt.Errorf("tweet 生成失败: %w", err)
	}
	text = tweetmodel.Truncate(text)
	log.Printf("[tweet] 长度 %d/%d", len([]rune(text)), tweetmodel.MaxLength)
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func runPost(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeoutFlag)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("配置加载失败: %w", err)
	}

	publisher := publish.NewPublisher(cfg.Posting, nil)
	reply, err := publisher.Post(ctx, args[0])
	if err != nil {
		return fmt.Errorf("发布失败: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", reply.Message, reply.RedirectURL)
	return nil
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("配置加载失败: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "server.addr           %s\n", cfg.Server.Addr)
	fmt.Fprintf(out, "server.allowed_origin %s\n", cfg.Server.AllowedOrigin)
	fmt.Fprintf(out, "ai.provider           %s\n", cfg.AI.Provider)
	fmt.Fprintf(out, "ai.model              %s\n", cfg.AI.Model)
	fmt.Fprintf(out, "ai.base_url           %s\n", cfg.AI.BaseURL)
	fmt.Fprintf(out, "ai.api_key            %s\n", mask(cfg.AI.APIKey))
	fmt.Fprintf(out, "ai.ark_api_key        %s\n", mask(cfg.AI.ArkAPIKey))
	fmt.Fprintf(out, "ai.timeout            %s\n", cfg.AI.Timeout)
	fmt.Fprintf(out, "eventlog.url          %s\n", cfg.EventLog.URL)
	fmt.Fprintf(out, "eventlog.key          %s\n", mask(cfg.EventLog.Key))
	fmt.Fprintf(out, "eventlog.database     %s\n", mask(cfg.EventLog.DatabaseURL))
	fmt.Fprintf(out, "eventlog.strict       %t\n", cfg.EventLog.Strict)
	fmt.Fprintf(out, "posting.endpoint      %s\n", cfg.Posting.Endpoint)
	fmt.Fprintf(out, "posting.ui_base_url   %s\n", cfg.Posting.UIBaseURL)
	fmt.Fprintf(out, "posting.username      %s\n", cfg.Posting.Username)
	fmt.Fprintf(out, "posting.api_key       %s\n", mask(cfg.Posting.APIKey))
	return nil
}

// mask 只保留前四个字符
func mask(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", 8)
}
