package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/internal/app"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/ingest"
	"github.com/johnquangdev/meeting-knowledge/pkg/config"
	"github.com/johnquangdev/meeting-knowledge/pkg/jwt"
)

var (
	verbose bool
	tags    []string
)

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Manage the meeting knowledge store",
	Long: `kbctl ingests documents, web and Notion pages, asks questions against the
knowledge graph, runs housekeeping and mints API tokens. It reads the same
environment configuration as the API server.`,
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and apply index migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg)
		if err != nil {
			return err
		}
		defer database.CloseDB(db)

		down, _ := cmd.Flags().GetInt("down")
		if down > 0 {
			n, err := database.RollbackMigrations(db, down)
			if err != nil {
				return err
			}
			fmt.Printf("Rolled back %d migrations\n", n)
			return nil
		}
		return database.AutoMigrate(db)
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Chunk, embed and store a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		url, _ := cmd.Flags().GetString("url")
		if url == "" {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			url = "file://" + abs
		}
		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		sourceType, _ := cmd.Flags().GetString("type")
		if sourceType == "" {
			sourceType = sourceTypeFor(path)
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			result, err := a.Ingest.AddKnowledgeSource(ctx, ingest.SourceInput{
				URL:        url,
				Title:      title,
				Content:    string(content),
				SourceType: sourceType,
				Tags:       tags,
			})
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var notionCmd = &cobra.Command{
	Use:   "notion <page-id>",
	Short: "Import a Notion page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			result, err := a.Ingest.ImportNotionPage(ctx, args[0], tags)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Fetch a web page and ingest its content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			result, err := a.Ingest.CrawlURL(ctx, args[0], tags)
			if err != nil {
				return err
			}
			return printJSON(result)
		})
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <meeting-id>",
	Short: "Summarize a meeting with the language model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid meeting id %q: %w", args[0], err)
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			m, err := a.Assistant.SummarizeMeeting(ctx, id)
			if err != nil {
				return err
			}
			fmt.Println(*m.Summary)
			return nil
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the knowledge store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		contextOnly, _ := cmd.Flags().GetBool("context")

		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			if contextOnly {
				bundle, err := a.Assistant.Context(ctx, question)
				if err != nil {
					return err
				}
				fmt.Println(bundle.Render())
				return nil
			}

			answer, err := a.Assistant.Ask(ctx, question)
			if err != nil {
				return err
			}
			fmt.Println(answer.Answer)
			return nil
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete chunks whose knowledge source no longer exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			n, err := a.Knowledge.CleanupOrphanedChunks(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d orphaned chunks\n", n)
			return nil
		})
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "End stale meetings and remove orphaned chunks once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
			report := a.Sweeper.Sweep(ctx)
			if err := printJSON(report); err != nil {
				return err
			}
			if len(report.Errors) > 0 {
				return fmt.Errorf("%d maintenance jobs failed", len(report.Errors))
			}
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint an API token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		scopes, _ := cmd.Flags().GetStringSlice("scope")
		for _, s := range scopes {
			if s != jwt.ScopeRead && s != jwt.ScopeWrite {
				return fmt.Errorf("unknown scope %q, want %s or %s", s, jwt.ScopeRead, jwt.ScopeWrite)
			}
		}

		token, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry).GenerateToken(args[0], scopes)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log collaborator and store activity")

	migrateCmd.Flags().Int("down", 0, "roll back this many index migrations instead")

	ingestCmd.Flags().String("url", "", "source URL (default file://<absolute path>)")
	ingestCmd.Flags().String("title", "", "source title (default file name)")
	ingestCmd.Flags().String("type", "", "source type: web, pdf, markdown, text, notion or file")
	ingestCmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	notionCmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	crawlCmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")

	askCmd.Flags().Bool("context", false, "print the assembled context instead of asking the language model")

	tokenCmd.Flags().StringSlice("scope", []string{jwt.ScopeRead}, "scope to grant: read or write (repeatable)")

	rootCmd.AddCommand(migrateCmd, ingestCmd, notionCmd, crawlCmd, summarizeCmd, askCmd, cleanupCmd, sweepCmd, tokenCmd)
}

// withApp loads the configuration, wires the application and runs fn
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if verbose {
		if logger, err = app.NewLogger(cfg); err != nil {
			return err
		}
		defer logger.Sync()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func sourceTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown"
	case ".txt":
		return "text"
	case ".pdf":
		return "pdf"
	case ".html", ".htm":
		return "web"
	default:
		return "file"
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
