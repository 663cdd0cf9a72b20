package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dyike/xagent/internal/api"
	"github.com/dyike/xagent/internal/display"
	"github.com/dyike/xagent/internal/models"
	"github.com/dyike/xagent/internal/panels"
)

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func (a *app) newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize your posts and suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			dashboard := panels.NewDashboardPanel(a.client.Content(), st, a.cfg.ConfidenceThreshold)
			suggestions := panels.NewSuggestionsPanel(a.client.Content(), st)
			suggestions.Configure(a.cfg.SuggestionBatch, a.cfg.ConfidenceThreshold)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return dashboard.Load(ctx) })
			g.Go(func() error { return suggestions.Load(ctx) })
			if err := g.Wait(); err != nil {
				return fmt.Errorf("failed to load dashboard: %w", err)
			}

			overview := dashboard.Overview()
			return a.write(cmd.OutOrStdout(), overview, func(w io.Writer) {
				fmt.Fprint(w, display.Overview(overview))
			})
		},
	}
}

func (a *app) newSuggestionsCmd() *cobra.Command {
	var high bool
	var topic string
	cmd := &cobra.Command{
		Use:     "suggestions",
		Aliases: []string{"sg"},
		Short:   "List post suggestions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.suggestionsPanel()
			if err := p.Load(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load suggestions: %w", err)
			}
			switch {
			case high:
				p.SetView(panels.ViewHighConfidence)
			case topic != "":
				p.SetView(panels.ViewByTopic)
				p.SetQuery(topic)
			}
			list := p.Visible()
			return a.write(cmd.OutOrStdout(), list, func(w io.Writer) {
				fmt.Fprint(w, display.Suggestions(list, p.Threshold()))
			})
		},
	}
	cmd.Flags().BoolVar(&high, "high", false, "Only high-confidence suggestions")
	cmd.Flags().StringVar(&topic, "topic", "", "Only suggestions with a matching topic")
	cmd.AddCommand(a.newGenerateCmd(), a.newApproveCmd())
	return cmd
}

func (a *app) suggestionsPanel() *panels.SuggestionsPanel {
	p := panels.NewSuggestionsPanel(a.client.Content(), a.store())
	p.Configure(a.cfg.SuggestionBatch, a.cfg.ConfidenceThreshold)
	return p
}

func (a *app) newGenerateCmd() *cobra.Command {
	var topics []string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one new suggestion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.suggestionsPanel()
			if err := p.Generate(cmd.Context(), topics); err != nil {
				return fmt.Errorf("failed to generate suggestion: %w", err)
			}
			if p.Error() != "" {
				return fmt.Errorf("%s", p.Error())
			}
			created := p.All()[:1]
			return a.write(cmd.OutOrStdout(), created[0], func(w io.Writer) {
				fmt.Fprint(w, display.Suggestions(created, p.Threshold()))
			})
		},
	}
	cmd.Flags().StringSliceVar(&topics, "topics", nil, "Topics to write about, comma separated")
	return cmd
}

func (a *app) newApproveCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "approve ID",
		Short: "Publish a suggestion from the current batch",
		Long: `Load the current batch of suggestions and publish the one with the given
id. Use --text to publish an edited version instead of the suggested text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.suggestionsPanel()
			if err := p.Load(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load suggestions: %w", err)
			}
			post, err := p.Approve(cmd.Context(), args[0], text)
			if err != nil {
				return fmt.Errorf("failed to publish suggestion %s: %w", args[0], err)
			}
			return a.write(cmd.OutOrStdout(), post, func(w io.Writer) {
				display.Success(w, "Published")
				fmt.Fprint(w, display.Post(post))
			})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Publish this text instead of the suggestion")
	return cmd
}

type analysisReport struct {
	Analysis models.PostAnalysis `json:"analysis" yaml:"analysis"`
	Replies  []models.ReplyOption `json:"replies" yaml:"replies"`
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	var mention bool
	var score float64
	cmd := &cobra.Command{
		Use:   "analyze TEXT...",
		Short: "Analyze a post and draft replies to it",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := panels.NewAnalysisPanel(a.client.Content(), a.store())
			p.SetReplyCount(a.cfg.ReplyCount)
			p.SetText(joinArgs(args))
			p.SetMention(mention)
			p.SetTrendingScore(score)
			if err := p.Analyze(cmd.Context()); err != nil {
				return fmt.Errorf("analysis failed: %s", api.MessageOf(err))
			}
			report := analysisReport{Analysis: *p.Analysis(), Replies: p.Options()}
			return a.write(cmd.OutOrStdout(), report, func(w io.Writer) {
				fmt.Fprint(w, display.Analysis(report.Analysis))
				fmt.Fprintln(w)
				fmt.Fprint(w, display.Replies(report.Replies))
			})
		},
	}
	cmd.Flags().BoolVar(&mention, "mention", false, "The post mentions you")
	cmd.Flags().Float64Var(&score, "score", 0, "Trending score of the post, 0 to 1")
	return cmd
}

func (a *app) newRepliesCmd() *cobra.Command {
	req := api.ReplyRequest{}
	cmd := &cobra.Command{
		Use:   "replies TEXT...",
		Short: "Draft reply options for a post",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Text = joinArgs(args)
			if req.Count == 0 {
				req.Count = a.cfg.ReplyCount
			}
			options, err := a.client.Content().GenerateReplyOptions(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to generate replies: %w", err)
			}
			options = models.RankReplies(options)
			return a.write(cmd.OutOrStdout(), options, func(w io.Writer) {
				fmt.Fprint(w, display.Replies(options))
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVarP(&req.Count, "count", "n", 0, "Number of options (default from settings)")
	flags.BoolVar(&req.IsMention, "mention", false, "The post mentions you")
	flags.Float64Var(&req.TrendingScore, "score", 0, "Trending score of the post, 0 to 1")
	return cmd
}

func (a *app) newTrendingCmd() *cobra.Command {
	var filter string
	var count int
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Show trending posts",
		Long: `Fetch trending posts. --filter takes all, engagement (most engaged first),
tech, crypto or keyword:<text>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := panels.ParseFilter(filter)
			if err != nil {
				return err
			}
			p := panels.NewTrendingPanel(a.client.Content(), a.store())
			p.SetFeedSize(a.cfg.FeedSize)
			if count > 0 {
				p.SetFeedSize(count)
			}
			p.SetFilter(f)
			if err := p.Load(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load trending posts: %w", err)
			}
			posts := p.Posts()
			return a.write(cmd.OutOrStdout(), posts, func(w io.Writer) {
				fmt.Fprint(w, display.Posts(posts))
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Filter: all, engagement, tech, crypto or keyword:<text>")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of posts to fetch (default from settings)")
	return cmd
}

func (a *app) newPostsCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "posts [USERNAME]",
		Short: "Show recent posts of a user, yourself by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var username string
			if len(args) == 1 {
				username = strings.TrimPrefix(args[0], "@")
			} else {
				st, err := a.signedIn(cmd.Context())
				if err != nil {
					return err
				}
				user := st.Snapshot().User
				username = user.Username
				if h, ok := user.Handle(models.PlatformX); ok {
					username = h
				}
			}
			posts, err := a.client.Content().GetUserPosts(cmd.Context(), username, count)
			if err != nil {
				return fmt.Errorf("failed to load posts of %s: %w", username, err)
			}
			return a.write(cmd.OutOrStdout(), posts, func(w io.Writer) {
				fmt.Fprint(w, display.Posts(posts))
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of posts")
	return cmd
}

func (a *app) newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish TEXT...",
		Short: "Publish a post",
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := a.client.Content().PublishPost(cmd.Context(), joinArgs(args))
			if err != nil {
				return fmt.Errorf("failed to publish: %w", err)
			}
			return a.writePost(cmd.OutOrStdout(), "Published", post)
		},
	}
}

func (a *app) newReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply POST_ID TEXT...",
		Short: "Reply to a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := panels.NewTrendingPanel(a.client.Content(), a.store())
			post, err := p.Reply(cmd.Context(), args[0], joinArgs(args[1:]))
			if err != nil {
				return fmt.Errorf("failed to reply to %s: %w", args[0], err)
			}
			return a.writePost(cmd.OutOrStdout(), "Replied", post)
		},
	}
}

func (a *app) newRepostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repost POST_ID TEXT...",
		Short: "Repost a post with a comment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := panels.NewTrendingPanel(a.client.Content(), a.store())
			post, err := p.Quote(cmd.Context(), args[0], joinArgs(args[1:]))
			if err != nil {
				return fmt.Errorf("failed to repost %s: %w", args[0], err)
			}
			return a.writePost(cmd.OutOrStdout(), "Reposted", post)
		},
	}
}

func (a *app) writePost(out io.Writer, headline string, post models.Post) error {
	return a.write(out, post, func(w io.Writer) {
		display.Success(w, headline)
		fmt.Fprint(w, display.Post(post))
	})
}
