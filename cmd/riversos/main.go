// Command riversos runs the Hello Security digital vCISO: threat feed
// collection, daily briefings, the learning console, the web interface, and
// the MCP tool surface.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/hellosecurity/riversos/briefing"
	"github.com/hellosecurity/riversos/chat"
	"github.com/hellosecurity/riversos/config"
	"github.com/hellosecurity/riversos/dashboard"
	"github.com/hellosecurity/riversos/dbopen"
	"github.com/hellosecurity/riversos/intel"
	"github.com/hellosecurity/riversos/learning"
	"github.com/hellosecurity/riversos/mcpserver"
	"github.com/hellosecurity/riversos/soc"
	"github.com/hellosecurity/riversos/web"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "riversos",
		Short: "RiversOS - Advanced Self-Learning Digital vCISO",
		Long: `RiversOS is Hello Security LLC's digital vCISO: it collects threat
intelligence, produces daily briefings, and answers security questions
through a self-learning console, web interface, and MCP tools.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (default riversos.yaml if present)")

	root.AddCommand(chatCmd(), serveCmd(), briefCmd(), collectCmd(), mcpCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wired components every subcommand shares.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	engine    *learning.Engine
	socStore  *soc.Store
	dash      *dashboard.Dashboard
	collector *intel.Collector
	generator *briefing.Generator

	dbs []*sql.DB
}

// newApp loads config, sets up logging, opens both databases, and
// constructs the component graph. logOut lets the mcp subcommand keep
// stdout free for the protocol.
func newApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}

	knowledgeDB, err := dbopen.Open(cfg.KnowledgeDB, dbopen.WithMkdirAll())
	if err != nil {
		return nil, fmt.Errorf("knowledge db: %w", err)
	}
	a.dbs = append(a.dbs, knowledgeDB)

	learnStore := learning.NewStore(knowledgeDB)
	if err := learnStore.Init(); err != nil {
		a.Close()
		return nil, fmt.Errorf("knowledge schema: %w", err)
	}
	a.engine = learning.NewEngine(learnStore, learning.Config{}, logger)

	socDB, err := dbopen.Open(cfg.SOCDB, dbopen.WithMkdirAll())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("soc db: %w", err)
	}
	a.dbs = append(a.dbs, socDB)

	a.socStore = soc.NewStore(socDB)
	if err := a.socStore.Init(); err != nil {
		a.Close()
		return nil, fmt.Errorf("soc schema: %w", err)
	}

	a.dash = dashboard.New(dashboard.Config{
		RefreshInterval: cfg.RefreshInterval(),
	}, a.socStore, a.engine, logger)

	cache, err := intel.NewCache(cfg.CacheDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("intel cache: %w", err)
	}
	a.collector = intel.NewCollector(intel.Config{
		ThreatFoxURL: cfg.Intel.ThreatFoxURL,
		URLhausURL:   cfg.Intel.URLhausURL,
		CISAKEVURL:   cfg.Intel.CISAKEVURL,
		InsightURLs:  cfg.Intel.InsightURLs,
		Fetch:        intel.FetchConfig{Timeout: cfg.FetchTimeout()},
	}, cache, logger)

	a.generator = briefing.NewGenerator(briefing.Config{
		Company:   cfg.Briefing.Company,
		Tagline:   cfg.Briefing.Tagline,
		Contact:   cfg.Briefing.Contact,
		OutputDir: cfg.OutputDir,
		Denylist:  cfg.Briefing.Denylist,
	}, logger)

	return a, nil
}

func (a *app) Close() {
	for _, db := range a.dbs {
		db.Close()
	}
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// collect gathers IOCs and insights and feeds the observations into the
// learning engine.
func (a *app) collect(ctx context.Context) ([]learning.Observation, []intel.Insight) {
	iocs := a.collector.CollectIOCs(ctx)
	insights := a.collector.CollectInsights(ctx)
	a.engine.ProcessObservations(ctx, iocs)
	return iocs, insights
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive vCISO console",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			go a.dash.Run(ctx)

			fmt.Println("Collecting threat intelligence...")
			iocs, insights := a.collect(ctx)
			fmt.Println("Generating threat briefing...")
			fmt.Println(a.generator.Generate(iocs, insights))

			session := chat.NewSession(chat.Config{
				Contact: a.cfg.Briefing.Contact,
				Tagline: a.cfg.Briefing.Tagline,
			}, a.engine, a.socStore, a.dash, iocs, insights, a.logger)
			return session.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp(os.Stdout)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			go a.dash.Run(ctx)

			iocs, insights := a.collect(ctx)
			session := chat.NewSession(chat.Config{
				Contact: a.cfg.Briefing.Contact,
				Tagline: a.cfg.Briefing.Tagline,
			}, a.engine, a.socStore, a.dash, iocs, insights, a.logger)

			srv := web.NewServer(web.Config{
				Addr:          a.cfg.Web.Addr,
				BasicAuthUser: a.cfg.Web.BasicAuthUser,
				BasicAuthHash: a.cfg.Web.BasicAuthHash,
			}, a.engine, a.socStore, a.dash, session, a.logger)
			return srv.Serve(ctx)
		},
	}
}

func briefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brief",
		Short: "Collect intelligence and produce the daily briefing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			iocs, insights := a.collect(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), a.generator.Generate(iocs, insights))
			return nil
		},
	}
}

func collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Fetch threat feeds and update the knowledge base",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			iocs, insights := a.collect(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Collected %d IOCs and %d insights\n", len(iocs), len(insights))
			return nil
		},
	}
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP tools over stdio",
		RunE: func(_ *cobra.Command, _ []string) error {
			// stdout carries the protocol, so logs go to stderr.
			a, err := newApp(os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			go a.dash.Run(ctx)

			return mcpserver.NewService(a.engine, a.dash).Run(ctx)
		},
	}
}
