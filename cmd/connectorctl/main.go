package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpapi "github.com/dataspace-connector/connector/internal/api/http"
	"github.com/dataspace-connector/connector/internal/app"
	"github.com/dataspace-connector/connector/internal/config"
	"github.com/dataspace-connector/connector/internal/domain/negotiation"
	"github.com/dataspace-connector/connector/internal/dsp"
	"github.com/dataspace-connector/connector/internal/infrastructure/postgres"
	"github.com/dataspace-connector/connector/internal/migrations"
	"github.com/dataspace-connector/connector/internal/seed"
)

var errInvalidMessage = errors.New("message is invalid")

func main() {
	cobra.OnInitialize(initConfig)
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errInvalidMessage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONNECTORCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "connectorctl",
		Short: "Dataspace connector tooling",
		Long: `connectorctl inspects and administers a dataspace connector.
Storage settings are read from the same environment as the server
(STORE, DATABASE_URL, SEED_FILE, ...); --store overrides STORE.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("json", false, "output JSON")
	root.PersistentFlags().String("store", "", "storage backend (memory|postgres)")
	_ = viper.BindPFlag("json", root.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("store", root.PersistentFlags().Lookup("store"))

	root.AddCommand(validateCmd())
	root.AddCommand(graphCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(assetsCmd())
	root.AddCommand(participantsCmd())
	root.AddCommand(hashTokenCmd())
	return root
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Validate a protocol message envelope",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			data, err := readSource(cmd.InOrStdin(), src)
			if err != nil {
				return err
			}
			v, err := dsp.NewValidator()
			if err != nil {
				return err
			}
			result := v.ValidateJSON(data)
			out := cmd.OutOrStdout()
			if viper.GetBool("json") {
				if err := printJSON(out, result); err != nil {
					return err
				}
			} else {
				printVerdict(out, result)
			}
			if !result.Valid {
				return errInvalidMessage
			}
			return nil
		},
	}
}

func printVerdict(out io.Writer, result dsp.Result) {
	if result.Valid {
		color.New(color.FgGreen, color.Bold).Fprintln(out, "valid")
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(out, "invalid (%d violations)\n", len(result.Errors))
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Path", "Description"})
	for _, e := range result.Errors {
		tw.AppendRow(table.Row{e.Path, e.Description})
	}
	tw.Render()
}

func graphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the negotiation state graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			graph := make(map[negotiation.State][]negotiation.State)
			for _, s := range negotiation.States() {
				graph[s] = negotiation.AllowedTransitions(s)
			}
			if viper.GetBool("json") {
				return printJSON(out, graph)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.AppendHeader(table.Row{"State", "Next", "Terminal"})
			for _, s := range negotiation.States() {
				next := make([]string, 0, len(graph[s]))
				for _, t := range graph[s] {
					next = append(next, string(t))
				}
				tw.AppendRow(table.Row{s, strings.Join(next, ", "), s.IsTerminal()})
			}
			tw.Render()
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store != config.StorePostgres {
				return fmt.Errorf("migrate requires the %s store, got %s", config.StorePostgres, cfg.Store)
			}
			pool, err := postgres.NewPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.RunMigrations(cmd.Context(), pool, migrations.Files); err != nil {
				return err
			}
			files, err := postgres.MigrationFiles(migrations.Files)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", f)
			}
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load participants and assets from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := seed.ParseFile(file)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := seed.Apply(ctx, doc, a.Participants, a.Assets, zerolog.Nop())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if viper.GetBool("json") {
					return printJSON(out, res)
				}
				fmt.Fprintf(out, "participants: %d created, %d skipped\n", res.ParticipantsCreated, res.ParticipantsSkipped)
				fmt.Fprintf(out, "assets: %d created, %d skipped\n", res.AssetsCreated, res.AssetsSkipped)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func assetsCmd() *cobra.Command {
	var participantID string
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Assets.List(ctx)
				if participantID != "" {
					items, err = a.Assets.ListByParticipant(ctx, participantID)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if viper.GetBool("json") {
					return printJSON(out, items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"ID", "External ID", "Type", "Title", "Version", "Status"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.ExternalID, it.AssetType, it.Title, it.Version, it.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&participantID, "participant", "", "owner participant id")
	return cmd
}

func participantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "participants",
		Short: "List participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Participants.List(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if viper.GetBool("json") {
					return printJSON(out, items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"ID", "DID", "Name", "Roles", "Status", "Trust"})
				for _, p := range items {
					roles := make([]string, 0, len(p.Roles))
					for _, r := range p.Roles {
						roles = append(roles, string(r))
					}
					tw.AppendRow(table.Row{p.ID, p.DID, p.Name, strings.Join(roles, ","), p.Status, p.TrustLevel})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func hashTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Print the bcrypt hash of an admin token for ADMIN_TOKEN_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return errors.New("token must not be empty")
			}
			hash, err := httpapi.HashToken(token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if store := viper.GetString("store"); store != "" {
		cfg.Store = strings.ToLower(store)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repos, err := app.OpenRepositories(ctx, cfg, zerolog.Nop())
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, repos, zerolog.Nop())
	if err != nil {
		repos.Close()
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func readSource(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(src)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
