package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"thingslens/internal/config"
	"thingslens/internal/db"
	"thingslens/internal/domain"
	"thingslens/internal/engine"
	"thingslens/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "tl",
	Short: "Thingslens CLI",
	Long: `Thingslens reads the Things 3 database directly and answers questions
the app's lists answer on screen: what is in Today, what is scheduled for a
day or range, what matches a search. It never writes to the store.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("THINGSLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("db", "", "path to main.sqlite (default: discover the Things 3 store)")
	rootCmd.PersistentFlags().String("config", "", "path to thingslens.yml")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(dateCmd())
	rootCmd.AddCommand(rangeCmd())
	rootCmd.AddCommand(listsCmd())
	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(serveCmd())
}

func listCmd() *cobra.Command {
	var includeCompleted bool
	cmd := &cobra.Command{
		Use:   "list [name]",
		Short: "Show a list (today, tomorrow, upcoming, anytime, someday, inbox, all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "all"
			if len(args) == 1 {
				name = args[0]
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tasks, err := e.ListBucket(ctx, name, includeCompleted)
				if err != nil {
					return err
				}
				return printTasks(tasks)
			})
		},
	}
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "include completed and canceled tasks")
	return cmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <uuid>",
		Short: "Show one task with tags and checklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrIndent(t)
			})
		},
	}
	return cmd
}

func searchCmd() *cobra.Command {
	var in string
	var includeCompleted bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search task titles and notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tasks, err := e.Search(ctx, args[0], in, includeCompleted)
				if err != nil {
					return err
				}
				return printTasks(tasks)
			})
		},
	}
	cmd.Flags().StringVar(&in, "in", "both", "where to search: title, notes or both")
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "include completed and canceled tasks")
	return cmd
}

func dateCmd() *cobra.Command {
	var includeCompleted bool
	cmd := &cobra.Command{
		Use:   "date <YYYY-MM-DD>",
		Short: "Tasks scheduled on (or carried into) a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tasks, err := e.TasksOn(ctx, args[0], includeCompleted)
				if err != nil {
					return err
				}
				return printTasks(tasks)
			})
		},
	}
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "include completed and canceled tasks")
	return cmd
}

func rangeCmd() *cobra.Command {
	var from, to string
	var includeCompleted bool
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Tasks scheduled within an inclusive day range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				tasks, err := e.TasksBetween(ctx, from, to, includeCompleted)
				if err != nil {
					return err
				}
				return printTasks(tasks)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&includeCompleted, "include-completed", false, "include completed and canceled tasks")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func listsCmd() *cobra.Command {
	var projectsOnly bool
	cmd := &cobra.Command{
		Use:   "lists [name]",
		Short: "Show areas and open projects, or look one up by title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if len(args) == 1 {
					l, err := e.FindList(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSONOrIndent(l)
				}
				lists, err := e.Lists(ctx, !projectsOnly)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(lists)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"UUID", "Title", "Kind"})
				for _, l := range lists {
					tw.AppendRow(table.Row{l.UUID, l.Title, l.Kind})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&projectsOnly, "projects-only", false, "omit areas")
	return cmd
}

func tagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags [name]",
		Short: "Show all tags, or look one up by title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if len(args) == 1 {
					tag, err := e.FindTag(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSONOrIndent(tag)
				}
				tags, err := e.Tags(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tags)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"UUID", "Title"})
				for _, tag := range tags {
					tw.AppendRow(table.Row{tag.UUID, tag.Title})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.API.Addr
			}
			if basePath == "" {
				basePath = cfg.API.BasePath
			}
			path, err := db.Resolve(storePath(cfg))
			if err != nil {
				return err
			}
			conn, err := db.Shared(path)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			handler, err := server.New(server.Config{
				Engine:   e,
				BasePath: basePath,
				Auth:     server.AuthConfig{Secret: cfg.API.AuthSecret},
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Thingslens API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from config)")
	return cmd
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	if file := viper.GetString("config"); file != "" {
		return config.FromFile(file)
	}
	return config.LoadOptional(".")
}

func storePath(cfg *config.Config) string {
	if override := viper.GetString("db"); override != "" {
		return override
	}
	return cfg.Database.Path
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := db.Resolve(storePath(cfg))
	if err != nil {
		return err
	}
	conn, err := db.Open(path)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, engine.New(conn, cfg))
}

func printTasks(tasks []domain.Task) error {
	if viper.GetBool("json") {
		return printJSON(tasks)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"UUID", "Title", "Status", "Scheduled", "Deadline", "Project/Area"})
	for _, t := range tasks {
		scheduled := ""
		if t.Scheduled != nil {
			scheduled = t.Scheduled.String()
		}
		deadline := ""
		if t.Deadline != nil {
			deadline = t.Deadline.String()
		}
		container := t.ProjectTitle
		if container == "" {
			container = t.AreaTitle
		}
		tw.AppendRow(table.Row{t.UUID, t.Title, t.Status, scheduled, deadline, container})
	}
	tw.Render()
	return nil
}

func printJSONOrIndent(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
