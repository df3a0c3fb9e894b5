package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"LF-DOCGEN/internal"
	"LF-DOCGEN/internal/config"
	"LF-DOCGEN/internal/resolver"
	"LF-DOCGEN/internal/schema"
	"LF-DOCGEN/internal/services"
	"LF-DOCGEN/internal/storage"
	"LF-DOCGEN/internal/store"
)

var (
	flagFirm  string
	flagDraft bool
)

func main() {
	log := logrus.New()

	root := &cobra.Command{
		Use:   "docgen",
		Short: "Law firm document template management",
	}
	root.PersistentFlags().StringVar(&flagFirm, "firm", "", "firm ID (required)")
	root.MarkPersistentFlagRequired("firm")

	root.AddCommand(importCmd(log))
	root.AddCommand(deactivateCmd(log))
	root.AddCommand(listCmd(log))
	root.AddCommand(generateCmd(log))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	store     store.Store
	templates *services.TemplateService
	generator *services.GeneratorService
	resolver  *resolver.Resolver
	cleanup   func()
}

func newApp(log *logrus.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := internal.OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.NewLocalStore(cfg.Storage.LocalDir)
	if err != nil {
		internal.CloseDB(db)
		return nil, err
	}

	registry := schema.Defaults()
	if cfg.Schema.DocumentTypesPath != "" {
		if err := registry.LoadFile(cfg.Schema.DocumentTypesPath); err != nil {
			internal.CloseDB(db)
			return nil, err
		}
	}
	synonyms := resolver.NewSynonymTable()
	if cfg.Schema.SynonymsPath != "" {
		if err := synonyms.LoadFile(cfg.Schema.SynonymsPath); err != nil {
			internal.CloseDB(db)
			return nil, err
		}
	}

	st := store.NewGormStore(db)
	return &app{
		store:     st,
		templates: services.NewTemplateService(st, log),
		generator: services.NewGeneratorService(st, blobs, registry, log),
		resolver:  resolver.New(st, synonyms, log),
		cleanup:   func() { internal.CloseDB(db) },
	}, nil
}

func importCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file-or-dir>...",
		Short: "Import .docx templates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				if info.IsDir() {
					results, err := app.templates.ImportFolder(ctx, flagFirm, path)
					if err != nil {
						return err
					}
					for _, r := range results {
						printImport(cmd, r)
					}
					continue
				}
				content, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				result, err := app.templates.ImportTemplate(ctx, services.ImportRequest{
					FirmID:   flagFirm,
					Filename: info.Name(),
					Content:  content,
				})
				if err != nil {
					return err
				}
				printImport(cmd, result)
			}
			return nil
		},
	}
}

func printImport(cmd *cobra.Command, r *services.ImportResult) {
	state := "unchanged"
	if r.Created {
		state = "created"
	} else if r.Updated {
		state = "updated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tv%d\n", r.Template.Name, state, r.Template.Version)
}

func deactivateCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <name-pattern>",
		Short: "Deactivate templates whose name matches a regular expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			count, err := app.templates.Deactivate(cmd.Context(), flagFirm, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deactivated %d template(s)\n", count)
			return nil
		},
	}
}

func listCmd(log *logrus.Logger) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the firm's templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			templates, err := app.templates.ListTemplates(cmd.Context(), flagFirm, store.TemplateFilters{}, !all)
			if err != nil {
				return err
			}
			for _, t := range templates {
				status := "active"
				if !t.IsActive {
					status = "inactive"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tv%d\t%s\n", t.Name, t.Category, t.Version, status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive templates")
	return cmd
}

func generateCmd(log *logrus.Logger) *cobra.Command {
	var vars map[string]string
	cmd := &cobra.Command{
		Use:   "generate <query>",
		Short: "Resolve a template from a request and fill it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			tmpl, err := app.resolver.ResolveOne(ctx, resolver.Request{
				FirmID: flagFirm,
				Query:  args[0],
			})
			if err != nil {
				return err
			}

			result, err := app.generator.Generate(ctx, services.GenerateRequest{
				FirmID:      flagFirm,
				TemplateID:  tmpl.ID,
				Variables:   vars,
				Draft:       flagDraft,
				GeneratedBy: "cli",
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %s (template %s v%d)\n",
				result.Record.ID, result.Record.TemplateName, result.Record.TemplateVersion)
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "variable values, e.g. --var defendant_name='John Doe'")
	cmd.Flags().BoolVar(&flagDraft, "draft", false, "draft mode: leave missing variables visible")
	return cmd
}
