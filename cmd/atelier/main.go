// Command atelier serves a live-preview workspace: project snapshots are
// loaded from a local store, edited through the tool API and rendered at /.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/atelier-studio/atelier"
	"github.com/atelier-studio/atelier/internal/logx"
	"github.com/atelier-studio/atelier/internal/project"
	"github.com/atelier-studio/atelier/internal/transform"
)

func main() {
	app := &cli.App{
		Name:  "atelier",
		Usage: "in-memory workspace with live preview",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "atelier.yaml", Usage: "config file path"},
			&cli.StringFlag{Name: "addr", Usage: "listen address"},
			&cli.StringFlag{Name: "data-dir", Usage: "project store directory"},
			&cli.StringFlag{Name: "project", Usage: "project name to open"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "projects",
				Usage:  "list stored projects",
				Action: listProjects,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfig(c *cli.Context) (Config, error) {
	_ = godotenv.Load()

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("project") {
		cfg.Project = c.String("project")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	log := logx.New(os.Stderr, cfg.LogLevel)

	store, err := project.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}

	snapshot, err := store.Load(cfg.Project)
	if errors.Is(err, project.ErrProjectNotFound) {
		log.Info("seeding new project", "project", cfg.Project)
		snapshot = starterSnapshot()
		if err := store.Save(cfg.Project, snapshot); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	workspace, err := atelier.New(
		atelier.WithLogger(log),
		atelier.WithSnapshot(snapshot),
		atelier.WithPipelineConfig(transform.Config{Alias: cfg.Alias, CDNBase: cfg.CDNBase}),
	)
	if err != nil {
		return err
	}
	defer workspace.Close()

	// Persist every accepted edit back to the store.
	workspace.FS().Subscribe(func() {
		if err := store.Save(cfg.Project, workspace.FS().Serialize()); err != nil {
			log.Error("saving project", "project", cfg.Project, "err", err)
		}
	})

	router := chi.NewRouter()
	router.Get("/api/tools", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, workspace.Tools().Specs())
	})
	router.Post("/api/tools/{name}", func(w http.ResponseWriter, req *http.Request) {
		input, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, err := workspace.Tools().Call(chi.URLParam(req, "name"), input)
		if err != nil {
			writeJSON(w, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, map[string]string{"result": result})
	})
	router.Get("/api/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, workspace.FS().Serialize())
	})
	router.Mount("/", workspace.Handler())

	log.Info("atelier listening", "addr", cfg.Addr, "project", cfg.Project)
	return http.ListenAndServe(cfg.Addr, router)
}

func listProjects(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	store, err := project.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}
	names, err := store.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
