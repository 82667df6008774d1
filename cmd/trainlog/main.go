// Command trainlog is the command-line client for the training log: it lists
// and edits sessions, manages the menu catalogs, and searches partners.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/claude/trainlog/internal/api"
	"github.com/claude/trainlog/internal/catalog"
	"github.com/claude/trainlog/internal/config"
	"github.com/claude/trainlog/internal/editor"
	"github.com/claude/trainlog/internal/models"
	"github.com/claude/trainlog/internal/partners"
	"github.com/claude/trainlog/internal/records"
	"github.com/claude/trainlog/internal/session"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("trainlog", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	httpClient, cleanup, err := newHTTPClient(cfg, log)
	if err != nil {
		log.Error("failed to set up transport", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	client := api.NewWithClient(cfg.Server.BaseURL, cfg.Auth.BearerToken, httpClient)
	store := records.New(client, cfg.User.ID, log)

	if cfg.Cache.Dir != "" {
		cache, err := records.OpenSnapshotCache(cfg.Cache.Dir)
		if err != nil {
			log.Warn("snapshot cache unavailable", "error", err)
		} else {
			defer cache.Close()
			store.SetSnapshotCache(cache)
			if err := store.LoadSnapshot(); err != nil {
				log.Warn("loading snapshot failed", "error", err)
			}
		}
	}

	ctrl := session.New(client, store, cfg.User.ID, log)
	cat := catalog.New(client, cfg.User.ID, log)
	searcher := partners.New(client, cfg.Search.Debounce(), log)
	ctx := context.Background()

	if err := run(ctx, flag.Args(), store, ctrl, cat, searcher, log); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newHTTPClient returns the transport for reaching the backend: a tsnet
// client when the server lives on a tailnet, plain HTTP otherwise.
func newHTTPClient(cfg *config.Config, log *slog.Logger) (*http.Client, func(), error) {
	if !cfg.Tailscale.Enabled {
		return &http.Client{}, func() {}, nil
	}

	ts := &tsnet.Server{
		Hostname: cfg.Tailscale.Hostname,
		Dir:      cfg.Tailscale.StateDir,
	}
	if err := ts.Start(); err != nil {
		return nil, nil, fmt.Errorf("starting tsnet: %w", err)
	}
	log.Info("tsnet client up", "hostname", cfg.Tailscale.Hostname)
	return ts.HTTPClient(), func() { _ = ts.Close() }, nil
}

func run(ctx context.Context, args []string, store *records.Store, ctrl *session.Controller, cat *catalog.Catalog, searcher *partners.Searcher, log *slog.Logger) error {
	switch args[0] {
	case "list":
		return cmdList(ctx, store)
	case "show":
		return cmdShow(ctx, store, args[1:])
	case "start":
		return cmdStart(ctx, ctrl, args[1:])
	case "finish":
		return cmdFinish(ctx, store, ctrl)
	case "edit":
		return cmdEdit(ctx, store, ctrl, cat, log, args[1:])
	case "delete":
		return cmdDelete(ctx, ctrl, store, args[1:])
	case "menus":
		return cmdMenus(ctx, cat, args[1:])
	case "menu-add":
		return cmdMenuAdd(ctx, cat, args[1:])
	case "menu-rename":
		return cmdMenuRename(ctx, cat, args[1:])
	case "menu-delete":
		return cmdMenuDelete(ctx, cat, args[1:])
	case "search":
		return cmdSearch(searcher, args[1:])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: trainlog [-config path] <command> [args]

Commands:
  list                        list sessions, most recent first
  show <session-id>           show one session in full
  start [-gym id] [-at time]  start a session
  finish                      finish the active session
  edit [-gym id|-clear-gym] <session-id>
                              change a session's gym
  delete <session-id>         delete a session
  menus [-category c]         list menus (all, cardio, or a body-part name)
  menu-add [-cardio] [-bodypart id] <name>
  menu-rename <menu-id> <name>
  menu-delete <menu-id>
  search <handle-fragment>    search partners by handle
`)
}

func cmdList(ctx context.Context, store *records.Store) error {
	if err := store.Refresh(ctx); err != nil {
		return err
	}
	sessions := store.ListSummaries()
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return nil
	}
	for _, s := range sessions {
		printSummary(s)
	}
	return nil
}

func printSummary(s models.TrainingSession) {
	state := "active"
	if d, ok := s.Duration(); ok {
		state = models.FormatDuration(d)
	}
	line := fmt.Sprintf("%s  %s  %s", s.PubID, s.StartedAt.Local().Format("2006-01-02 15:04"), state)
	if s.Gym != nil {
		line += "  @ " + s.Gym.DisplayName()
	}
	fmt.Println(line)
}

func cmdShow(ctx context.Context, store *records.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: trainlog show <session-id>")
	}
	detail, err := store.Hydrate(ctx, args[0])
	if err != nil {
		return err
	}

	printSummary(*detail)
	for _, e := range detail.Menus {
		var sets []string
		for _, set := range e.Sets {
			sets = append(sets, formatSet(set))
		}
		fmt.Printf("  %s: %s\n", e.Menu.Name, strings.Join(sets, ", "))
	}
	for _, e := range detail.CardioMenus {
		line := "  " + e.Menu.Name
		if e.Duration != "" {
			line += " " + e.Duration + "min"
		}
		if e.Distance != nil {
			line += fmt.Sprintf(" %.1fkm", *e.Distance)
		}
		fmt.Println(line)
	}
	for _, p := range detail.Partners {
		fmt.Printf("  with %s\n", p.Handle)
	}
	return nil
}

func formatSet(s models.SetRecord) string {
	switch {
	case s.Weight != nil && s.Reps != nil:
		return fmt.Sprintf("%gkg x%d", *s.Weight, *s.Reps)
	case s.Weight != nil:
		return fmt.Sprintf("%gkg", *s.Weight)
	case s.Reps != nil:
		return fmt.Sprintf("x%d", *s.Reps)
	default:
		return "-"
	}
}

func cmdStart(ctx context.Context, ctrl *session.Controller, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	gymID := fs.String("gym", "", "gym pub_id")
	at := fs.String("at", "", "retroactive start time (RFC 3339)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var gym *models.Gym
	if *gymID != "" {
		gym = &models.Gym{PubID: *gymID}
	}

	var (
		id  string
		err error
	)
	if *at != "" {
		startedAt, parseErr := time.Parse(time.RFC3339, *at)
		if parseErr != nil {
			return fmt.Errorf("parsing -at: %w", parseErr)
		}
		id, err = ctrl.StartAt(ctx, startedAt, gym, false)
	} else {
		id, err = ctrl.Start(ctx, gym, false)
	}
	if err != nil {
		return err
	}
	fmt.Println("started", id)
	return nil
}

func cmdFinish(ctx context.Context, store *records.Store, ctrl *session.Controller) error {
	if err := store.Refresh(ctx); err != nil {
		return err
	}
	active, ok := store.Active()
	if !ok {
		return session.ErrNoActiveSession
	}
	if err := ctrl.Finish(ctx, active.PubID, nil, nil, nil); err != nil {
		return err
	}
	fmt.Println("finished", active.PubID)
	return nil
}

// cmdEdit changes a session's gym through the same dialog flow the UI uses:
// open the edit dialog, pick (or clear) a gym, confirm.
func cmdEdit(ctx context.Context, store *records.Store, ctrl *session.Controller, cat *catalog.Catalog, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	gymID := fs.String("gym", "", "gym pub_id to set")
	clearGym := fs.Bool("clear-gym", false, "remove the gym reference")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || (*gymID == "" && !*clearGym) {
		return fmt.Errorf("usage: trainlog edit [-gym id|-clear-gym] <session-id>")
	}

	if err := store.Refresh(ctx); err != nil {
		return err
	}
	detail, ok := store.Get(fs.Arg(0))
	if !ok {
		return session.ErrSessionNotFound
	}

	o := editor.New(ctrl, cat, log)
	if err := o.OpenEditHistory(detail); err != nil {
		return err
	}

	token, err := o.OpenGymPicker()
	if err != nil {
		return err
	}
	var gym *models.Gym
	if *gymID != "" {
		gym = &models.Gym{PubID: *gymID}
	}
	if err := o.ResumeWithGym(token, gym); err != nil {
		return err
	}

	if err := o.ConfirmEdit(ctx); err != nil {
		return err
	}
	fmt.Println("edited", fs.Arg(0))
	return nil
}

func cmdDelete(ctx context.Context, ctrl *session.Controller, store *records.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: trainlog delete <session-id>")
	}
	if err := store.Refresh(ctx); err != nil {
		return err
	}
	if err := ctrl.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("deleted", args[0])
	return nil
}

func cmdMenus(ctx context.Context, cat *catalog.Catalog, args []string) error {
	fs := flag.NewFlagSet("menus", flag.ExitOnError)
	category := fs.String("category", catalog.CategoryAll, "filter category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := cat.Refresh(ctx); err != nil {
		return err
	}
	for _, item := range cat.Filter(*category) {
		kind := item.Bodypart
		if item.Cardio {
			kind = "cardio"
		}
		fmt.Printf("%s  %s  [%s]\n", item.PubID, item.Name, kind)
	}
	return nil
}

func cmdMenuAdd(ctx context.Context, cat *catalog.Catalog, args []string) error {
	fs := flag.NewFlagSet("menu-add", flag.ExitOnError)
	cardio := fs.Bool("cardio", false, "add to the cardio catalog")
	bodypart := fs.String("bodypart", "", "body-part pub_id (strength only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: trainlog menu-add [-cardio] [-bodypart id] <name>")
	}

	if err := cat.Refresh(ctx); err != nil {
		return err
	}
	if err := cat.Create(ctx, fs.Arg(0), *bodypart, *cardio); err != nil {
		return err
	}
	fmt.Println("created", fs.Arg(0))
	return nil
}

func cmdMenuRename(ctx context.Context, cat *catalog.Catalog, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: trainlog menu-rename <menu-id> <name>")
	}
	if err := cat.Refresh(ctx); err != nil {
		return err
	}
	if err := cat.Rename(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Println("renamed", args[0])
	return nil
}

func cmdMenuDelete(ctx context.Context, cat *catalog.Catalog, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: trainlog menu-delete <menu-id>")
	}
	if err := cat.Refresh(ctx); err != nil {
		return err
	}
	if err := cat.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("deleted", args[0])
	return nil
}

func cmdSearch(searcher *partners.Searcher, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: trainlog search <handle-fragment>")
	}

	searcher.SetTerm(args[0])
	for searcher.Searching() {
		time.Sleep(10 * time.Millisecond)
	}

	users := searcher.Results()
	if len(users) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, u := range users {
		line := u.PubID + "  " + u.Handle
		if u.DisplayName != "" {
			line += "  (" + u.DisplayName + ")"
		}
		fmt.Println(line)
	}
	return nil
}
