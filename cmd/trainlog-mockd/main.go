// Command trainlog-mockd runs an in-memory stand-in for the fitness-social
// backend, for local development and integration testing of the clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/trainlog/internal/mockapi"
	"github.com/claude/trainlog/internal/models"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	token := flag.String("token", "", "bearer token to require (empty disables auth)")
	userID := flag.String("user", "demo", "user id to seed")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("trainlog-mockd", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("trainlog-mockd starting", "version", Version)

	srv := mockapi.New(*token, log)
	seed(srv, *userID)

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Error("listen failed", "addr", *addr, "error", err)
		os.Exit(1)
	}
	log.Info("mock backend serving", "addr", *addr, "user", *userID)

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// seed fills the mock backend with enough fixture data to exercise every
// client flow: gyms, body parts, menus, and a searchable user directory.
func seed(srv *mockapi.Server, userID string) {
	srv.AddUser(userID)

	chain := "PowerHouse"
	srv.SeedGyms([]models.Gym{
		{PubID: "g1", Name: "Shibuya", ChainName: &chain},
		{PubID: "g2", Name: "Garage Gym"},
	})

	srv.SeedBodyparts(map[string]string{
		"bp1": "Chest",
		"bp2": "Back",
		"bp3": "Legs",
		"bp4": "Shoulders",
	})

	srv.SeedMenus(userID,
		[]models.MenuDefinition{
			{PubID: "m1", Name: "Bench Press", Bodypart: &models.Bodypart{PubID: "bp1", Name: "Chest"}},
			{PubID: "m2", Name: "Deadlift", Bodypart: &models.Bodypart{PubID: "bp2", Name: "Back"}},
			{PubID: "m3", Name: "Squat", Bodypart: &models.Bodypart{PubID: "bp3", Name: "Legs"}},
		},
		[]models.CardioMenuDefinition{
			{PubID: "c1", Name: "Treadmill"},
			{PubID: "c2", Name: "Rowing Machine"},
		})

	srv.SeedDirectory([]models.Partner{
		{PubID: "u2", Handle: "@taro", DisplayName: "Taro"},
		{PubID: "u3", Handle: "@hana", DisplayName: "Hana"},
		{PubID: "u4", Handle: "@kenji"},
	})
}
