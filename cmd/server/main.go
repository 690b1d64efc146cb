// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/dekaustubh/matchpoint/internal/auth"
	"github.com/dekaustubh/matchpoint/internal/cache"
	"github.com/dekaustubh/matchpoint/internal/database"
	"github.com/dekaustubh/matchpoint/internal/directory"
	"github.com/dekaustubh/matchpoint/internal/dispatch"
	"github.com/dekaustubh/matchpoint/internal/handlers"
	"github.com/dekaustubh/matchpoint/internal/match"
	"github.com/dekaustubh/matchpoint/internal/middleware"
	"github.com/dekaustubh/matchpoint/internal/session"
)

func main() {
	auth.Init()
	pool := database.Connect()
	defer pool.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	store := database.NewStore(pool)
	registry := session.NewRegistry(logger)
	dispatcher := dispatch.New(registry, logger)
	dir := directory.New(store)

	// The Redis event feed is optional: without it, transitions simply are not
	// mirrored onto the queue.
	var feed match.Feed
	if queue, err := cache.ConnectQueue(); err != nil {
		logger.Warnf("event feed disabled: %v", err)
	} else {
		feed = queue
	}

	matches := match.NewService(store, dir, dispatcher, feed, logger)
	if os.Getenv("TURN_POLICY") == "wrap" {
		matches.TurnPolicy = match.TurnPolicyWrap
	}

	srv := handlers.NewServer(store, registry, matches, logger)
	logged := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()

	// user endpoints
	mux.Handle("POST /user/create", logged(http.HandlerFunc(srv.CreateUserHandler)))
	mux.Handle("POST /user/login", logged(http.HandlerFunc(srv.LoginHandler)))

	// room endpoints
	mux.Handle("POST /room/create", logged(http.HandlerFunc(srv.CreateRoomHandler)))
	mux.Handle("GET /room/list", logged(http.HandlerFunc(srv.ListRoomsHandler)))
	mux.Handle("GET /room/{roomID}", logged(http.HandlerFunc(srv.GetRoomHandler)))
	mux.Handle("PUT /room/{roomID}/join", logged(http.HandlerFunc(srv.JoinRoomHandler)))
	mux.Handle("DELETE /room/{roomID}", logged(http.HandlerFunc(srv.DeleteRoomHandler)))
	mux.Handle("GET /room/{roomID}/leaderboard", logged(http.HandlerFunc(srv.LeaderboardHandler)))

	// match endpoints
	mux.Handle("POST /room/{roomID}/match/create", logged(http.HandlerFunc(srv.CreateMatchHandler)))
	mux.Handle("GET /room/{roomID}/match/list", logged(http.HandlerFunc(srv.ListMatchesHandler)))
	mux.Handle("GET /room/{roomID}/match/{matchID}", logged(http.HandlerFunc(srv.GetMatchHandler)))
	mux.Handle("PUT /room/{roomID}/match/{matchID}/join", logged(http.HandlerFunc(srv.JoinMatchHandler)))
	mux.Handle("POST /room/{roomID}/match/{matchID}/start", logged(http.HandlerFunc(srv.StartMatchHandler)))
	mux.Handle("PUT /room/{roomID}/match/{matchID}/turn", logged(http.HandlerFunc(srv.TakeTurnHandler)))
	mux.Handle("PUT /room/{roomID}/match/{matchID}/win", logged(http.HandlerFunc(srv.WinMatchHandler)))
	mux.Handle("PUT /room/{roomID}/match/{matchID}/update", logged(http.HandlerFunc(srv.UpdateMatchHandler)))

	// realtime session socket
	mux.Handle("/ws", logged(srv.ConnectWSHandler()))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
