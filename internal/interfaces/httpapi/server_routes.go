package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerDashboardRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leaderboard", handler.GetLeaderboard)
	mux.HandleFunc("GET /v1/matches/live", handler.ListLiveMatches)
	mux.HandleFunc("GET /v1/matches/recent", handler.ListRecentResults)
	mux.HandleFunc("GET /v1/lobbies/recent", handler.ListRecentLobbies)
	mux.HandleFunc("GET /v1/lobbies/{lobbyID}", handler.GetLobby)
	mux.HandleFunc("GET /v1/users/{userID}", handler.GetUserProfile)
	mux.HandleFunc("GET /v1/factions", handler.ListFactions)
	mux.HandleFunc("GET /v1/shop/catalog", handler.GetShopCatalog)
}

func registerBotRoutes(mux *http.ServeMux, handler *Handler, botToken string) {
	mux.Handle("POST /v1/interactions", RequireBotToken(botToken, http.HandlerFunc(handler.DispatchInteraction)))
	mux.Handle("GET /v1/lobbies/{lobbyID}/board", RequireBotToken(botToken, http.HandlerFunc(handler.GetLineupBoard)))
	mux.Handle("GET /v1/users/{userID}/inventory", RequireBotToken(botToken, http.HandlerFunc(handler.GetUserInventory)))
}
