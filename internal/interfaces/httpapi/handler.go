package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mygleague/inhouse/internal/domain/battle"
	"github.com/mygleague/inhouse/internal/domain/faction"
	"github.com/mygleague/inhouse/internal/domain/inventory"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/match"
	"github.com/mygleague/inhouse/internal/domain/points"
	"github.com/mygleague/inhouse/internal/domain/profile"
	"github.com/mygleague/inhouse/internal/usecase"
)

const defaultLeaderboardLimit = 20

type Handler struct {
	registrationService *usecase.RegistrationService
	builderService      *usecase.BuilderService
	seriesService       *usecase.SeriesService
	settlementService   *usecase.SettlementService
	shopService         *usecase.ShopService
	factionService      *usecase.FactionService
	battleService       *usecase.BattleService
	recountService      *usecase.RecountService
	profileService      *usecase.ProfileService
	dashboardService    *usecase.DashboardService
	logger              *slog.Logger
	validator           *validator.Validate
}

func NewHandler(
	registrationService *usecase.RegistrationService,
	builderService *usecase.BuilderService,
	seriesService *usecase.SeriesService,
	settlementService *usecase.SettlementService,
	shopService *usecase.ShopService,
	factionService *usecase.FactionService,
	battleService *usecase.BattleService,
	recountService *usecase.RecountService,
	profileService *usecase.ProfileService,
	dashboardService *usecase.DashboardService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		registrationService: registrationService,
		builderService:      builderService,
		seriesService:       seriesService,
		settlementService:   settlementService,
		shopService:         shopService,
		factionService:      factionService,
		battleService:       battleService,
		recountService:      recountService,
		profileService:      profileService,
		dashboardService:    dashboardService,
		logger:              logger,
		validator:           validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	limit := defaultLeaderboardLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	rows, err := h.dashboardService.Leaderboard(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leaderboardRowDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, leaderboardRowToDTO(ctx, row))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListLiveMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLiveMatches")
	defer span.End()

	matches, err := h.dashboardService.LiveMatches(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list live matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(ctx, m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListRecentResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRecentResults")
	defer span.End()

	matches, err := h.dashboardService.RecentResults(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list recent results failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(ctx, m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListRecentLobbies(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRecentLobbies")
	defer span.End()

	lobbies, err := h.dashboardService.RecentLobbies(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list recent lobbies failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]lobbyDTO, 0, len(lobbies))
	for _, l := range lobbies {
		items = append(items, lobbyToDTO(ctx, l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLobby(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLobby")
	defer span.End()

	lobbyID := strings.TrimSpace(r.PathValue("lobbyID"))
	item, participants, err := h.registrationService.GetLobby(ctx, lobbyID)
	if err != nil {
		h.logger.WarnContext(ctx, "get lobby failed", "lobby_id", lobbyID, "error", err)
		writeError(ctx, w, err)
		return
	}

	members := make([]participantDTO, 0, len(participants))
	for _, p := range participants {
		members = append(members, participantToDTO(ctx, p))
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyDetailDTO{
		Lobby:        lobbyToDTO(ctx, item),
		Participants: members,
	})
}

func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUserProfile")
	defer span.End()

	userID := strings.TrimSpace(r.PathValue("userID"))
	item, history, err := h.dashboardService.Profile(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "get profile failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	entries := make([]pointsEntryDTO, 0, len(history))
	for _, e := range history {
		entries = append(entries, pointsEntryToDTO(ctx, e))
	}

	writeSuccess(ctx, w, http.StatusOK, profileDetailDTO{
		Profile: profileToDTO(ctx, item),
		History: entries,
	})
}

func (h *Handler) ListFactions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFactions")
	defer span.End()

	overviews, err := h.factionService.Overview(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "faction overview failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]factionOverviewDTO, 0, len(overviews))
	for _, o := range overviews {
		items = append(items, factionOverviewToDTO(ctx, o))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetShopCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetShopCatalog")
	defer span.End()

	catalog := usecase.Catalog()
	items := make([]shopItemDTO, 0, len(catalog))
	for _, item := range catalog {
		items = append(items, shopItemToDTO(ctx, item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLineupBoard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLineupBoard")
	defer span.End()

	lobbyID := strings.TrimSpace(r.PathValue("lobbyID"))
	board, err := h.builderService.LineupBoard(ctx, lobbyID)
	if err != nil {
		h.logger.WarnContext(ctx, "lineup board failed", "lobby_id", lobbyID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"board": board})
}

func (h *Handler) GetUserInventory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUserInventory")
	defer span.End()

	userID := strings.TrimSpace(r.PathValue("userID"))
	balance, err := h.shopService.Balance(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "balance failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	stock, err := h.shopService.Inventory(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "inventory failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]consumableStockDTO, 0, len(stock))
	for _, s := range stock {
		items = append(items, consumableStockToDTO(ctx, s))
	}

	writeSuccess(ctx, w, http.StatusOK, inventoryDTO{
		Balance: balance,
		Items:   items,
	})
}

type lobbyDTO struct {
	ID        string     `json:"id"`
	GuildID   string     `json:"guildId"`
	ChannelID string     `json:"channelId"`
	Name      string     `json:"name"`
	Mode      string     `json:"mode"`
	TeamCount int        `json:"teamCount"`
	Status    string     `json:"status"`
	Format    string     `json:"format"`
	CreatedBy string     `json:"createdBy"`
	SettledAt *time.Time `json:"settledAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type participantDTO struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Display string `json:"display"`
	Role    string `json:"role"`
	IsFake  bool   `json:"isFake"`
}

type lobbyDetailDTO struct {
	Lobby        lobbyDTO         `json:"lobby"`
	Participants []participantDTO `json:"participants"`
}

type matchDTO struct {
	ID           string    `json:"id"`
	LobbyID      string    `json:"lobbyId"`
	Round        int       `json:"round"`
	BlueTeamID   string    `json:"blueTeamId"`
	RedTeamID    string    `json:"redTeamId"`
	Status       string    `json:"status"`
	SpectateURL  string    `json:"spectateUrl,omitempty"`
	StreamURL    string    `json:"streamUrl,omitempty"`
	WinnerTeamID string    `json:"winnerTeamId,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type leaderboardRowDTO struct {
	UserID  string `json:"userId"`
	Display string `json:"display"`
	Total   int    `json:"total"`
}

type profileDTO struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	OpggURL     string    `json:"opggUrl,omitempty"`
	Title       string    `json:"title,omitempty"`
	FactionID   *int      `json:"factionId,omitempty"`
	DiscountPct int       `json:"discountPct"`
	CreatedAt   time.Time `json:"createdAt"`
}

type pointsEntryDTO struct {
	ID        string    `json:"id"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	LobbyID   string    `json:"lobbyId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type profileDetailDTO struct {
	Profile profileDTO       `json:"profile"`
	History []pointsEntryDTO `json:"history"`
}

type factionOverviewDTO struct {
	ID       int    `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	Progress int    `json:"progress"`
	NextCost int    `json:"nextCost"`
	Members  int    `json:"members"`
}

type shopQuotaDTO struct {
	Window string `json:"window"`
	Limit  int    `json:"limit"`
}

type shopItemDTO struct {
	Key    string        `json:"key"`
	Name   string        `json:"name"`
	Price  int           `json:"price"`
	Effect string        `json:"effect,omitempty"`
	Stock  string        `json:"stock,omitempty"`
	Quota  *shopQuotaDTO `json:"quota,omitempty"`
}

type consumableStockDTO struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type inventoryDTO struct {
	Balance int                  `json:"balance"`
	Items   []consumableStockDTO `json:"items"`
}

type battleMatchDTO struct {
	ID           string `json:"id"`
	Round        int    `json:"round"`
	UserA        string `json:"userA"`
	UserB        string `json:"userB,omitempty"`
	WinnerUserID string `json:"winnerUserId,omitempty"`
	Status       string `json:"status"`
	BestOf       int    `json:"bestOf"`
}

type transferOfferDTO struct {
	ID           string    `json:"id"`
	FromUserID   string    `json:"fromUserId"`
	TargetUserID string    `json:"targetUserId"`
	ToFactionID  int       `json:"toFactionId"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type mvpWinnerDTO struct {
	UserID   string `json:"userId"`
	Display  string `json:"display"`
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
	Rank     int    `json:"rank"`
	Votes    int    `json:"votes"`
	Points   int    `json:"points"`
}

func lobbyToDTO(ctx context.Context, v lobby.Lobby) lobbyDTO {
	ctx, span := startSpan(ctx, "httpapi.lobbyToDTO")
	defer span.End()

	return lobbyDTO{
		ID:        v.ID,
		GuildID:   v.GuildID,
		ChannelID: v.ChannelID,
		Name:      v.Name,
		Mode:      string(v.Mode),
		TeamCount: v.TeamCount,
		Status:    string(v.Status),
		Format:    v.Format,
		CreatedBy: v.CreatedBy,
		SettledAt: v.SettledAt,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func participantToDTO(ctx context.Context, v lobby.Participant) participantDTO {
	ctx, span := startSpan(ctx, "httpapi.participantToDTO")
	defer span.End()

	return participantDTO{
		ID:      v.ID,
		UserID:  v.UserID,
		Display: v.Display,
		Role:    string(v.Role),
		IsFake:  v.IsFake,
	}
}

func matchToDTO(ctx context.Context, v match.Match) matchDTO {
	ctx, span := startSpan(ctx, "httpapi.matchToDTO")
	defer span.End()

	return matchDTO{
		ID:           v.ID,
		LobbyID:      v.LobbyID,
		Round:        v.Round,
		BlueTeamID:   v.BlueTeamID,
		RedTeamID:    v.RedTeamID,
		Status:       string(v.Status),
		SpectateURL:  v.SpectateURL,
		StreamURL:    v.StreamURL,
		WinnerTeamID: v.WinnerTeamID,
		UpdatedAt:    v.UpdatedAt,
	}
}

func leaderboardRowToDTO(ctx context.Context, v points.LeaderboardRow) leaderboardRowDTO {
	ctx, span := startSpan(ctx, "httpapi.leaderboardRowToDTO")
	defer span.End()

	return leaderboardRowDTO{
		UserID:  v.UserID,
		Display: v.Display,
		Total:   v.Total,
	}
}

func profileToDTO(ctx context.Context, v profile.UserProfile) profileDTO {
	ctx, span := startSpan(ctx, "httpapi.profileToDTO")
	defer span.End()

	return profileDTO{
		UserID:      v.UserID,
		DisplayName: v.DisplayName,
		OpggURL:     v.OpggURL,
		Title:       v.Title,
		FactionID:   v.FactionID,
		DiscountPct: v.DiscountPct,
		CreatedAt:   v.CreatedAt,
	}
}

func pointsEntryToDTO(ctx context.Context, v points.Entry) pointsEntryDTO {
	ctx, span := startSpan(ctx, "httpapi.pointsEntryToDTO")
	defer span.End()

	return pointsEntryDTO{
		ID:        v.ID,
		Amount:    v.Amount,
		Reason:    v.Reason,
		LobbyID:   v.LobbyID,
		CreatedAt: v.CreatedAt,
	}
}

func factionOverviewToDTO(ctx context.Context, v usecase.FactionOverview) factionOverviewDTO {
	ctx, span := startSpan(ctx, "httpapi.factionOverviewToDTO")
	defer span.End()

	return factionOverviewDTO{
		ID:       v.Faction.ID,
		Key:      v.Faction.Key,
		Name:     v.Faction.Name,
		Level:    v.Level,
		Progress: v.Progress,
		NextCost: v.NextCost,
		Members:  v.Members,
	}
}

func shopItemToDTO(ctx context.Context, v usecase.ShopItem) shopItemDTO {
	ctx, span := startSpan(ctx, "httpapi.shopItemToDTO")
	defer span.End()

	item := shopItemDTO{
		Key:    v.Key,
		Name:   v.Name,
		Price:  v.Price,
		Effect: v.Effect,
		Stock:  v.Stock,
	}
	if v.Quota != nil {
		item.Quota = &shopQuotaDTO{Window: v.Quota.Window, Limit: v.Quota.Limit}
	}
	return item
}

func consumableStockToDTO(ctx context.Context, v inventory.ConsumableStock) consumableStockDTO {
	ctx, span := startSpan(ctx, "httpapi.consumableStockToDTO")
	defer span.End()

	return consumableStockDTO{
		Item:  v.Item,
		Count: v.Count,
	}
}

func battleMatchToDTO(ctx context.Context, v battle.Match) battleMatchDTO {
	ctx, span := startSpan(ctx, "httpapi.battleMatchToDTO")
	defer span.End()

	return battleMatchDTO{
		ID:           v.ID,
		Round:        v.Round,
		UserA:        v.UserA,
		UserB:        v.UserB,
		WinnerUserID: v.WinnerUserID,
		Status:       string(v.Status),
		BestOf:       v.BestOf,
	}
}

func transferOfferToDTO(ctx context.Context, v faction.TransferOffer) transferOfferDTO {
	ctx, span := startSpan(ctx, "httpapi.transferOfferToDTO")
	defer span.End()

	return transferOfferDTO{
		ID:           v.ID,
		FromUserID:   v.FromUserID,
		TargetUserID: v.TargetUserID,
		ToFactionID:  v.ToFactionID,
		Status:       v.Status,
		ExpiresAt:    v.ExpiresAt,
	}
}

func mvpWinnerToDTO(ctx context.Context, v usecase.MvpWinner) mvpWinnerDTO {
	ctx, span := startSpan(ctx, "httpapi.mvpWinnerToDTO")
	defer span.End()

	return mvpWinnerDTO{
		UserID:   v.UserID,
		Display:  v.Display,
		TeamID:   v.TeamID,
		TeamName: v.TeamName,
		Rank:     v.Rank,
		Votes:    v.Votes,
		Points:   v.Points,
	}
}
