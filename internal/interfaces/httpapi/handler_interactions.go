package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/mygleague/inhouse/internal/domain/lobby"
	"github.com/mygleague/inhouse/internal/domain/team"
	"github.com/mygleague/inhouse/internal/usecase"
)

// interactionRequest is the envelope the bot posts for every slash command
// and button press. Action selects the payload shape.
type interactionRequest struct {
	Action  string              `json:"action" validate:"required"`
	Payload jsoniter.RawMessage `json:"payload"`
}

type createLobbyRequest struct {
	GuildID   string `json:"guild_id" validate:"required"`
	ChannelID string `json:"channel_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=100"`
	Mode      string `json:"mode" validate:"required"`
	TeamCount int    `json:"team_count" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
}

type joinLobbyRequest struct {
	LobbyID string `json:"lobby_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
	Display string `json:"display" validate:"required,max=100"`
	Role    string `json:"role" validate:"required"`
}

type lobbyActorRequest struct {
	LobbyID string `json:"lobby_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

type assignPlayerRequest struct {
	LobbyID       string `json:"lobby_id" validate:"required"`
	UserID        string `json:"user_id" validate:"required"`
	TeamID        string `json:"team_id" validate:"required"`
	Role          string `json:"role" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
}

type setCaptainRequest struct {
	LobbyID       string `json:"lobby_id" validate:"required"`
	UserID        string `json:"user_id" validate:"required"`
	TeamID        string `json:"team_id" validate:"required"`
	ParticipantID string `json:"participant_id" validate:"required"`
}

type renameTeamRequest struct {
	LobbyID string `json:"lobby_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
	TeamID  string `json:"team_id" validate:"required"`
	Name    string `json:"name" validate:"required,max=40"`
}

type setFormatRequest struct {
	LobbyID string `json:"lobby_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
	Format  string `json:"format" validate:"required"`
}

type matchActorRequest struct {
	LobbyID string `json:"lobby_id" validate:"required"`
	MatchID string `json:"match_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

type validateMatchRequest struct {
	LobbyID      string `json:"lobby_id" validate:"required"`
	MatchID      string `json:"match_id" validate:"required"`
	UserID       string `json:"user_id" validate:"required"`
	WinnerTeamID string `json:"winner_team_id" validate:"required"`
}

type mvpVoteRequest struct {
	LobbyID     string `json:"lobby_id" validate:"required"`
	MatchID     string `json:"match_id" validate:"required"`
	UserID      string `json:"user_id" validate:"required"`
	VotedUserID string `json:"voted_user_id" validate:"required"`
}

type purchaseRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Item   string `json:"item" validate:"required"`
}

type pledgeRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Faction string `json:"faction" validate:"required"`
}

type donateRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Amount int    `json:"amount" validate:"required,gt=0"`
}

type transferProposeRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	TargetUserID string `json:"target_user_id" validate:"required"`
}

type transferDecideRequest struct {
	OfferID string `json:"offer_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

type spendTicketRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Ticket string `json:"ticket" validate:"required"`
}

type grantPointsRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Amount int    `json:"amount" validate:"required"`
}

type battleReportRequest struct {
	LobbyID      string `json:"lobby_id" validate:"required"`
	MatchID      string `json:"match_id" validate:"required"`
	UserID       string `json:"user_id" validate:"required"`
	WinnerUserID string `json:"winner_user_id" validate:"required"`
}

type profileUpdateRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
	OpggURL     string `json:"opgg_url" validate:"omitempty,url"`
}

type redeemTitleRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	TokenItem string `json:"token_item" validate:"required"`
	Title     string `json:"title" validate:"required,max=60"`
}

type recountRequest struct {
	LobbyID    string `json:"lobby_id"`
	MaxWorkers int    `json:"max_workers" validate:"omitempty,gt=0"`
	Apply      bool   `json:"apply"`
}

func (h *Handler) DispatchInteraction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DispatchInteraction")
	defer span.End()

	var envelope interactionRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&envelope); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, envelope); err != nil {
		writeError(ctx, w, err)
		return
	}

	data, err := h.dispatch(ctx, envelope)
	if err != nil {
		h.logger.WarnContext(ctx, "interaction failed", "action", envelope.Action, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, data)
}

func (h *Handler) dispatch(ctx context.Context, envelope interactionRequest) (any, error) {
	switch envelope.Action {
	case "lobby.create":
		return h.handleLobbyCreate(ctx, envelope.Payload)
	case "lobby.join":
		return h.handleLobbyJoin(ctx, envelope.Payload)
	case "lobby.quit":
		return h.handleLobbyQuit(ctx, envelope.Payload)
	case "lobby.test_fill":
		return h.handleLobbyTestFill(ctx, envelope.Payload)
	case "lobby.freeze":
		return h.handleLobbyFreeze(ctx, envelope.Payload)
	case "builder.teams":
		return h.handleBuilderTeams(ctx, envelope.Payload)
	case "builder.assign":
		return h.handleBuilderAssign(ctx, envelope.Payload)
	case "builder.captain":
		return h.handleBuilderCaptain(ctx, envelope.Payload)
	case "builder.rename":
		return h.handleBuilderRename(ctx, envelope.Payload)
	case "builder.format":
		return h.handleBuilderFormat(ctx, envelope.Payload)
	case "builder.validate":
		return h.handleBuilderValidate(ctx, envelope.Payload)
	case "match.validate":
		return h.handleMatchValidate(ctx, envelope.Payload)
	case "match.skip":
		return h.handleMatchSkip(ctx, envelope.Payload)
	case "match.repost":
		return h.handleMatchRepost(ctx, envelope.Payload)
	case "results.finalize":
		return h.handleResultsFinalize(ctx, envelope.Payload)
	case "mvp.vote":
		return h.handleMvpVote(ctx, envelope.Payload)
	case "mvp.lock":
		return h.handleMvpLock(ctx, envelope.Payload)
	case "shop.purchase":
		return h.handleShopPurchase(ctx, envelope.Payload)
	case "faction.pledge":
		return h.handleFactionPledge(ctx, envelope.Payload)
	case "faction.donate":
		return h.handleFactionDonate(ctx, envelope.Payload)
	case "faction.transfer_propose":
		return h.handleFactionTransferPropose(ctx, envelope.Payload)
	case "faction.transfer_accept":
		return h.handleFactionTransferAccept(ctx, envelope.Payload)
	case "faction.transfer_decline":
		return h.handleFactionTransferDecline(ctx, envelope.Payload)
	case "faction.ticket":
		return h.handleFactionTicket(ctx, envelope.Payload)
	case "points.grant":
		return h.handlePointsGrant(ctx, envelope.Payload)
	case "battle.start":
		return h.handleBattleStart(ctx, envelope.Payload)
	case "battle.report":
		return h.handleBattleReport(ctx, envelope.Payload)
	case "profile.update":
		return h.handleProfileUpdate(ctx, envelope.Payload)
	case "profile.redeem_title":
		return h.handleProfileRedeemTitle(ctx, envelope.Payload)
	case "points.recount":
		return h.handlePointsRecount(ctx, envelope.Payload)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", usecase.ErrInvalidInput, envelope.Action)
	}
}

func (h *Handler) decodePayload(ctx context.Context, raw jsoniter.RawMessage, target any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: payload is required", usecase.ErrInvalidInput)
	}

	decoder := jsoniter.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid payload: %v", usecase.ErrInvalidInput, err)
	}

	return h.validateRequest(ctx, target)
}

func (h *Handler) handleLobbyCreate(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req createLobbyRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	item, err := h.registrationService.CreateLobby(ctx, usecase.CreateLobbyInput{
		GuildID:   req.GuildID,
		ChannelID: req.ChannelID,
		Name:      req.Name,
		Mode:      lobby.Mode(req.Mode),
		TeamCount: req.TeamCount,
		CreatedBy: req.UserID,
	})
	if err != nil {
		return nil, err
	}

	return lobbyToDTO(ctx, item), nil
}

func (h *Handler) handleLobbyJoin(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req joinLobbyRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	joined, err := h.registrationService.Join(ctx, usecase.JoinLobbyInput{
		LobbyID: req.LobbyID,
		UserID:  req.UserID,
		Display: req.Display,
		Role:    lobby.Role(req.Role),
	})
	if err != nil {
		return nil, err
	}

	return map[string]bool{"joined": joined}, nil
}

func (h *Handler) handleLobbyQuit(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req lobbyActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.registrationService.Quit(ctx, req.LobbyID, req.UserID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleLobbyTestFill(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req lobbyActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	added, err := h.registrationService.TestFill(ctx, req.LobbyID, req.UserID)
	if err != nil {
		return nil, err
	}

	return map[string]int{"added": added}, nil
}

func (h *Handler) handleLobbyFreeze(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req lobbyActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.registrationService.Freeze(ctx, req.LobbyID, req.UserID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleBuilderTeams(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req lobbyActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	teams, err := h.builderService.EnsureTeams(ctx, req.LobbyID)
	if err != nil {
		return nil, err
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(ctx, t))
	}

	return items, nil
}

func (h *Handler) handleBuilderAssign(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req assignPlayerRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	err := h.builderService.AssignPlayer(ctx, usecase.AssignPlayerInput{
		LobbyID:       req.LobbyID,
		ActorID:       req.UserID,
		TeamID:        req.TeamID,
		Role:          lobby.Role(req.Role),
		ParticipantID: req.ParticipantID,
	})
	if err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleBuilderCaptain(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req setCaptainRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.builderService.SetCaptain(ctx, req.LobbyID, req.UserID, req.TeamID, req.ParticipantID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleBuilderRename(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req renameTeamRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.builderService.RenameTeam(ctx, req.LobbyID, req.UserID, req.TeamID, req.Name); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleBuilderFormat(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req setFormatRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.builderService.SetFormat(ctx, req.LobbyID, req.UserID, req.Format); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleBuilderValidate(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req lobbyActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	matches, err := h.builderService.ValidateTeams(ctx, req.LobbyID, req.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(ctx, m))
	}

	return items, nil
}

func (h *Handler) handleMatchValidate(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req validateMatchRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.seriesService.ValidateMatch(ctx, req.LobbyID, req.MatchID, req.UserID, req.WinnerTeamID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleMatchSkip(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req matchActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.seriesService.SkipMatch(ctx, req.LobbyID, req.MatchID, req.UserID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleMatchRepost(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req matchActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.seriesService.RepostMatch(ctx, req.LobbyID, req.MatchID, req.UserID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleResultsFinalize(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req lobbyActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.settlementService.FinalizeResults(ctx, req.LobbyID, req.UserID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleMvpVote(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req mvpVoteRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.settlementService.CastMvpVote(ctx, req.LobbyID, req.MatchID, req.UserID, req.VotedUserID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleMvpLock(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req lobbyActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	winners, err := h.settlementService.LockMvpVotes(ctx, req.LobbyID, req.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]mvpWinnerDTO, 0, len(winners))
	for _, winner := range winners {
		items = append(items, mvpWinnerToDTO(ctx, winner))
	}

	return items, nil
}

func (h *Handler) handleShopPurchase(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req purchaseRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	paid, err := h.shopService.Purchase(ctx, req.UserID, req.Item)
	if err != nil {
		return nil, err
	}

	return map[string]int{"paid": paid}, nil
}

func (h *Handler) handleFactionPledge(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req pledgeRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.factionService.Pledge(ctx, req.UserID, req.Faction); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleFactionDonate(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req donateRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.factionService.Donate(ctx, req.UserID, req.Amount); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleFactionTransferPropose(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req transferProposeRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	offer, err := h.factionService.ProposeTransfer(ctx, req.UserID, req.TargetUserID)
	if err != nil {
		return nil, err
	}

	return transferOfferToDTO(ctx, offer), nil
}

func (h *Handler) handleFactionTransferAccept(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req transferDecideRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.factionService.AcceptTransfer(ctx, req.OfferID, req.UserID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleFactionTransferDecline(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req transferDecideRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.factionService.DeclineTransfer(ctx, req.OfferID, req.UserID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleFactionTicket(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req spendTicketRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	remaining, err := h.factionService.SpendTicket(ctx, req.UserID, req.Ticket)
	if err != nil {
		return nil, err
	}

	return map[string]int{"remaining": remaining}, nil
}

func (h *Handler) handlePointsGrant(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req grantPointsRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	balance, err := h.shopService.Grant(ctx, req.UserID, req.Amount)
	if err != nil {
		return nil, err
	}

	return map[string]int{"balance": balance}, nil
}

func (h *Handler) handleBattleStart(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req lobbyActorRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	matches, err := h.battleService.StartBracket(ctx, req.LobbyID, req.UserID)
	if err != nil {
		return nil, err
	}

	items := make([]battleMatchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, battleMatchToDTO(ctx, m))
	}

	return items, nil
}

func (h *Handler) handleBattleReport(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req battleReportRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.battleService.ReportWin(ctx, req.LobbyID, req.MatchID, req.UserID, req.WinnerUserID); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handleProfileUpdate(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req profileUpdateRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	item, err := h.profileService.Upsert(ctx, req.UserID, req.DisplayName, req.OpggURL)
	if err != nil {
		return nil, err
	}

	return profileToDTO(ctx, item), nil
}

func (h *Handler) handleProfileRedeemTitle(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req redeemTitleRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	if err := h.profileService.RedeemTitle(ctx, req.UserID, req.TokenItem, req.Title); err != nil {
		return nil, err
	}

	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) handlePointsRecount(ctx context.Context, raw jsoniter.RawMessage) (any, error) {
	var req recountRequest
	if err := h.decodePayload(ctx, raw, &req); err != nil {
		return nil, err
	}

	result, err := h.recountService.Recount(ctx, usecase.RecountInput{
		LobbyID:    req.LobbyID,
		MaxWorkers: req.MaxWorkers,
		Apply:      req.Apply,
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

type teamDTO struct {
	ID        string            `json:"id"`
	LobbyID   string            `json:"lobbyId"`
	Number    int               `json:"number"`
	Name      string            `json:"name"`
	CaptainID string            `json:"captainId,omitempty"`
	Slots     map[string]string `json:"slots"`
}

func teamToDTO(ctx context.Context, v team.Team) teamDTO {
	ctx, span := startSpan(ctx, "httpapi.teamToDTO")
	defer span.End()

	slots := make(map[string]string, len(v.Slots))
	for role, participantID := range v.Slots {
		slots[string(role)] = participantID
	}

	return teamDTO{
		ID:        v.ID,
		LobbyID:   v.LobbyID,
		Number:    v.Number,
		Name:      v.Name,
		CaptainID: v.CaptainID,
		Slots:     slots,
	}
}
