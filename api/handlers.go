package api

import (
	"fmt"
	"net/http"

	"plombir/models"
	"plombir/service"

	log "github.com/sirupsen/logrus"
)

type authRequest struct {
	InitData string `json:"initData"`
	User     struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
		Username  string `json:"username"`
	} `json:"user"`
}

type authResponse struct {
	*models.UserView
	Token string `json:"token"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	data, err := s.validator.Validate(req.InitData)
	if err != nil {
		log.WithError(err).Debug("Rejected init data")
		writeError(w, r, service.ErrInvalidInitData)
		return
	}

	// The signed user object wins over the one sent alongside it
	profile := models.TelegramProfile{ID: req.User.ID, FirstName: req.User.FirstName, Username: req.User.Username}
	if data.User != nil {
		profile = models.TelegramProfile{ID: data.User.ID, FirstName: data.User.FirstName, Username: data.User.Username}
	}
	if profile.ID <= 0 {
		writeError(w, r, service.ErrInvalidInitData)
		return
	}

	view, err := s.services.Users.Authenticate(r.Context(), profile)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.sessions.Issue(view.ID)
	if err != nil {
		writeError(w, r, fmt.Errorf("failed to issue session: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, authResponse{UserView: view, Token: token})
}

func (s *Server) getFarm(w http.ResponseWriter, r *http.Request) {
	farm, err := s.services.Farm.GetFarm(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, farm)
}

func (s *Server) buyAnimal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnimalKey string `json:"animal_key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Farm.BuyAnimal(r.Context(), userIDFromContext(r.Context()), req.AnimalKey); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) buyProtection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemKey string `json:"item_key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Farm.BuyProtection(r.Context(), userIDFromContext(r.Context()), req.ItemKey); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.services.Tasks.ListTasks(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*models.UserTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) startTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID int64 `json:"task_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Tasks.StartTask(r.Context(), userIDFromContext(r.Context()), req.TaskID); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) listOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.services.PvP.ListOffers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if offers == nil {
		offers = []*models.PvPOffer{}
	}
	writeJSON(w, http.StatusOK, offers)
}

func (s *Server) createOffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bet int64 `json:"bet"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	battle, err := s.services.PvP.CreateOffer(r.Context(), userIDFromContext(r.Context()), req.Bet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success  bool  `json:"success"`
		BattleID int64 `json:"battle_id"`
	}{Success: true, BattleID: battle.BattleID})
}

func (s *Server) acceptOffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BattleID int64 `json:"battle_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.services.PvP.AcceptOffer(r.Context(), userIDFromContext(r.Context()), req.BattleID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.DuelResult
	}{Success: true, DuelResult: result})
}

func (s *Server) top(w http.ResponseWriter, r *http.Request) {
	entries, err := s.services.Leaderboard.Top(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*models.TopEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) listGiveaways(w http.ResponseWriter, r *http.Request) {
	giveaways, err := s.services.Giveaways.ListActive(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if giveaways == nil {
		giveaways = []*models.Giveaway{}
	}
	writeJSON(w, http.StatusOK, giveaways)
}

func (s *Server) joinGiveaway(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GiveawayID int64 `json:"giveaway_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Giveaways.Join(r.Context(), userIDFromContext(r.Context()), req.GiveawayID); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) activatePromo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reward, err := s.services.Promo.Activate(r.Context(), userIDFromContext(r.Context()), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool  `json:"success"`
		Reward  int64 `json:"reward"`
	}{Success: true, Reward: reward})
}

func (s *Server) submitSocial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Platform string `json:"platform"`
		Nick     string `json:"nick"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Profile.SubmitSocial(r.Context(), userIDFromContext(r.Context()), req.Platform, req.Nick); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) verifyPhone(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Profile.VerifyPhone(r.Context(), userIDFromContext(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Profile.UpdateField(r.Context(), userIDFromContext(r.Context()), req.Field, req.Value); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) rollDice(w http.ResponseWriter, r *http.Request) {
	roll, err := s.services.Dice.Roll(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.DiceRoll
	}{Success: true, DiceRoll: roll})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	count, err := s.services.Admin.Export(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool  `json:"success"`
		Count   int64 `json:"count"`
	}{Success: true, Count: count})
}
