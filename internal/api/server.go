package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ouro/internal/app"
	"ouro/internal/config"
	"ouro/internal/game"
	"ouro/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxImportBytes = 1 << 20

type Server struct {
	cfg   config.APIConfig
	log   *slog.Logger
	sess  *game.Session
	saver *app.Saver
	mux   *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, sess *game.Session, saver *app.Saver) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:   cfg,
		log:   logger,
		sess:  sess,
		saver: saver,
		mux:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/snapshot", s.handleSnapshot)

		r.Post("/bite", s.handleBite)
		r.Post("/purchase", s.handlePurchase)
		r.Post("/shed", s.handleShed)
		r.Post("/ascend", s.handleAscend)

		r.Post("/golden/catch", s.handleCatchGolden)
		r.Post("/bargain/accept", s.handleAcceptBargain)
		r.Post("/bargain/decline", s.handleDeclineBargain)
		r.Post("/echo/accept", s.handleAcceptEcho)
		r.Post("/archetype/accept", s.handleAcceptArchetype)
		r.Post("/archetype/select", s.handleSelectArchetype)

		r.Post("/meta/starting-length", s.handleBuyStartingLength)
		r.Post("/meta/unlock", s.handleUnlockUpgrade)
		r.Post("/meta/skin", s.handleSetSkin)

		r.Post("/save", s.handleSave)
		r.Post("/reload", s.handleReload)
		r.Post("/wipe", s.handleWipe)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

func (s *Server) handleBite(w http.ResponseWriter, r *http.Request) {
	var in struct {
		At *time.Time `json:"at"`
	}
	if err := decodeOptionalJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var at time.Time
	if in.At != nil {
		at = *in.At
	}
	writeJSON(w, http.StatusOK, s.sess.Bite(at))
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID   string `json:"id"`
		Slot *int   `json:"slot"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(in.ID)
	switch {
	// Slots count from 1, matching the play keys.
	case in.Slot != nil:
		bought, ok := s.sess.PurchaseSlot(*in.Slot - 1)
		writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "id": bought})
	case id != "":
		if _, known := s.sess.Engine().Catalog().Upgrade(id); !known {
			writeDomainError(w, game.ErrUnknownUpgrade)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": s.sess.Purchase(id), "id": id})
	default:
		writeError(w, http.StatusBadRequest, "id or slot is required")
	}
}

func (s *Server) handleShed(w http.ResponseWriter, _ *http.Request) {
	scales, ok := s.sess.Shed()
	writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "scales": scales})
}

func (s *Server) handleAscend(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Purchases map[string]int `json:"purchases"`
	}
	if err := decodeOptionalJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for id, n := range in.Purchases {
		if _, known := s.sess.Engine().Catalog().AscensionUpgrade(id); !known {
			writeDomainError(w, game.ErrUnknownAscension)
			return
		}
		if n < 0 {
			writeError(w, http.StatusBadRequest, "purchase counts must not be negative")
			return
		}
	}
	res, ok := s.sess.Ascend(in.Purchases)
	writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "result": res})
}

func (s *Server) handleCatchGolden(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": s.sess.CatchGolden()})
}

func (s *Server) handleAcceptBargain(w http.ResponseWriter, _ *http.Request) {
	id, ok := s.sess.AcceptBargain()
	writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "upgrade": id})
}

func (s *Server) handleDeclineBargain(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": s.sess.DeclineBargain()})
}

func (s *Server) handleAcceptEcho(w http.ResponseWriter, _ *http.Request) {
	id, ok := s.sess.AcceptEcho()
	writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "upgrade": id})
}

func (s *Server) handleAcceptArchetype(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": s.sess.AcceptArchetype()})
}

func (s *Server) handleSelectArchetype(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(in.ID)
	if _, known := s.sess.Engine().Catalog().Archetype(id); !known {
		writeDomainError(w, game.ErrUnknownArchetype)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": s.sess.SelectArchetype(id)})
}

func (s *Server) handleBuyStartingLength(w http.ResponseWriter, _ *http.Request) {
	if err := s.sess.BuyStartingLength(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Snapshot().Meta)
}

func (s *Server) handleUnlockUpgrade(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sess.UnlockUpgrade(strings.TrimSpace(in.ID)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Snapshot().Meta)
}

func (s *Server) handleSetSkin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": s.sess.SetSkin(strings.TrimSpace(in.ID))})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.saver.Save(r.Context(), s.sess); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "saved_at": s.saver.LastSaved()})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.saver.Reload(r.Context(), s.sess); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

func (s *Server) handleWipe(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !in.Confirm {
		writeError(w, http.StatusBadRequest, "wipe requires confirm=true")
		return
	}
	if err := s.saver.Wipe(r.Context(), s.sess); err != nil {
		writeDomainError(w, err)
		return
	}
	s.log.Warn("progress wiped over api", "request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	raw, err := s.sess.Export()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="ouro.save.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sess.Import(raw); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Snapshot())
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrStaleSession):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrMaxedOut), errors.Is(err, game.ErrAlreadyUnlocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrNotEnoughKnowledge), errors.Is(err, game.ErrCorruptRecord):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrUnknownUpgrade), errors.Is(err, game.ErrUnknownArchetype), errors.Is(err, game.ErrUnknownAscension):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(r *http.Request, out any) error {
	if err := decodeJSON(r, out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
