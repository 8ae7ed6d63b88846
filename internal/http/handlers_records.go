package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"financas/internal/core"
)

// ownerAndID reads the caller and the {id} parameter, writing the error
// response itself when either is missing.
func ownerAndID(w http.ResponseWriter, r *http.Request) (owner, id string, ok bool) {
	owner, err := ownerID(r)
	if err == nil {
		id, err = pathID(r)
	}
	if err != nil {
		writeError(w, r, err)
		return "", "", false
	}
	return owner, id, true
}

func noContent(w http.ResponseWriter) {
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}

// Fixed costs

func (s *Server) handleCreateFixedCost(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req fixedCostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.deps.FixedCosts.Create(r.Context(), owner, core.FixedCost{Name: sanitizeInput(req.Name), Amount: req.Amount})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newFixedCostResponse(c))
}

func (s *Server) handleListFixedCosts(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	costs, err := s.deps.FixedCosts.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]fixedCostResponse, 0, len(costs))
	for _, c := range costs {
		out = append(out, newFixedCostResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetFixedCost(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}
	c, err := s.deps.FixedCosts.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFixedCostResponse(c))
}

func (s *Server) handleUpdateFixedCost(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}
	var req fixedCostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.deps.FixedCosts.Update(r.Context(), owner, core.FixedCost{ID: id, Name: sanitizeInput(req.Name), Amount: req.Amount})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFixedCostResponse(c))
}

func (s *Server) handleDeleteFixedCost(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}
	if err := s.deps.FixedCosts.Delete(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// Goals

func goalFromRequest(req goalRequest) (core.Goal, error) {
	date, err := parseOptionalDate(req.TargetDate)
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		Name:          sanitizeInput(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    date,
	}, nil
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := goalFromRequest(req)
	if err == nil {
		g, err = s.deps.Goals.Create(r.Context(), owner, g)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGoalResponse(g))
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goals, err := s.deps.Goals.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}
	g, err := s.deps.Goals.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := goalFromRequest(req)
	if err == nil {
		g.ID = id
		g, err = s.deps.Goals.Update(r.Context(), owner, g)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGoalResponse(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Goals.Delete(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

// Expenses and incomes share handlers; the route decides the kind.

func (s *Server) mountEntries(r chi.Router, name string, kind core.EntryKind) {
	r.Post("/cadastro/"+name, s.handleCreateEntry(kind))
	r.Get("/listar/"+name, s.handleListEntries(kind))
	r.Put("/"+name+"/{id}", s.handleUpdateEntry(kind))
	r.Delete("/"+name+"/{id}", s.handleDeleteEntry(kind))
}

func entryFromRequest(kind core.EntryKind, req entryRequest) (core.Entry, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Entry{}, err
	}
	return core.Entry{
		Kind:        kind,
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Category:    sanitizeInput(req.Category),
		Date:        date,
	}, nil
}

func (s *Server) handleCreateEntry(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ownerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req entryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := entryFromRequest(kind, req)
		if err == nil {
			e, err = s.deps.Ledger.CreateEntry(r.Context(), owner, e)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, newEntryResponse(e))
	}
}

func (s *Server) handleListEntries(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ownerID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		entries, err := s.deps.Ledger.ListEntries(r.Context(), owner, kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]entryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, newEntryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleUpdateEntry(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, id, ok := ownerAndID(w, r)
		if !ok {
			return
		}
		var req entryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		e, err := entryFromRequest(kind, req)
		if err == nil {
			e.ID = id
			e, err = s.deps.Ledger.UpdateEntry(r.Context(), owner, e)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newEntryResponse(e))
	}
}

func (s *Server) handleDeleteEntry(kind core.EntryKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, id, ok := ownerAndID(w, r)
		if !ok {
			return
		}
		if err := s.deps.Ledger.DeleteEntry(r.Context(), owner, kind, id); err != nil {
			writeError(w, r, err)
			return
		}
		noContent(w)
	}
}

// Categories

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.deps.Ledger.CreateCategory(r.Context(), owner, core.Category{
		Name: sanitizeInput(req.Name),
		Kind: core.EntryKind(req.Kind),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryResponse(c))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := parseKindQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cats, err := s.deps.Ledger.ListCategories(r.Context(), owner, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, newCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Ledger.DeleteCategory(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}
