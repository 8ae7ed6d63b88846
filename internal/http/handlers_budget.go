package http

import (
	"net/http"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.Budgets.Create(r.Context(), owner, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBudgetResponse(res.Budget, res.OmittedFixedCostIDs))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budgets, err := s.deps.Budgets.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, newBudgetResponse(b, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.deps.Budgets.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetResponse(b, nil))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.Budgets.Update(r.Context(), owner, id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBudgetResponse(res.Budget, res.OmittedFixedCostIDs))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Budgets.Delete(r.Context(), owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Send(w)
}

// handleIncomeVsExpense serves the dashboard ratio chart.
func (s *Server) handleIncomeVsExpense(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ratio, err := s.deps.Budgets.IncomeVsExpenseRatio(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRatioResponse(ratio))
}

// handleFixedCostBreakdown serves the per-budget fixed cost chart.
func (s *Server) handleFixedCostBreakdown(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	breakdowns, err := s.deps.Budgets.FixedCostBreakdown(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]breakdownResponse, 0, len(breakdowns))
	for _, bd := range breakdowns {
		out = append(out, breakdownResponse{
			BudgetID:   bd.BudgetID,
			Total:      number(bd.Total),
			FixedCosts: shareResponses(bd.FixedCosts),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
