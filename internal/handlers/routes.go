package handlers

import "net/http"

const statementPath = "/{user_id}/{date}/{category}/{type}/{amount}"

// Routes returns the API mux wrapped in request logging.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health)

	mux.HandleFunc("POST /expense/register", h.Register)
	mux.HandleFunc("POST /token", h.Login)

	mux.Handle("GET /expense/dashboard", h.RequireUser(http.HandlerFunc(h.Dashboard)))
	mux.Handle("POST /expense/dashboard", h.RequireUser(http.HandlerFunc(h.AddStatement)))
	mux.Handle("GET /expense/dashboard/statistics", h.RequireUser(http.HandlerFunc(h.Statistics)))

	mux.Handle("GET /expense/dashboard/statement/edit"+statementPath, h.Mutation(h.EditLookup))
	mux.Handle("POST /expense/dashboard/statement/edit"+statementPath, h.Mutation(h.EditRecreate))
	mux.Handle("DELETE /expense/dashboard/statement/delete"+statementPath, h.Mutation(h.DeleteStatements))

	return h.LogRequests(mux)
}
