package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/mbolis/formie/app"
	"github.com/mbolis/formie/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/register", Register(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Get("/forms", ListForms(app))
	api.With(middlewares.Authenticated(app.Config)).
		Post("/forms", CreateForm(app))
	api.Get(`/forms/{id:^\d+$}`, GetForm(app))
	api.With(middlewares.Identify(app.Config)).
		Post(`/forms/{id:^\d+$}/answers`, SubmitAnswers(app))
	api.With(middlewares.Identify(app.Config)).
		Get(`/forms/{id:^\d+$}/results`, GetResults(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}
