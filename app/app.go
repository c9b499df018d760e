package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/mbolis/formie/config"
	"github.com/mbolis/formie/storage"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Shapes *storage.Registry
}
