package db

import (
	"github.com/devmarkh/converso/internal/core"
)

// DbClient re-exports the persistence contract so callers that only touch
// the database layer don't need to import core.
type DbClient = core.DbClient
