package service

import (
	"familytree/internal/database"
	"familytree/internal/repository"
)

// inTx runs fn against a Store bound to one transaction. Any error rolls
// the transaction back; store errors come back as ErrStorageFailure.
func inTx(db *database.DB, fn func(st *repository.Store) error) error {
	err := db.WithTx(func(tx *database.Tx) error {
		return fn(repository.NewStore(tx))
	})
	return storageFailure(err)
}

// read runs fn against a Store on the plain connection
func read(db *database.DB, fn func(st *repository.Store) error) error {
	return storageFailure(fn(repository.NewStore(db)))
}
