package db

import (
	"database/sql"
	"errors"

	"github.com/pingcap/log"
)

const (
	MEMORY = "memory"
	LOCAL  = "local"
)

// this meant be use with defer so it can log error even after function end
func TxnRollback(tx *sql.Tx) {
	err := tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error(err.Error())
	}
}
