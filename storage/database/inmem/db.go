package inmemdb

import (
	"sync"

	"github.com/gimvicurnik/urnik/core"
)

type (
	DB struct {
		state *stateTable
	}

	stateTable struct {
		sync.RWMutex
		table map[string]*core.StateRecord
	}
)

func Open() *DB {
	return &DB{
		state: &stateTable{table: make(map[string]*core.StateRecord)},
	}
}
