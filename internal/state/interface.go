package state

import "database/sql"

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	DB() *sql.DB
	GetUpdateState() (*UpdateState, error)
	SaveUpdateState(s UpdateState) error
	ResetUpdateState() error
	WidgetData() (WidgetData, error)
	SaveWidgetData(w WidgetData) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
