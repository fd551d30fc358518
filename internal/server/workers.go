package server

import (
	"context"

	"github.com/preston-bernstein/archery-score-client/internal/janitor"
)

// Janitor defines the background draft cleanup the server needs.
type Janitor interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() janitor.Status
}
