package types

import (
	"context"
	"ctchen222/tateti/internal/bot"
	"ctchen222/tateti/internal/player"
)

// RegistrationRequest represents a request to register a player.
type RegistrationRequest struct {
	Player     *player.Player
	Difficulty bot.Difficulty // empty means the server default
	Ctx        context.Context
}
