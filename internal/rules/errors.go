package rules

import (
	"errors"
	"fmt"

	"github.com/freeeve/gomoves/internal/board"
)

// ErrIllegal is matched by every error Play returns for a rule violation.
var ErrIllegal = errors.New("illegal move")

type moveError struct {
	player board.Cell
	move   board.Move
}

func (err moveError) Error() string {
	return fmt.Sprintf("unable to play %v at %v", err.player, err.move)
}

func (err moveError) Is(target error) bool { return target == ErrIllegal }
