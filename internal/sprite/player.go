package sprite

import (
	"context"
	"errors"
	"fmt"

	"overworld-server/internal/domain"
)

// UpdatePlayer суммирует свои MOVE/TURN, отправляет предложение в канал
// и возвращает то, что клиент подтвердил.
func UpdatePlayer(ctx Context, self Sprite, events []domain.Event) (Delta, error) {
	var move domain.Position
	turn := 0
	proposed := false

	for _, ev := range events {
		if ev.Actor != self.Name {
			continue
		}
		switch ev.Kind {
		case domain.EventMove:
			move = move.Add(ev.Delta)
			proposed = true
		case domain.EventTurn:
			turn += ev.Degrees
			proposed = true
		}
	}

	// Нечего предлагать - с клиентом не говорим
	if !proposed {
		return Delta{}, nil
	}

	proposal := Proposal{
		Seq:    ctx.Tick,
		Sprite: self.Name,
		Pos:    self.Image.Pos.Add(move),
		Rotate: domain.NormalizeRotation(self.Image.Rotate + turn),
	}

	var ch Channel = EchoChannel{}
	if self.Player.Channel != nil {
		ch = self.Player.Channel
	}

	exCtx := ctx.Ctx
	if exCtx == nil {
		exCtx = context.Background()
	}

	ack, err := ch.Exchange(exCtx, proposal)
	if err != nil {
		if !errors.Is(err, domain.ErrChannel) {
			err = fmt.Errorf("%w: %w", domain.ErrChannel, err)
		}
		return Delta{Err: fmt.Errorf("player %q: %w", self.Name, err)}, nil
	}

	pos, rot := ack.Pos, ack.Rotate
	return Delta{Pos: &pos, Rotate: &rot, Corrected: pos != proposal.Pos}, nil
}
