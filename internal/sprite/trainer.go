package sprite

import "overworld-server/internal/domain"

// UpdateTrainer продвигает диалог.
//
// Первое INTERACT по футпринту открывает разговор на первой реплике,
// следующие INTERACT того же собеседника листают дальше, после последней
// реплики разговор закрывается. END_INTERACTION собеседника сбрасывает курсор.
// Пока идёт разговор, другие собеседники игнорируются.
func UpdateTrainer(_ Context, self Sprite, events []domain.Event) (Delta, error) {
	cursor, partner := self.Trainer.Cursor, self.Trainer.Partner
	lines := len(self.Trainer.Trainer.Dialog)
	footprint := self.Image.Footprint()
	changed := false

	for _, ev := range events {
		switch ev.Kind {
		case domain.EventInteract:
			if ev.Actor == self.Name || !footprint.Contains(ev.Target) {
				continue
			}
			if lines == 0 {
				continue
			}
			switch {
			case cursor < 0:
				cursor, partner = 0, ev.Actor
			case ev.Actor == partner:
				cursor++
				if cursor >= lines {
					cursor, partner = -1, ""
				}
			default:
				continue
			}
			changed = true

		case domain.EventEndInteraction:
			if cursor < 0 || ev.Actor != partner {
				continue
			}
			cursor, partner = -1, ""
			changed = true
		}
	}

	if !changed {
		return Delta{}, nil
	}
	return Delta{Dialog: &DialogState{Cursor: cursor, Partner: partner}}, nil
}
