package usecase

import (
	"sync"

	"intervu/internal/domain"
)

// turnLog is the append-only sequence of exchanges for one interview.
// Turns are appended in transcription order and mutated in place exactly
// once, when the persona side arrives.
type turnLog struct {
	mu    sync.Mutex
	turns []domain.Turn
}

func (l *turnLog) Append(turn domain.Turn) {
	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()
}

// Commit fills the persona side of the turn matched by its local id. When the
// server did not report a turn number, the 1-based position is used instead.
func (l *turnLog) Commit(id, personaText string, personaAudio *domain.AudioClip, turnNumber int) (domain.Turn, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.turns {
		if l.turns[i].ID != id {
			continue
		}
		l.turns[i].PersonaText = personaText
		l.turns[i].PersonaAudio = personaAudio
		if turnNumber > 0 {
			l.turns[i].TurnNumber = turnNumber
		} else {
			l.turns[i].TurnNumber = i + 1
		}
		return l.turns[i], true
	}
	return domain.Turn{}, false
}

func (l *turnLog) Get(id string) (domain.Turn, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.turns {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Turn{}, false
}

func (l *turnLog) Snapshot() []domain.Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *turnLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// Clear drops the sequence and its audio references so clips accumulated
// across turns are released with the interview screen.
func (l *turnLog) Clear() {
	l.mu.Lock()
	for i := range l.turns {
		l.turns[i].StudentAudio = nil
		l.turns[i].PersonaAudio = nil
	}
	l.turns = nil
	l.mu.Unlock()
}
