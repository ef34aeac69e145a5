package domain

import (
	"database/sql/driver"
	"fmt"
)

// GameStatus é o ciclo de vida de um jogo: UPCOMING -> IN_PROGRESS -> COMPLETED.
// O valor zero é inválido.
type GameStatus uint8

const (
	GameUpcoming GameStatus = iota + 1
	GameInProgress
	GameCompleted
)

func (s GameStatus) String() string {
	switch s {
	case GameUpcoming:
		return "upcoming"
	case GameInProgress:
		return "in_progress"
	case GameCompleted:
		return "completed"
	}
	return fmt.Sprintf("GameStatus(%d)", uint8(s))
}

func ParseGameStatus(v string) (GameStatus, error) {
	switch v {
	case "upcoming":
		return GameUpcoming, nil
	case "in_progress":
		return GameInProgress, nil
	case "completed":
		return GameCompleted, nil
	}
	return 0, fmt.Errorf("unknown game status %q", v)
}

func (s GameStatus) MarshalText() ([]byte, error) {
	if _, err := ParseGameStatus(s.String()); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

func (s *GameStatus) UnmarshalText(b []byte) error {
	v, err := ParseGameStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s GameStatus) Value() (driver.Value, error) {
	b, err := s.MarshalText()
	return string(b), err
}

func (s *GameStatus) Scan(src any) error { return scanText(src, s) }

// BetType identifica o mercado da aposta.
type BetType uint8

const (
	BetMoneyline BetType = iota + 1
	BetSpread
	BetOverUnder
)

func (t BetType) String() string {
	switch t {
	case BetMoneyline:
		return "moneyline"
	case BetSpread:
		return "spread"
	case BetOverUnder:
		return "over_under"
	}
	return fmt.Sprintf("BetType(%d)", uint8(t))
}

func ParseBetType(v string) (BetType, error) {
	switch v {
	case "moneyline":
		return BetMoneyline, nil
	case "spread":
		return BetSpread, nil
	case "over_under":
		return BetOverUnder, nil
	}
	return 0, fmt.Errorf("unknown bet type %q", v)
}

func (t BetType) MarshalText() ([]byte, error) {
	if _, err := ParseBetType(t.String()); err != nil {
		return nil, err
	}
	return []byte(t.String()), nil
}

func (t *BetType) UnmarshalText(b []byte) error {
	v, err := ParseBetType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t BetType) Value() (driver.Value, error) {
	b, err := t.MarshalText()
	return string(b), err
}

func (t *BetType) Scan(src any) error { return scanText(src, t) }

// BetSelection é o lado escolhido. HOME/AWAY valem para MONEYLINE e SPREAD,
// OVER/UNDER apenas para OVER_UNDER.
type BetSelection uint8

const (
	SelectHome BetSelection = iota + 1
	SelectAway
	SelectOver
	SelectUnder
)

func (s BetSelection) String() string {
	switch s {
	case SelectHome:
		return "home"
	case SelectAway:
		return "away"
	case SelectOver:
		return "over"
	case SelectUnder:
		return "under"
	}
	return fmt.Sprintf("BetSelection(%d)", uint8(s))
}

func ParseBetSelection(v string) (BetSelection, error) {
	switch v {
	case "home":
		return SelectHome, nil
	case "away":
		return SelectAway, nil
	case "over":
		return SelectOver, nil
	case "under":
		return SelectUnder, nil
	}
	return 0, fmt.Errorf("unknown bet selection %q", v)
}

// ValidFor informa se a seleção é compatível com o tipo de aposta.
func (s BetSelection) ValidFor(t BetType) bool {
	switch t {
	case BetMoneyline, BetSpread:
		return s == SelectHome || s == SelectAway
	case BetOverUnder:
		return s == SelectOver || s == SelectUnder
	}
	return false
}

func (s BetSelection) MarshalText() ([]byte, error) {
	if _, err := ParseBetSelection(s.String()); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

func (s *BetSelection) UnmarshalText(b []byte) error {
	v, err := ParseBetSelection(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s BetSelection) Value() (driver.Value, error) {
	b, err := s.MarshalText()
	return string(b), err
}

func (s *BetSelection) Scan(src any) error { return scanText(src, s) }

// BetStatus: PENDING até a liquidação, depois exatamente um de WON/LOST/PUSH.
type BetStatus uint8

const (
	BetPending BetStatus = iota + 1
	BetWon
	BetLost
	BetPush
)

func (s BetStatus) String() string {
	switch s {
	case BetPending:
		return "pending"
	case BetWon:
		return "won"
	case BetLost:
		return "lost"
	case BetPush:
		return "push"
	}
	return fmt.Sprintf("BetStatus(%d)", uint8(s))
}

func ParseBetStatus(v string) (BetStatus, error) {
	switch v {
	case "pending":
		return BetPending, nil
	case "won":
		return BetWon, nil
	case "lost":
		return BetLost, nil
	case "push":
		return BetPush, nil
	}
	return 0, fmt.Errorf("unknown bet status %q", v)
}

// Settled é verdadeiro para qualquer status terminal.
func (s BetStatus) Settled() bool {
	return s == BetWon || s == BetLost || s == BetPush
}

func (s BetStatus) MarshalText() ([]byte, error) {
	if _, err := ParseBetStatus(s.String()); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

func (s *BetStatus) UnmarshalText(b []byte) error {
	v, err := ParseBetStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s BetStatus) Value() (driver.Value, error) {
	b, err := s.MarshalText()
	return string(b), err
}

func (s *BetStatus) Scan(src any) error { return scanText(src, s) }

type textUnmarshaler interface {
	UnmarshalText([]byte) error
}

func scanText(src any, dst textUnmarshaler) error {
	switch v := src.(type) {
	case string:
		return dst.UnmarshalText([]byte(v))
	case []byte:
		return dst.UnmarshalText(v)
	}
	return fmt.Errorf("cannot scan %T into enum", src)
}
