package realtime

import (
	"github.com/CodeAndHammer/giftsnipe/internal/constants"
	"github.com/CodeAndHammer/giftsnipe/internal/game"
	"github.com/CodeAndHammer/giftsnipe/internal/util"
)

// StatsPayload is the stats event body: raw counters plus display strings.
type StatsPayload struct {
	game.Stats
	ScoreText    string `json:"scoreText"`
	GameTimeText string `json:"gameTimeText"`
}

type RemovedPayload struct {
	ID     string             `json:"id"`
	Reason game.RemovalReason `json:"reason"`
}

type StartedPayload struct {
	Settings game.Settings    `json:"settings"`
	Spawn    game.SpawnConfig `json:"spawn"`
}

// StoppedPayload carries the end-of-game summary.
type StoppedPayload struct {
	Final   StatsPayload `json:"final"`
	Message string       `json:"message"`
}

// NewStatsPayload decorates stats with formatted score and game time.
func NewStatsPayload(s game.Stats) StatsPayload {
	return StatsPayload{
		Stats:        s,
		ScoreText:    util.FormatScore(s.Score),
		GameTimeText: util.FormatGameTime(s.GameTime),
	}
}

// Observer publishes engine events on a Broadcaster.
type Observer struct {
	hub *Broadcaster
}

var _ game.Observer = (*Observer)(nil)

func NewObserver(hub *Broadcaster) *Observer {
	return &Observer{hub: hub}
}

func (o *Observer) OnGiftSpawned(g game.Gift) {
	o.hub.Publish(Event{Type: constants.EventGiftSpawned, Data: g})
}

func (o *Observer) OnGiftRemoved(id string, reason game.RemovalReason) {
	o.hub.Publish(Event{Type: constants.EventGiftRemoved, Data: RemovedPayload{ID: id, Reason: reason}})
}

func (o *Observer) OnStatsUpdated(s game.Stats) {
	o.hub.Publish(Event{Type: constants.EventStats, Data: NewStatsPayload(s)})
}

func (o *Observer) OnGameStarted(s game.Settings) {
	o.hub.Publish(Event{Type: constants.EventGameStarted, Data: StartedPayload{
		Settings: s,
		Spawn:    game.ResolveSpawnConfig(s),
	}})
}

func (o *Observer) OnGameStopped(final game.Stats) {
	o.hub.Publish(Event{Type: constants.EventGameStopped, Data: StoppedPayload{
		Final:   NewStatsPayload(final),
		Message: SummaryMessage(final),
	}})
}

// SummaryMessage is the line shown when a game ends.
func SummaryMessage(final game.Stats) string {
	return "Game over! You collected " + util.FormatScore(final.GiftCount) +
		" gifts for " + util.FormatScore(final.Score) + " points."
}
