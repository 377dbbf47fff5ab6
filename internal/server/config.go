package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cardmasters/kachuful/internal/game"
)

// ServerConfig represents the complete server configuration.
type ServerConfig struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings configures the rules every room plays with.
type GameSettings struct {
	MaxPlayers                int    `hcl:"max_players,optional"`
	HandSequence              []int  `hcl:"hand_sequence,optional"`
	Scoring                   string `hcl:"scoring,optional"`
	HitPoints                 int    `hcl:"hit_points,optional"`
	PenaltyPerTrick           int    `hcl:"penalty_per_trick,optional"`
	Multiplier                int    `hcl:"multiplier,optional"`
	HitFloor                  int    `hcl:"hit_floor,optional"`
	TrumpRotation             string `hcl:"trump_rotation,optional"`
	DisableLastBidRestriction bool   `hcl:"disable_last_bid_restriction,optional"`
	RoundDelaySeconds         int    `hcl:"round_delay_seconds,optional"`
}

// DefaultServerConfig returns default server configuration: the classic
// descending-then-ascending hand sequence with standard scoring.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: &ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Game: &GameSettings{
			MaxPlayers:        4,
			HandSequence:      []int{8, 7, 6, 5, 4, 3, 2, 1, 2, 3, 4, 5, 6, 7, 8},
			Scoring:           "standard",
			HitPoints:         10,
			PenaltyPerTrick:   1,
			Multiplier:        5,
			TrumpRotation:     string(game.TrumpRotate),
			RoundDelaySeconds: 5,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file, falling back
// to defaults when the file does not exist.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultServerConfig()
	if config.Server == nil {
		config.Server = &ServerSettings{}
	}
	if config.Game == nil {
		config.Game = &GameSettings{}
	}
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
	if len(config.Game.HandSequence) == 0 {
		config.Game.HandSequence = defaults.Game.HandSequence
	}
	if config.Game.Scoring == "" {
		config.Game.Scoring = defaults.Game.Scoring
	}
	if config.Game.HitPoints == 0 {
		config.Game.HitPoints = defaults.Game.HitPoints
	}
	if config.Game.PenaltyPerTrick == 0 {
		config.Game.PenaltyPerTrick = defaults.Game.PenaltyPerTrick
	}
	if config.Game.Multiplier == 0 {
		config.Game.Multiplier = defaults.Game.Multiplier
	}
	if config.Game.TrumpRotation == "" {
		config.Game.TrumpRotation = defaults.Game.TrumpRotation
	}
	if config.Game.RoundDelaySeconds == 0 {
		config.Game.RoundDelaySeconds = defaults.Game.RoundDelaySeconds
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.MaxPlayers < game.MinPlayers || c.Game.MaxPlayers > game.MaxPlayers {
		return fmt.Errorf("max players must be between %d and %d", game.MinPlayers, game.MaxPlayers)
	}
	for i, size := range c.Game.HandSequence {
		if size < 1 {
			return fmt.Errorf("hand sequence entry %d must be at least 1", i)
		}
	}
	switch c.Game.Scoring {
	case "standard", "penalty", "multiplier":
	default:
		return fmt.Errorf("unknown scoring model %q", c.Game.Scoring)
	}
	switch game.TrumpPolicy(c.Game.TrumpRotation) {
	case game.TrumpRotate, game.TrumpRandom, game.TrumpNone:
	default:
		// Fixed trump needs a suit, which the config file does not carry.
		return fmt.Errorf("unknown trump rotation %q", c.Game.TrumpRotation)
	}
	if c.Game.RoundDelaySeconds < 1 {
		return fmt.Errorf("round delay must be at least 1 second")
	}
	return nil
}

// ScoreModel builds the configured scoring model.
func (c *ServerConfig) ScoreModel() game.ScoreModel {
	switch c.Game.Scoring {
	case "penalty":
		return game.PenaltyScoring{HitPoints: c.Game.HitPoints, PenaltyPerTrick: c.Game.PenaltyPerTrick}
	case "multiplier":
		return game.MultiplierScoring{Multiplier: c.Game.Multiplier, HitFloor: c.Game.HitFloor}
	default:
		return game.StandardScoring{HitPoints: c.Game.HitPoints}
	}
}

// GetServerAddress returns the full server address.
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
