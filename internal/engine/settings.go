package engine

import (
	"fmt"
	"math"
)

const (
	DefaultMaxMonths              = 600
	DefaultTolerance              = 0.01
	DefaultHybridBalanceThreshold = 1000.0
	DefaultBalancedDebtShare      = 0.7
	DefaultSplitTolerance         = 0.01
)

// Settings задает числовые пороги движка. Значения передаются явно, а не читаются из глобальных констант.
type Settings struct {
	MaxMonths              int     `yaml:"max_months"`
	Tolerance              float64 `yaml:"tolerance"`
	HybridBalanceThreshold float64 `yaml:"hybrid_balance_threshold"`
	BalancedDebtShare      float64 `yaml:"balanced_debt_share"`
	SplitTolerance         float64 `yaml:"split_tolerance"`
}

// DefaultSettings возвращает настройки по умолчанию (горизонт 50 лет, точность в один цент).
func DefaultSettings() Settings {
	return Settings{
		MaxMonths:              DefaultMaxMonths,
		Tolerance:              DefaultTolerance,
		HybridBalanceThreshold: DefaultHybridBalanceThreshold,
		BalancedDebtShare:      DefaultBalancedDebtShare,
		SplitTolerance:         DefaultSplitTolerance,
	}
}

// Validate проверяет, что настройки пригодны для симуляции.
func (s Settings) Validate() error {
	if s.MaxMonths <= 0 {
		return fmt.Errorf("max months must be greater than 0")
	}

	if s.Tolerance <= 0 || math.IsNaN(s.Tolerance) || math.IsInf(s.Tolerance, 0) {
		return fmt.Errorf("tolerance must be a positive number")
	}

	if s.HybridBalanceThreshold < 0 || math.IsNaN(s.HybridBalanceThreshold) {
		return fmt.Errorf("hybrid balance threshold cannot be negative")
	}

	if s.BalancedDebtShare < 0 || s.BalancedDebtShare > 1 || math.IsNaN(s.BalancedDebtShare) {
		return fmt.Errorf("balanced debt share must be between 0 and 1")
	}

	if s.SplitTolerance < 0 || math.IsNaN(s.SplitTolerance) {
		return fmt.Errorf("split tolerance cannot be negative")
	}

	return nil
}

type Engine struct {
	settings Settings
}

// New создает движок симуляции с заданными настройками.
func New(settings Settings) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &Engine{settings: settings}, nil
}

// Settings возвращает копию настроек движка.
func (e *Engine) Settings() Settings {
	return e.settings
}

func (e *Engine) horizon(maxMonths int) int {
	if maxMonths <= 0 || maxMonths > e.settings.MaxMonths {
		return e.settings.MaxMonths
	}

	return maxMonths
}
