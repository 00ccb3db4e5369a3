package api

// Game phases reported by the server.
const (
	PhaseBetting    = "betting"
	PhaseDealing    = "dealing"
	PhasePlayerTurn = "player_turn"
	PhaseDealerTurn = "dealer_turn"
	PhaseGameOver   = "game_over"
)

// Round results reported by the server once a round settles.
const (
	ResultWin       = "win"
	ResultLoss      = "loss"
	ResultPush      = "push"
	ResultBlackjack = "blackjack"
	ResultSurrender = "surrender"
)

// Card is a single playing card as serialized by the server.
type Card struct {
	Suit  string `json:"suit"`
	Rank  string `json:"rank"`
	Value int    `json:"value"`
}

// IsRed reports whether the card renders in a red suit.
func (c Card) IsRed() bool {
	return c.Suit == "hearts" || c.Suit == "diamonds"
}

// String renders the card with a unicode suit symbol, e.g. "A♠".
func (c Card) String() string {
	symbol := c.Suit
	switch c.Suit {
	case "hearts":
		symbol = "♥"
	case "diamonds":
		symbol = "♦"
	case "clubs":
		symbol = "♣"
	case "spades":
		symbol = "♠"
	}
	return c.Rank + symbol
}

// Hand is one player hand with its bet and server-evaluated flags.
type Hand struct {
	Cards          []Card `json:"cards"`
	Value          int    `json:"value"`
	Bet            int    `json:"bet"`
	IsBlackjack    bool   `json:"is_blackjack"`
	IsBust         bool   `json:"is_bust"`
	IsDoubledDown  bool   `json:"is_doubled_down"`
	IsSplit        bool   `json:"is_split"`
	FromSplitAces  bool   `json:"is_from_split_aces"`
	IsSurrendered  bool   `json:"is_surrendered"`
	CanDoubleDown  bool   `json:"can_double_down"`
	CanSplit       bool   `json:"can_split"`
	IsFiveCardWin  bool   `json:"is_charlie"`
}

// Stats are the per-player running totals the server tracks.
type Stats struct {
	Chips           int `json:"chips"`
	TotalWins       int `json:"total_wins"`
	TotalLosses     int `json:"total_losses"`
	TotalBlackjacks int `json:"total_blackjacks"`
	TotalGames      int `json:"total_games"`
}

// PlayerState is the player portion of a snapshot.
type PlayerState struct {
	Chips            int    `json:"chips"`
	Hands            []Hand `json:"hands"`
	CurrentHandIndex int    `json:"current_hand_index"`
	Stats            Stats  `json:"stats"`
}

// DealerState is the dealer portion of a snapshot. Hand holds only the
// visible cards while the hole card is hidden; FullHand always holds
// everything the server has dealt.
type DealerState struct {
	Hand           []Card `json:"hand"`
	FullHand       []Card `json:"full_hand"`
	Value          *int   `json:"value"`
	FullValue      *int   `json:"full_value"`
	IsBlackjack    bool   `json:"is_blackjack"`
	IsBust         bool   `json:"is_bust"`
	HoleCardHidden bool   `json:"hole_card_hidden"`
}

// TableLimits are the betting bounds for the table.
type TableLimits struct {
	MinBet int `json:"min_bet"`
	MaxBet int `json:"max_bet"`
}

// AutoStatus reports the server-driven batch play mode.
type AutoStatus struct {
	Active          bool `json:"active"`
	RoundsRemaining int  `json:"rounds_remaining"`
	RoundsPlayed    int  `json:"rounds_played"`
}

// Snapshot is the full game state the server returns from every
// endpoint. The client never mutates one; it replaces its copy
// wholesale on each response and re-derives all display state from it.
type Snapshot struct {
	GameID           string      `json:"game_id"`
	Phase            string      `json:"state"`
	Player           PlayerState `json:"player"`
	Dealer           DealerState `json:"dealer"`
	Result           string      `json:"result"`
	DeckRemaining    int         `json:"deck_remaining"`
	Limits           TableLimits `json:"table_limits"`
	InsuranceOffered bool        `json:"insurance_offered"`
	EvenMoneyOffered bool        `json:"even_money_offered"`
	InsuranceBet     int         `json:"insurance_bet"`
	Auto             AutoStatus  `json:"auto_mode"`
}

// Default table bounds applied when the server omits limits.
const (
	DefaultMinBet = 1
	DefaultMaxBet = 100000
)

// Normalize fills defaults for optionally-present fields and clamps the
// current hand index into range, so downstream code operates on a fully
// typed structure without guarding every access. A hand index can be
// transiently out of range after a bust removes the active hand; it is
// clamped to the last valid index rather than rejected.
func (s *Snapshot) Normalize() {
	if s.Phase == "" {
		s.Phase = PhaseBetting
	}
	if s.Limits.MinBet <= 0 {
		s.Limits.MinBet = DefaultMinBet
	}
	if s.Limits.MaxBet <= 0 {
		s.Limits.MaxBet = DefaultMaxBet
	}
	if s.Limits.MaxBet < s.Limits.MinBet {
		s.Limits.MaxBet = s.Limits.MinBet
	}
	for i := range s.Player.Hands {
		if s.Player.Hands[i].Cards == nil {
			s.Player.Hands[i].Cards = []Card{}
		}
	}
	if s.Dealer.Hand == nil {
		s.Dealer.Hand = []Card{}
	}
	if s.Dealer.FullHand == nil {
		s.Dealer.FullHand = s.Dealer.Hand
	}
	if n := len(s.Player.Hands); n > 0 {
		if s.Player.CurrentHandIndex >= n {
			s.Player.CurrentHandIndex = n - 1
		}
		if s.Player.CurrentHandIndex < 0 {
			s.Player.CurrentHandIndex = 0
		}
	} else {
		s.Player.CurrentHandIndex = 0
	}
}

// CurrentHand returns the active hand, or nil between rounds.
func (s *Snapshot) CurrentHand() *Hand {
	if len(s.Player.Hands) == 0 {
		return nil
	}
	i := s.Player.CurrentHandIndex
	if i < 0 {
		i = 0
	}
	if i >= len(s.Player.Hands) {
		i = len(s.Player.Hands) - 1
	}
	return &s.Player.Hands[i]
}

// TotalBet sums the bets across all hands plus any insurance bet.
func (s *Snapshot) TotalBet() int {
	total := s.InsuranceBet
	for _, h := range s.Player.Hands {
		total += h.Bet
	}
	return total
}

// DecisionPending reports whether an insurance or even-money offer is
// waiting on the player. All normal actions are disabled while true.
func (s *Snapshot) DecisionPending() bool {
	return s.InsuranceOffered || s.EvenMoneyOffered
}
