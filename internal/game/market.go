package game

// StockMarket is a one-dimensional price ladder. Index 0 is the closing
// space: a price token driven onto it closes the company. The topmost space
// raises the game-over-pending condition.
type StockMarket struct {
	Prices []int
}

// NewStockMarket wraps an ascending price ladder.
func NewStockMarket(prices []int) *StockMarket {
	return &StockMarket{Prices: prices}
}

// Price returns the price at index, clamped to the ladder.
func (m *StockMarket) Price(index int) int {
	if index < 0 {
		index = 0
	}
	if index >= len(m.Prices) {
		index = len(m.Prices) - 1
	}
	return m.Prices[index]
}

// ParIndex returns the ladder index of the given par price, or false if the
// price is not on the ladder.
func (m *StockMarket) ParIndex(price int) (int, bool) {
	for i, p := range m.Prices {
		if p == price {
			return i, true
		}
	}
	return 0, false
}

// Up moves a price token one space toward the top and returns the new index.
func (m *StockMarket) Up(index int) int {
	if index < len(m.Prices)-1 {
		return index + 1
	}
	return index
}

// Down moves a price token down the given number of spaces.
func (m *StockMarket) Down(index, spaces int) int {
	index -= spaces
	if index < 0 {
		index = 0
	}
	return index
}

// AtTop reports whether the index is the maximum price space.
func (m *StockMarket) AtTop(index int) bool {
	return index == len(m.Prices)-1
}

// Closes reports whether the index is the closing space.
func (m *StockMarket) Closes(index int) bool {
	return index == 0
}
